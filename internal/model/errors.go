package model

import "errors"

// Common errors used across the application
var (
	// Configuration errors
	ErrMissingCredentials = errors.New("missing credentials")

	// Roster errors
	ErrNoCharacters = errors.New("no characters found on this account")
	ErrNotInGuild   = errors.New("character is not in a guild")

	// History errors
	ErrNoHistory           = errors.New("no history recorded yet")
	ErrInsufficientHistory = errors.New("not enough days of history")
	ErrNoCompleteMembers   = errors.New("no members with complete data in the window")

	// Emulator errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrGuildNotFound     = errors.New("guild not found")
	ErrUnknownCommand    = errors.New("unknown command")
)
