// Package gameapi defines the collaborator interfaces for talking to the
// game service, so the roster flow can run against the HTTP client or a
// test double.
package gameapi

import (
	"context"

	"github.com/mcoot/guildtracker/internal/model"
)

// Session is an authenticated handle to one character
type Session interface {
	// Character returns the character this session is bound to
	Character() model.Character

	// SendCommand issues cmd and returns the resulting game state.
	// The session keeps the returned state as its current state.
	SendCommand(ctx context.Context, cmd model.Command) (*model.GameState, error)
}

// Authenticator logs in to the game service
type Authenticator interface {
	// Login returns one session per character on the account, in the
	// order the service reports them. An account without characters
	// yields an empty slice and no error.
	Login(ctx context.Context, creds model.Credentials) ([]Session, error)
}
