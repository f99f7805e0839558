package model

// CharacterID uniquely identifies a character on the game service
type CharacterID string

// Character is a single playable character on an account
type Character struct {
	ID     CharacterID
	Name   string
	Server string // game world the character lives on
	Level  uint16
}

// Credentials are the account login details for the game service
type Credentials struct {
	Username string // account e-mail
	Password string
}

// Command is a typed request sent over an established session
type Command string

const (
	CommandUpdate Command = "update" // Refresh the character's game state
)

// Valid reports whether the command is one the game service understands
func (c Command) Valid() bool {
	switch c {
	case CommandUpdate:
		return true
	default:
		return false
	}
}
