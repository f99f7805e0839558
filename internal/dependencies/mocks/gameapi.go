package mocks

import (
	"context"

	"github.com/mcoot/guildtracker/internal/dependencies/gameapi"
	"github.com/mcoot/guildtracker/internal/model"
)

// MockSession is a scripted gameapi.Session
type MockSession struct {
	Char  model.Character
	State *model.GameState
	Err   error

	// Commands records every command sent, in order
	Commands []model.Command
}

// Ensure MockSession implements Session
var _ gameapi.Session = (*MockSession)(nil)

// Character returns the scripted character
func (s *MockSession) Character() model.Character {
	return s.Char
}

// SendCommand records cmd and returns the scripted state or error
func (s *MockSession) SendCommand(_ context.Context, cmd model.Command) (*model.GameState, error) {
	s.Commands = append(s.Commands, cmd)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.State, nil
}

// MockAuthenticator is a scripted gameapi.Authenticator
type MockAuthenticator struct {
	Sessions []*MockSession
	Err      error

	// Calls counts Login invocations
	Calls int
	// LastCredentials holds the credentials of the most recent Login
	LastCredentials model.Credentials
}

// Ensure MockAuthenticator implements Authenticator
var _ gameapi.Authenticator = (*MockAuthenticator)(nil)

// Login returns the scripted sessions or error
func (a *MockAuthenticator) Login(_ context.Context, creds model.Credentials) ([]gameapi.Session, error) {
	a.Calls++
	a.LastCredentials = creds
	if a.Err != nil {
		return nil, a.Err
	}
	sessions := make([]gameapi.Session, len(a.Sessions))
	for i, s := range a.Sessions {
		sessions[i] = s
	}
	return sessions, nil
}
