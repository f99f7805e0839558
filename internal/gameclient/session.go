package gameclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/mcoot/guildtracker/internal/dependencies/gameapi"
	"github.com/mcoot/guildtracker/internal/model"
)

// Session is an authenticated handle to one character
type Session struct {
	client    *Client
	token     string
	character model.Character

	mu    sync.Mutex
	state *model.GameState
}

// Ensure Session implements the gameapi interface
var _ gameapi.Session = (*Session)(nil)

// Character returns the character this session is bound to
func (s *Session) Character() model.Character {
	return s.character
}

// State returns the most recently received game state, or nil before
// the first command
func (s *Session) State() *model.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SendCommand issues cmd over the session and stores the returned state
func (s *Session) SendCommand(ctx context.Context, cmd model.Command) (*model.GameState, error) {
	if !cmd.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	var resp gameStateResponse
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/command", s.token, commandRequest{Command: string(cmd)}, &resp); err != nil {
		return nil, fmt.Errorf("command %s: %w", cmd, err)
	}

	state := resp.toModel()

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return state, nil
}
