package response

import (
	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/services/auth"
)

// Character represents a character in API responses
type Character struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Server string `json:"server"`
	Level  uint16 `json:"level"`
}

// CharacterFromModel converts a model.Character to a response Character
func CharacterFromModel(c model.Character) Character {
	return Character{
		ID:     string(c.ID),
		Name:   c.Name,
		Server: c.Server,
		Level:  c.Level,
	}
}

// CharacterSession pairs a character with the session bound to it
type CharacterSession struct {
	SessionToken string    `json:"session_token"`
	Character    Character `json:"character"`
}

// LoginResponse is the response for the login endpoint
type LoginResponse struct {
	Characters []CharacterSession `json:"characters"`
}

// LoginResponseFromSessions creates a LoginResponse, one entry per session
func LoginResponseFromSessions(sessions []*auth.Session) LoginResponse {
	characters := make([]CharacterSession, len(sessions))
	for i, s := range sessions {
		characters[i] = CharacterSession{
			SessionToken: s.Token,
			Character:    CharacterFromModel(s.Character),
		}
	}
	return LoginResponse{Characters: characters}
}

// GuildMember represents a guild roster entry
type GuildMember struct {
	Name  string `json:"name"`
	Level uint16 `json:"level"`
}

// Guild represents a guild and its roster
type Guild struct {
	Name    string        `json:"name"`
	Members []GuildMember `json:"members"`
}

// GameState is the response for the update command
type GameState struct {
	Character Character `json:"character"`
	Guild     *Guild    `json:"guild"`
}

// GameStateFromModel converts model.GameState, keeping roster order
func GameStateFromModel(s *model.GameState) GameState {
	resp := GameState{Character: CharacterFromModel(s.Character)}
	if s.Guild != nil {
		members := make([]GuildMember, len(s.Guild.Members))
		for i, m := range s.Guild.Members {
			members[i] = GuildMember{Name: m.Name, Level: m.Level}
		}
		resp.Guild = &Guild{Name: s.Guild.Name, Members: members}
	}
	return resp
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}
