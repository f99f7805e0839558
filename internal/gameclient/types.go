package gameclient

import "github.com/mcoot/guildtracker/internal/model"

// Wire types for the game service protocol

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Characters []characterSession `json:"characters"`
}

type characterSession struct {
	SessionToken string    `json:"session_token"`
	Character    character `json:"character"`
}

type character struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Server string `json:"server"`
	Level  uint16 `json:"level"`
}

func (c character) toModel() model.Character {
	return model.Character{
		ID:     model.CharacterID(c.ID),
		Name:   c.Name,
		Server: c.Server,
		Level:  c.Level,
	}
}

type commandRequest struct {
	Command string `json:"command"`
}

type gameStateResponse struct {
	Character character `json:"character"`
	Guild     *guild    `json:"guild"`
}

type guild struct {
	Name    string        `json:"name"`
	Members []guildMember `json:"members"`
}

type guildMember struct {
	Name  string `json:"name"`
	Level uint16 `json:"level"`
}

func (r gameStateResponse) toModel() *model.GameState {
	state := &model.GameState{Character: r.Character.toModel()}
	if r.Guild != nil {
		members := make([]model.GuildMember, len(r.Guild.Members))
		for i, m := range r.Guild.Members {
			members[i] = model.GuildMember{Name: m.Name, Level: m.Level}
		}
		state.Guild = &model.Guild{Name: r.Guild.Name, Members: members}
	}
	return state
}

type healthResponse struct {
	Status string `json:"status"`
}
