package model

// GuildMember is a single entry in a guild roster
type GuildMember struct {
	Name  string
	Level uint16
}

// Guild is an in-game group of characters
type Guild struct {
	Name    string
	Members []GuildMember // roster order as reported by the server
}

// GameState is a server-reported snapshot of a character's world state
type GameState struct {
	Character Character
	Guild     *Guild // nil when the character is not in a guild
}

// MemberLevel is the name/level pair emitted for each guild member
type MemberLevel struct {
	Name  string `json:"name"`
	Level uint16 `json:"level"`
}

// MemberLevels projects the guild roster to name/level pairs, keeping roster order
func (g *Guild) MemberLevels() []MemberLevel {
	levels := make([]MemberLevel, len(g.Members))
	for i, m := range g.Members {
		levels[i] = MemberLevel{Name: m.Name, Level: m.Level}
	}
	return levels
}
