package world

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/guildtracker/internal/model"
)

// characterNamespace seeds the ids of characters that don't declare one,
// so an unchanged world file yields the same ids on every start
var characterNamespace = uuid.MustParse("6c1a2f0e-4b57-4e8a-9a43-2d0f5c7e9b11")

// hashCost is the bcrypt cost used for plaintext passwords in world files
var hashCost = bcrypt.DefaultCost

// File is the YAML layout of a world file
type File struct {
	Accounts []AccountFile `yaml:"accounts"`
	Guilds   []GuildFile   `yaml:"guilds"`
}

// AccountFile is one account in a world file. Exactly one of Password
// and PasswordHash is set.
type AccountFile struct {
	Username     string          `yaml:"username"`
	Password     string          `yaml:"password,omitempty"`
	PasswordHash string          `yaml:"password_hash,omitempty"`
	Characters   []CharacterFile `yaml:"characters"`
}

// CharacterFile is one character in a world file
type CharacterFile struct {
	ID     string `yaml:"id,omitempty"`
	Name   string `yaml:"name"`
	Server string `yaml:"server"`
	Level  uint16 `yaml:"level"`
	Guild  string `yaml:"guild,omitempty"`
}

// GuildFile is one guild in a world file
type GuildFile struct {
	Name    string       `yaml:"name"`
	Members []MemberFile `yaml:"members"`
}

// MemberFile is one roster entry in a world file
type MemberFile struct {
	Name  string `yaml:"name"`
	Level uint16 `yaml:"level"`
}

// Account is a loaded account
type Account struct {
	Username     string
	PasswordHash string
	Characters   []model.Character // login order
}

// World is the read-only game data served by the emulator
type World struct {
	accounts   map[string]*Account
	characters map[model.CharacterID]model.Character
	memberOf   map[model.CharacterID]string // character -> guild name
	guilds     map[string]*model.Guild
}

// Load reads and parses a world file
func Load(path string, logger *slog.Logger) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world file: %w", err)
	}

	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("world file %s: %w", path, err)
	}

	logger.Info("world loaded",
		slog.String("path", path),
		slog.Int("accounts", len(w.accounts)),
		slog.Int("characters", len(w.characters)),
		slog.Int("guilds", len(w.guilds)),
	)
	return w, nil
}

// Parse builds a World from YAML
func Parse(data []byte) (*World, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse world: %w", err)
	}
	return New(f)
}

// New validates a world definition and hashes any plaintext passwords
func New(f File) (*World, error) {
	w := &World{
		accounts:   make(map[string]*Account, len(f.Accounts)),
		characters: make(map[model.CharacterID]model.Character),
		memberOf:   make(map[model.CharacterID]string),
		guilds:     make(map[string]*model.Guild, len(f.Guilds)),
	}

	for _, g := range f.Guilds {
		if g.Name == "" {
			return nil, fmt.Errorf("guild without a name")
		}
		if _, dup := w.guilds[g.Name]; dup {
			return nil, fmt.Errorf("duplicate guild %q", g.Name)
		}
		members := make([]model.GuildMember, len(g.Members))
		for i, m := range g.Members {
			members[i] = model.GuildMember{Name: m.Name, Level: m.Level}
		}
		w.guilds[g.Name] = &model.Guild{Name: g.Name, Members: members}
	}

	for _, a := range f.Accounts {
		account, err := w.addAccount(a)
		if err != nil {
			return nil, err
		}
		w.accounts[account.Username] = account
	}

	return w, nil
}

func (w *World) addAccount(a AccountFile) (*Account, error) {
	if a.Username == "" {
		return nil, fmt.Errorf("account without a username")
	}
	if _, dup := w.accounts[a.Username]; dup {
		return nil, fmt.Errorf("duplicate account %q", a.Username)
	}

	hash := a.PasswordHash
	switch {
	case hash != "" && a.Password != "":
		return nil, fmt.Errorf("account %q: set password or password_hash, not both", a.Username)
	case hash == "":
		h, err := bcrypt.GenerateFromPassword([]byte(a.Password), hashCost)
		if err != nil {
			return nil, fmt.Errorf("account %q: hash password: %w", a.Username, err)
		}
		hash = string(h)
	}

	account := &Account{Username: a.Username, PasswordHash: hash}
	for _, c := range a.Characters {
		id := model.CharacterID(c.ID)
		if id == "" {
			id = model.CharacterID(uuid.NewSHA1(characterNamespace, []byte(c.Server+"/"+c.Name)).String())
		}
		if _, dup := w.characters[id]; dup {
			return nil, fmt.Errorf("account %q: duplicate character %s", a.Username, id)
		}
		if c.Guild != "" {
			if _, ok := w.guilds[c.Guild]; !ok {
				return nil, fmt.Errorf("character %q: %w: %q", c.Name, model.ErrGuildNotFound, c.Guild)
			}
			w.memberOf[id] = c.Guild
		}

		character := model.Character{ID: id, Name: c.Name, Server: c.Server, Level: c.Level}
		w.characters[id] = character
		account.Characters = append(account.Characters, character)
	}

	return account, nil
}

// Account returns the account with the given username
func (w *World) Account(username string) (*Account, error) {
	a, ok := w.accounts[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return a, nil
}

// GameState returns a snapshot of a character's state. The guild roster
// is copied so callers cannot modify the world.
func (w *World) GameState(id model.CharacterID) (*model.GameState, error) {
	c, ok := w.characters[id]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}

	state := &model.GameState{Character: c}
	if name, ok := w.memberOf[id]; ok {
		g := w.guilds[name]
		members := make([]model.GuildMember, len(g.Members))
		copy(members, g.Members)
		state.Guild = &model.Guild{Name: g.Name, Members: members}
	}
	return state, nil
}

// Execute runs a command on behalf of a character
func (w *World) Execute(ctx context.Context, id model.CharacterID, cmd model.Command) (*model.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cmd {
	case model.CommandUpdate:
		return w.GameState(id)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCommand, cmd)
	}
}
