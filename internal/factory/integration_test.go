package factory

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/guildtracker/internal/gameclient"
	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/services/roster"
	"github.com/mcoot/guildtracker/internal/services/world"
)

type IntegrationSuite struct {
	suite.Suite
	stub   *TestStub
	server *httptest.Server
	app    *TestApp
	ctx    context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	s.Require().NoError(err)

	w, err := world.New(world.File{
		Accounts: []world.AccountFile{
			{
				Username:     "alice@example.com",
				PasswordHash: string(hash),
				Characters: []world.CharacterFile{
					{Name: "Aldric", Server: "s1.example", Level: 312, Guild: "Night Watch"},
					{Name: "Alt", Server: "s2.example", Level: 3},
				},
			},
			{
				Username:     "loner@example.com",
				PasswordHash: string(hash),
				Characters:   []world.CharacterFile{{Name: "Loner", Server: "s1.example", Level: 9}},
			},
			{Username: "empty@example.com", PasswordHash: string(hash)},
		},
		Guilds: []world.GuildFile{
			{
				Name: "Night Watch",
				Members: []world.MemberFile{
					{Name: "Zora", Level: 500},
					{Name: "Aldric", Level: 312},
					{Name: "Brenna", Level: 65535},
				},
			},
		},
	})
	s.Require().NoError(err)

	s.stub = NewTestStub(w)
	s.server = httptest.NewServer(s.stub.Handler)
	s.app = NewTestApp(s.server.URL)
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.server.Close()
}

func creds(username string) model.Credentials {
	return model.Credentials{Username: username, Password: "hunter2"}
}

// Test: fetch prints the first character's guild in roster order
func (s *IntegrationSuite) TestFetchRoster() {
	levels, err := s.app.RosterService.Fetch(s.ctx, creds("alice@example.com"))
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.Require().NoError(roster.WriteJSON(&buf, levels))
	s.Equal(`[
  {
    "name": "Zora",
    "level": 500
  },
  {
    "name": "Aldric",
    "level": 312
  },
  {
    "name": "Brenna",
    "level": 65535
  }
]
`, buf.String())
}

func (s *IntegrationSuite) TestFetchWrongPassword() {
	_, err := s.app.RosterService.Fetch(s.ctx, model.Credentials{Username: "alice@example.com", Password: "nope"})
	s.ErrorIs(err, gameclient.ErrInvalidCredentials)
}

func (s *IntegrationSuite) TestFetchAccountWithoutCharacters() {
	_, err := s.app.RosterService.Fetch(s.ctx, creds("empty@example.com"))
	s.ErrorIs(err, model.ErrNoCharacters)
}

func (s *IntegrationSuite) TestFetchCharacterWithoutGuild() {
	_, err := s.app.RosterService.Fetch(s.ctx, creds("loner@example.com"))
	s.ErrorIs(err, model.ErrNotInGuild)
}

// Test: a session stops working once the emulator's clock passes its expiry
func (s *IntegrationSuite) TestExpiredSession() {
	sessions, err := s.app.Client.Login(s.ctx, creds("alice@example.com"))
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)

	s.stub.MockClock.AdvanceDays(2)

	_, err = sessions[0].SendCommand(s.ctx, model.CommandUpdate)
	s.ErrorIs(err, gameclient.ErrSessionExpired)
}

func (s *IntegrationSuite) TestHealth() {
	status, err := s.app.Client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("ok", status)
}

// Test: daily tracking builds history that progress reports read back
func (s *IntegrationSuite) TestTrackOverSeveralDays() {
	for day := 0; day < 3; day++ {
		if day > 0 {
			s.app.MockClock.AdvanceDays(1)
		}
		levels, err := s.app.RosterService.Fetch(s.ctx, creds("alice@example.com"))
		s.Require().NoError(err)

		n, err := s.app.TrackerService.Record(s.ctx, levels)
		s.Require().NoError(err)
		s.Equal(3, n)
	}

	report, err := s.app.TrackerService.Progress(s.ctx, 3, 10)
	s.Require().NoError(err)
	s.Equal([]string{"2024-01-01", "2024-01-02", "2024-01-03"}, report.Dates)
	s.Len(report.Worst, 3)
	for _, p := range report.Worst {
		s.Zero(p.Delta)
	}

	_, err = s.app.TrackerService.Projection(s.ctx, 10)
	s.ErrorIs(err, model.ErrInsufficientHistory)
}
