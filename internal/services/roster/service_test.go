package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guildtracker/internal/dependencies/mocks"
	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	auth    *mocks.MockAuthenticator
	service *Service
	ctx     context.Context
	creds   model.Credentials
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.auth = &mocks.MockAuthenticator{}
	s.service = New(s.auth, testutil.NopLogger())
	s.ctx = context.Background()
	s.creds = model.Credentials{Username: "alice@example.com", Password: "hunter2"}
}

func guildState(members ...model.GuildMember) *model.GameState {
	return &model.GameState{
		Character: model.Character{ID: "c1", Name: "Aldric"},
		Guild:     &model.Guild{Name: "Night Watch", Members: members},
	}
}

func (s *ServiceSuite) TestFetchReturnsMembersInRosterOrder() {
	s.auth.Sessions = []*mocks.MockSession{{
		Char: model.Character{ID: "c1", Name: "Aldric"},
		State: guildState(
			model.GuildMember{Name: "Zed", Level: 10},
			model.GuildMember{Name: "Aldric", Level: 312},
			model.GuildMember{Name: "Brenna", Level: 7},
		),
	}}

	levels, err := s.service.Fetch(s.ctx, s.creds)
	s.Require().NoError(err)
	s.Equal([]model.MemberLevel{
		{Name: "Zed", Level: 10},
		{Name: "Aldric", Level: 312},
		{Name: "Brenna", Level: 7},
	}, levels)
	s.Equal(s.creds, s.auth.LastCredentials)
}

func (s *ServiceSuite) TestFetchSendsSingleUpdateToFirstSession() {
	first := &mocks.MockSession{Char: model.Character{Name: "First"}, State: guildState()}
	second := &mocks.MockSession{Char: model.Character{Name: "Second"}, State: guildState()}
	s.auth.Sessions = []*mocks.MockSession{first, second}

	_, err := s.service.Fetch(s.ctx, s.creds)
	s.Require().NoError(err)

	s.Equal([]model.Command{model.CommandUpdate}, first.Commands)
	s.Empty(second.Commands)
	s.Equal(1, s.auth.Calls)
}

func (s *ServiceSuite) TestFetchEmptyGuild() {
	s.auth.Sessions = []*mocks.MockSession{{State: guildState()}}

	levels, err := s.service.Fetch(s.ctx, s.creds)
	s.Require().NoError(err)
	s.Empty(levels)
}

func (s *ServiceSuite) TestFetchMissingCredentialsSkipsLogin() {
	for _, creds := range []model.Credentials{
		{Username: "", Password: "pw"},
		{Username: "user", Password: ""},
		{},
	} {
		_, err := s.service.Fetch(s.ctx, creds)
		s.ErrorIs(err, model.ErrMissingCredentials)
	}
	s.Equal(0, s.auth.Calls)
}

func (s *ServiceSuite) TestFetchPropagatesLoginError() {
	loginErr := errors.New("connection refused")
	s.auth.Err = loginErr

	_, err := s.service.Fetch(s.ctx, s.creds)
	s.ErrorIs(err, loginErr)
}

func (s *ServiceSuite) TestFetchNoCharacters() {
	s.auth.Sessions = nil

	levels, err := s.service.Fetch(s.ctx, s.creds)
	s.ErrorIs(err, model.ErrNoCharacters)
	s.Nil(levels)
}

func (s *ServiceSuite) TestFetchPropagatesCommandError() {
	cmdErr := errors.New("server hung up")
	s.auth.Sessions = []*mocks.MockSession{{Err: cmdErr}}

	_, err := s.service.Fetch(s.ctx, s.creds)
	s.ErrorIs(err, cmdErr)
}

func (s *ServiceSuite) TestFetchNilStateIsAnError() {
	s.auth.Sessions = []*mocks.MockSession{{State: nil}}

	_, err := s.service.Fetch(s.ctx, s.creds)
	s.Error(err)
}

func (s *ServiceSuite) TestFetchNotInGuild() {
	s.auth.Sessions = []*mocks.MockSession{{
		Char:  model.Character{Name: "Loner"},
		State: &model.GameState{Character: model.Character{Name: "Loner"}},
	}}

	levels, err := s.service.Fetch(s.ctx, s.creds)
	s.ErrorIs(err, model.ErrNotInGuild)
	s.Contains(err.Error(), "Loner")
	s.Nil(levels)
}

// WriteJSON tests

func (s *ServiceSuite) TestWriteJSONPrettyPrints() {
	var buf bytes.Buffer
	err := WriteJSON(&buf, []model.MemberLevel{{Name: "Aldric", Level: 312}})
	s.Require().NoError(err)

	s.Equal("[\n  {\n    \"name\": \"Aldric\",\n    \"level\": 312\n  }\n]\n", buf.String())
}

func (s *ServiceSuite) TestWriteJSONEmptyIsArray() {
	var buf bytes.Buffer
	s.Require().NoError(WriteJSON(&buf, nil))
	s.Equal("[]\n", buf.String())

	var decoded []model.MemberLevel
	s.Require().NoError(json.Unmarshal(buf.Bytes(), &decoded))
	s.Empty(decoded)
}

func (s *ServiceSuite) TestReadJSONRoundTripsWriteJSON() {
	levels := []model.MemberLevel{{Name: "Aldric", Level: 312}, {Name: "Brenna", Level: 65535}}

	var buf bytes.Buffer
	s.Require().NoError(WriteJSON(&buf, levels))

	got, err := ReadJSON(&buf)
	s.Require().NoError(err)
	s.Equal(levels, got)
}

func (s *ServiceSuite) TestReadJSONSkipsIncompleteEntries() {
	got, err := ReadJSON(strings.NewReader(`[{"name":"A","level":1},{"name":"B"},{"level":3},{"name":"C","level":0}]`))
	s.Require().NoError(err)
	s.Equal([]model.MemberLevel{{Name: "A", Level: 1}, {Name: "C", Level: 0}}, got)
}

func (s *ServiceSuite) TestReadJSONRejectsMalformedInput() {
	_, err := ReadJSON(strings.NewReader(`{"name":"A"}`))
	s.Error(err)

	_, err = ReadJSON(strings.NewReader(`[{"name":"A","level":70000}]`))
	s.Error(err)
}
