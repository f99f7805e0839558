package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/guildtracker/internal/dependencies/gameapi"
	"github.com/mcoot/guildtracker/internal/model"
)

// Service fetches the guild roster of an account's first character
type Service struct {
	auth   gameapi.Authenticator
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a new roster Service
func New(auth gameapi.Authenticator, logger *slog.Logger) *Service {
	return &Service{
		auth:   auth,
		logger: logger,
		tracer: otel.Tracer("github.com/mcoot/guildtracker/roster"),
	}
}

// Fetch logs in, selects the first character, refreshes its state and
// returns the guild's members as name/level pairs in roster order.
// Every failure is returned as-is; nothing is retried.
func (s *Service) Fetch(ctx context.Context, creds model.Credentials) ([]model.MemberLevel, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, model.ErrMissingCredentials
	}

	ctx, span := s.tracer.Start(ctx, "roster.fetch")
	defer span.End()

	session, err := s.selectSession(ctx, creds)
	if err != nil {
		return nil, recordError(span, err)
	}

	state, err := s.refresh(ctx, session)
	if err != nil {
		return nil, recordError(span, err)
	}

	if state.Guild == nil {
		return nil, recordError(span, fmt.Errorf("%w: %s", model.ErrNotInGuild, session.Character().Name))
	}

	levels := state.Guild.MemberLevels()
	span.SetAttributes(
		attribute.String("guild.name", state.Guild.Name),
		attribute.Int("guild.members", len(levels)),
	)
	s.logger.Debug("roster fetched",
		slog.String("guild", state.Guild.Name),
		slog.Int("members", len(levels)),
	)

	return levels, nil
}

// selectSession logs in and picks the first session
func (s *Service) selectSession(ctx context.Context, creds model.Credentials) (gameapi.Session, error) {
	ctx, span := s.tracer.Start(ctx, "roster.login")
	defer span.End()

	sessions, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("sessions", len(sessions)))

	if len(sessions) == 0 {
		return nil, model.ErrNoCharacters
	}
	if len(sessions) > 1 {
		s.logger.Debug("account has several characters, using the first",
			slog.Int("characters", len(sessions)))
	}

	session := sessions[0]
	s.logger.Debug("selected character",
		slog.String("name", session.Character().Name),
		slog.String("server", session.Character().Server),
	)
	return session, nil
}

// refresh sends the update command on the session
func (s *Service) refresh(ctx context.Context, session gameapi.Session) (*model.GameState, error) {
	ctx, span := s.tracer.Start(ctx, "roster.update",
		trace.WithAttributes(attribute.String("character", session.Character().Name)),
	)
	defer span.End()

	state, err := session.SendCommand(ctx, model.CommandUpdate)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("command %s: empty game state", model.CommandUpdate)
	}
	return state, nil
}

// WriteJSON writes levels to w as a pretty-printed JSON array
func WriteJSON(w io.Writer, levels []model.MemberLevel) error {
	if levels == nil {
		levels = []model.MemberLevel{}
	}
	data, err := json.MarshalIndent(levels, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadJSON reads a JSON array in the format WriteJSON produces. Entries
// without a name or a level are skipped.
func ReadJSON(r io.Reader) ([]model.MemberLevel, error) {
	var entries []struct {
		Name  *string `json:"name"`
		Level *uint16 `json:"level"`
	}
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}

	levels := make([]model.MemberLevel, 0, len(entries))
	for _, e := range entries {
		if e.Name == nil || e.Level == nil {
			continue
		}
		levels = append(levels, model.MemberLevel{Name: *e.Name, Level: *e.Level})
	}
	return levels, nil
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
