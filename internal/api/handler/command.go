package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcoot/guildtracker/internal/api/middleware"
	"github.com/mcoot/guildtracker/internal/api/request"
	"github.com/mcoot/guildtracker/internal/api/response"
	"github.com/mcoot/guildtracker/internal/model"
)

// Executor runs commands on behalf of a character
type Executor interface {
	Execute(ctx context.Context, id model.CharacterID, cmd model.Command) (*model.GameState, error)
}

// CommandHandler handles commands sent over a session
type CommandHandler struct {
	executor Executor
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(executor Executor) *CommandHandler {
	return &CommandHandler{
		executor: executor,
	}
}

// Execute handles POST /api/v1/command
func (h *CommandHandler) Execute(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	var req request.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Command == "" {
		WriteError(w, NewInvalidRequestError("command is required"))
		return
	}

	state, err := h.executor.Execute(r.Context(), session.Character.ID, model.Command(req.Command))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameStateFromModel(state))
}
