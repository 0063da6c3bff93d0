package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/empower/empower/pkg/log"
	"github.com/empower/empower/pkg/session"
	"github.com/empower/empower/pkg/types"
)

type sessionResponse struct {
	Loaded      bool         `json:"loaded"`
	LoadedAt    *time.Time   `json:"loaded_at,omitempty"`
	ColumnNames []string     `json:"column_names"`
	Rows        int          `json:"rows"`
	Page        types.Page   `json:"page"`
	Pages       []types.Page `json:"pages"`
	Preview     *preview     `json:"preview,omitempty"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state := s.getSession(r).Snapshot()

	resp := sessionResponse{
		Loaded:      state.Loaded(),
		ColumnNames: state.ColumnNames,
		Rows:        len(state.UploadedData.Index),
		Page:        state.Page,
		Pages:       types.Pages,
	}
	if resp.ColumnNames == nil {
		resp.ColumnNames = []string{}
	}
	if state.Loaded() {
		resp.LoadedAt = &state.LoadedAt
		resp.Preview = &preview{
			Data:    state.UploadedData.Head(s.previewRows),
			Weather: state.WeatherData.Head(s.previewRows),
		}
	}
	writeJSON(w, resp, http.StatusOK)
}

// handleGetSessionData returns the full tables for the downstream pages.
func (s *Server) handleGetSessionData(w http.ResponseWriter, r *http.Request) {
	state := s.getSession(r).Snapshot()
	if !state.Loaded() {
		writeJSONError(w, "no data loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, state, http.StatusOK)
}

type navigateRequest struct {
	Page string `json:"page"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	page, err := s.getSession(r).Navigate(req.Page)
	switch {
	case errors.Is(err, session.ErrUnknownPage):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, session.ErrNoData):
		writeJSONError(w, "no data loaded", http.StatusConflict)
		return
	case err != nil:
		log.Ctx(ctx).ErrorContext(ctx, "failed to navigate", slog.Any("error", err))
		writeJSONError(w, "failed to navigate", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).DebugContext(ctx, "navigated", slog.String("page", string(page)))
	writeJSON(w, struct {
		Page types.Page `json:"page"`
	}{Page: page}, http.StatusOK)
}
