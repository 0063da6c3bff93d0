package server

import (
	"log/slog"
	"net/http"

	"github.com/empower/empower/pkg/log"
	"github.com/empower/empower/pkg/types"
)

// preview mirrors the first rows of both tables shown after an ingestion.
type preview struct {
	Data    types.Table        `json:"data"`
	Weather types.WeatherTable `json:"weather"`
}

type ingestResponse struct {
	Error       string         `json:"error,omitempty"`
	Notices     []types.Notice `json:"notices"`
	ColumnNames []string       `json:"column_names,omitempty"`
	Rows        int            `json:"rows"`
	Preview     *preview       `json:"preview,omitempty"`
	Pages       []types.Page   `json:"pages,omitempty"`
}

// handleIngest runs the whole ingestion synchronously. Only a successful run
// is written to the caller's session.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.getSession(r)

	res, err := s.pipeline.Run(ctx)
	resp := ingestResponse{
		Notices: []types.Notice{},
	}
	if res != nil && res.Notices != nil {
		resp.Notices = res.Notices
	}
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "ingestion failed", slog.Any("error", err))
		resp.Error = err.Error()
		writeJSON(w, resp, http.StatusUnprocessableEntity)
		return
	}

	sess.Store(res)

	resp.ColumnNames = res.ColumnNames
	resp.Rows = len(res.Table.Index)
	resp.Preview = &preview{
		Data:    res.Table.Head(s.previewRows),
		Weather: res.Weather.Head(s.previewRows),
	}
	resp.Pages = types.Pages
	writeJSON(w, resp, http.StatusOK)
}
