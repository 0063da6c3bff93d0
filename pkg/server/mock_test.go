package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/empower/empower/pkg/ingest"
	"github.com/empower/empower/pkg/log"
	"github.com/empower/empower/pkg/session"
	"github.com/empower/empower/pkg/types"
	"github.com/stretchr/testify/mock"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

type mockIngester struct {
	mock.Mock
}

func (m *mockIngester) Run(ctx context.Context) (*ingest.Result, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*ingest.Result)
	return res, args.Error(1)
}

func newTestServer(p ingester) *Server {
	return &Server{
		pipeline:    p,
		sessions:    session.NewStore(time.Hour),
		listenAddr:  ":8080",
		serverName:  "empower",
		previewRows: 5,
	}
}

func testResult(rows int) *ingest.Result {
	res := &ingest.Result{
		ColumnNames: []string{"aggregate", "treadmill"},
		Notices: []types.Notice{
			{Level: types.NoticeInfo, Message: "Data Loaded Successfully"},
			{Level: types.NoticeInfo, Message: "Weather Data Loaded Successfully"},
		},
		Weather: types.WeatherTable{Columns: []string{"time", "temperature"}},
	}
	res.Table.Columns = res.ColumnNames
	for i := 0; i < rows; i++ {
		v := float64(i)
		res.Table.Index = append(res.Table.Index, time.Unix(1609459200+int64(i)*60, 0).UTC())
		res.Table.Rows = append(res.Table.Rows, []*float64{&v, nil})
		res.Weather.Rows = append(res.Weather.Rows, []string{"t", "4.2"})
	}
	return res
}
