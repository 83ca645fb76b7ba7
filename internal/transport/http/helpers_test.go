package http

import (
	"database/sql"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/blessing"
	"github.com/jwy87/kaoyan/internal/config"
	"github.com/jwy87/kaoyan/internal/generation"
	"github.com/jwy87/kaoyan/internal/metrics"
	"github.com/jwy87/kaoyan/internal/store"
	"github.com/jwy87/kaoyan/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store seeded with the given blessings.
func createTestStore(t *testing.T, seed ...string) store.BlessingStore {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		for i, content := range seed {
			createdAt := time.Date(2025, 12, 1, 8, 0, i, 0, time.UTC)
			if _, err := db.Exec(`INSERT INTO blessings (content, created_at) VALUES (?, ?)`, content, createdAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestServer builds a router over the given store, which may be nil.
func createTestServer(t *testing.T, st store.BlessingStore, gen *generation.Config) (*testServer, *prometheus.Registry) {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cfg := config.Default()
	cfg.Addr = ":0"
	if st != nil {
		cfg.DatabaseURL = "sqlite://:memory:"
	}

	server := NewServer(Deps{
		Blessings: blessing.NewService(st, m),
		Generator: generation.New(gen, &disabledLogger, m),
		Metrics:   m,
		Gatherer:  reg,
	}, &cfg, &disabledLogger)

	return &testServer{t: t, handler: server.Handler}, reg
}

type testServer struct {
	t       *testing.T
	handler stdhttp.Handler
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}
