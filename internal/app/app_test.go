package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/config"
	"github.com/jwy87/kaoyan/internal/store/sqlite"
)

func TestOpenStoreWithoutURL(t *testing.T) {
	logger := zerolog.New(nil)
	cfg := config.Default()

	st, err := openStore(context.Background(), &cfg, &logger)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	if st != nil {
		t.Fatalf("expected no store without DATABASE_URL, got %T", st)
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	logger := zerolog.New(nil)
	cfg := config.Default()
	cfg.DatabaseURL = "sqlite://" + filepath.Join(t.TempDir(), "kaoyan.db")

	st, err := openStore(context.Background(), &cfg, &logger)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer st.Close()

	if _, ok := st.(*sqlite.SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", st)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	logger := zerolog.New(nil)
	cfg := config.Default()
	cfg.DatabaseURL = "postgres://localhost/kaoyan"

	if _, err := openStore(context.Background(), &cfg, &logger); err == nil {
		t.Fatalf("expected error for unsupported database URL")
	}
}

func TestOpenStoreRedisUnavailable(t *testing.T) {
	logger := zerolog.New(nil)
	cfg := config.Default()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "kaoyan.db")
	cfg.Redis.Addr = "127.0.0.1:1"

	st, err := openStore(context.Background(), &cfg, &logger)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer st.Close()

	if _, ok := st.(*sqlite.SQLiteStore); !ok {
		t.Fatalf("expected cache to be skipped, got %T", st)
	}
}

func TestNewServesAPI(t *testing.T) {
	logger := zerolog.New(nil)
	cfg := config.Default()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "kaoyan.db")

	a, err := New(&cfg, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/blessings", strings.NewReader(`{"content":"上岸"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "kaoyan_blessings_appended_total 1") {
		t.Fatalf("expected metrics to be served, got %d", resp.Code)
	}
}
