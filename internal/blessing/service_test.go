package blessing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jwy87/kaoyan/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewService(st, nil)
}

func TestNormalizeBounds(t *testing.T) {
	if _, err := Normalize(""); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent for empty, got %v", err)
	}
	if _, err := Normalize("   "); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent for blank, got %v", err)
	}
	if _, err := Normalize(strings.Repeat("x", 51)); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent for 51 chars, got %v", err)
	}
	if _, err := Normalize(strings.Repeat("x", 50)); err != nil {
		t.Fatalf("expected 50 chars to be accepted, got %v", err)
	}

	// Length is counted in characters, not bytes.
	if _, err := Normalize(strings.Repeat("岸", 50)); err != nil {
		t.Fatalf("expected 50 CJK characters to be accepted, got %v", err)
	}

	got, err := Normalize("  加油上岸 ")
	if err != nil || got != "加油上岸" {
		t.Fatalf("expected trimmed content, got %q (%v)", got, err)
	}
}

func TestAddThenListRecent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Add(ctx, " 一战成硕 ")
	if err != nil || !saved {
		t.Fatalf("expected blessing to be saved, got saved=%v err=%v", saved, err)
	}

	got, err := svc.ListRecent(ctx)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 1 || got[0] != "一战成硕" {
		t.Fatalf("unexpected listing: %v", got)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Add(context.Background(), ""); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestUnconfiguredService(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	if svc.Configured() {
		t.Fatalf("expected unconfigured service")
	}

	got, err := svc.ListRecent(ctx)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty listing, got %#v (%v)", got, err)
	}

	saved, err := svc.Add(ctx, "没有数据库也不报错")
	if err != nil || saved {
		t.Fatalf("expected skipped write, got saved=%v err=%v", saved, err)
	}

	if _, err := svc.Add(ctx, ""); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("validation must still apply without a store, got %v", err)
	}
}
