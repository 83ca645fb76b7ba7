package blessing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jwy87/kaoyan/internal/metrics"
	"github.com/jwy87/kaoyan/internal/store"
)

// MaxRunes is the longest blessing accepted, in characters.
const MaxRunes = 50

// ErrInvalidContent is returned when a blessing is blank or too long.
var ErrInvalidContent = errors.New("invalid content")

// Normalize trims content and checks its length.
func Normalize(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxRunes {
		return "", ErrInvalidContent
	}
	return trimmed, nil
}

// Service provides blessing operations over an optional store.
type Service struct {
	store   store.BlessingStore
	metrics *metrics.Metrics
}

// NewService creates a blessing service. A nil store runs the service in
// unconfigured mode: listings are empty and writes are skipped.
func NewService(st store.BlessingStore, m *metrics.Metrics) *Service {
	return &Service{store: st, metrics: m}
}

// Configured reports whether a store is attached.
func (s *Service) Configured() bool {
	return s.store != nil
}

// ListRecent returns the newest distinct blessings.
func (s *Service) ListRecent(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return []string{}, nil
	}

	contents, err := s.store.ListRecentDistinct(ctx, store.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list blessings: %w", err)
	}
	if contents == nil {
		contents = []string{}
	}
	return contents, nil
}

// Add validates and persists a blessing. saved is false when no store is
// configured and the write was skipped.
func (s *Service) Add(ctx context.Context, content string) (saved bool, err error) {
	normalized, err := Normalize(content)
	if err != nil {
		s.metrics.BlessingRejected()
		return false, err
	}

	if s.store == nil {
		return false, nil
	}

	if err := s.store.Append(ctx, normalized); err != nil {
		return false, fmt.Errorf("append blessing: %w", err)
	}
	s.metrics.BlessingAppended()
	return true, nil
}
