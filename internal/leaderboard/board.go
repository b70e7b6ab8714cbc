package leaderboard

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"campusreach/internal/records"
)

// Source supplies the records a leaderboard is computed from.
type Source interface {
	ListAmbassadors(ctx context.Context) ([]records.Ambassador, error)
	ListEvents(ctx context.Context) ([]records.Event, error)
	ListSubmissions(ctx context.Context, eventID string) ([]records.Submission, error)
}

// Snapshots stores computed leaderboards between requests.
type Snapshots interface {
	Get(ctx context.Context) ([]Entry, bool, error)
	Set(ctx context.Context, entries []Entry) error
	Invalidate(ctx context.Context) error
}

// Board serves the leaderboard, reading through an optional snapshot cache.
// Cache failures are logged and the board is computed directly.
type Board struct {
	src   Source
	cache Snapshots
}

// NewBoard creates a board. cache may be nil.
func NewBoard(src Source, cache Snapshots) *Board {
	return &Board{src: src, cache: cache}
}

// Get returns the cached leaderboard when present, otherwise computes and
// caches it.
func (b *Board) Get(ctx context.Context) ([]Entry, error) {
	if b.cache != nil {
		entries, ok, err := b.cache.Get(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("leaderboard cache read failed")
		} else if ok {
			return entries, nil
		}
	}
	return b.Refresh(ctx)
}

// Refresh recomputes the leaderboard from the source and stores it.
func (b *Board) Refresh(ctx context.Context) ([]Entry, error) {
	ambassadors, err := b.src.ListAmbassadors(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: ambassadors: %w", err)
	}
	events, err := b.src.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: events: %w", err)
	}
	submissions, err := b.src.ListSubmissions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("leaderboard: submissions: %w", err)
	}

	entries := Compute(ambassadors, events, submissions)
	if b.cache != nil {
		if err := b.cache.Set(ctx, entries); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("leaderboard cache write failed")
		}
	}
	return entries, nil
}

// Invalidate drops any cached snapshot.
func (b *Board) Invalidate(ctx context.Context) error {
	if b.cache == nil {
		return nil
	}
	return b.cache.Invalidate(ctx)
}
