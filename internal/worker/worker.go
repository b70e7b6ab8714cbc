// Package worker reacts to domain events by keeping the leaderboard snapshot
// current, and re-warms it on a schedule.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"campusreach/internal/leaderboard"
	"campusreach/internal/metrics"
	"campusreach/internal/queue"
)

// Board is the leaderboard the worker maintains.
type Board interface {
	Refresh(ctx context.Context) ([]leaderboard.Entry, error)
	Invalidate(ctx context.Context) error
}

// Processor consumes queue messages.
type Processor struct {
	board Board
}

// NewProcessor creates a processor for board.
func NewProcessor(board Board) *Processor {
	return &Processor{board: board}
}

// Run handles messages until the channel closes or ctx is done.
func (p *Processor) Run(ctx context.Context, msgs <-chan queue.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			p.Handle(ctx, msg)
		}
	}
}

// Handle processes one message. Every known domain event changes the
// leaderboard inputs, so the snapshot is dropped and rebuilt.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) {
	logger := log.Ctx(ctx).With().Str("type", msg.Type).Str("id", msg.ID).Logger()
	switch msg.Type {
	case queue.TypeAmbassadorCreated, queue.TypeEventCreated, queue.TypeSubmissionCreated:
	default:
		logger.Warn().Msg("ignoring unknown message type")
		return
	}

	if err := p.board.Invalidate(ctx); err != nil {
		logger.Warn().Err(err).Msg("leaderboard invalidate failed")
	}
	p.refresh(ctx, "event")
	logger.Debug().Msg("leaderboard refreshed")
}

func (p *Processor) refresh(ctx context.Context, trigger string) {
	if _, err := p.board.Refresh(ctx); err != nil {
		metrics.LeaderboardRefreshes.WithLabelValues(trigger, "error").Inc()
		log.Ctx(ctx).Error().Err(err).Str("trigger", trigger).Msg("leaderboard refresh failed")
		return
	}
	metrics.LeaderboardRefreshes.WithLabelValues(trigger, "ok").Inc()
}

// Schedule starts a scheduler that refreshes the leaderboard every interval.
// The caller must shut the scheduler down.
func (p *Processor) Schedule(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { p.refresh(ctx, "schedule") }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule leaderboard refresh: %w", err)
	}
	sched.Start()
	return sched, nil
}
