// Package engagement implements the business rules behind every endpoint:
// logins, ambassador accounts, events, audience submissions, screenshot
// storage and the leaderboard.
package engagement

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"campusreach/internal/auth"
	"campusreach/internal/leaderboard"
	"campusreach/internal/metrics"
	"campusreach/internal/queue"
	"campusreach/internal/records"
	"campusreach/internal/vault"
)

const publishTimeout = 2 * time.Second

// Store is the record store the service reads and appends to. Both
// records.Repository and records.Memory satisfy it.
type Store interface {
	ListAmbassadors(ctx context.Context) ([]records.Ambassador, error)
	FindAmbassadorByEmail(ctx context.Context, email string) (records.Ambassador, error)
	InsertAmbassador(ctx context.Context, a records.Ambassador) error
	FindAdminByEmail(ctx context.Context, email string) (records.Admin, error)
	InsertAdmin(ctx context.Context, a records.Admin) error
	GetEvent(ctx context.Context, id string) (records.Event, error)
	ListEvents(ctx context.Context) ([]records.Event, error)
	ListEventsForAmbassador(ctx context.Context, ambassadorID string) ([]records.Event, error)
	InsertEvent(ctx context.Context, e records.Event) error
	InsertSubmission(ctx context.Context, s records.Submission) error
	ListSubmissions(ctx context.Context, eventID string) ([]records.Submission, error)
}

// Blobs stores screenshots and mints signed URLs for them.
type Blobs interface {
	Upload(ctx context.Context, fileName string, data []byte, contentType string) (vault.Upload, error)
	ViewURL(ctx context.Context, handle string) (string, error)
}

// Ranking serves the leaderboard.
type Ranking interface {
	Get(ctx context.Context) ([]leaderboard.Entry, error)
}

// Deps wires a Service. Queue and Ranking are optional.
type Deps struct {
	Store    Store
	Blobs    Blobs
	Tokens   *auth.TokenService
	Queue    queue.Queue
	Ranking  Ranking
	HashCost int
	Now      func() time.Time
}

// Service coordinates the record store, the blob vault and token issuance.
type Service struct {
	store    Store
	blobs    Blobs
	tokens   *auth.TokenService
	queue    queue.Queue
	ranking  Ranking
	validate *validator.Validate
	hashCost int
	now      func() time.Time
}

// NewService creates a service from its dependencies.
func NewService(d Deps) *Service {
	if d.HashCost == 0 {
		d.HashCost = auth.DefaultHashCost
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		store:    d.Store,
		blobs:    d.Blobs,
		tokens:   d.Tokens,
		queue:    d.Queue,
		ranking:  d.Ranking,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		hashCost: d.HashCost,
		now:      d.Now,
	}
}

func (s *Service) valid(in any, msg string) error {
	if err := s.validate.Struct(in); err != nil {
		return newError(ErrValidation, msg)
	}
	return nil
}

// publish announces a write. Failures are logged and never fail the request.
func (s *Service) publish(ctx context.Context, typ, id string) {
	metrics.RecordsCreatedTotal.WithLabelValues(collection(typ)).Inc()
	if s.queue == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := queue.Message{Type: typ, ID: id, At: s.now().UTC()}
	if err := s.queue.Publish(ctx, msg); err != nil {
		metrics.QueuePublishFailures.WithLabelValues(typ).Inc()
		log.Ctx(ctx).Warn().Err(err).Str("type", typ).Str("id", id).Msg("queue publish failed")
	}
}

func collection(typ string) string {
	switch typ {
	case queue.TypeAmbassadorCreated:
		return "ambassadors"
	case queue.TypeEventCreated:
		return "events"
	case queue.TypeSubmissionCreated:
		return "submissions"
	}
	return "unknown"
}

// Leaderboard returns per-ambassador reach and conversion figures.
func (s *Service) Leaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	if s.ranking == nil {
		return leaderboard.NewBoard(s.store, nil).Get(ctx)
	}
	return s.ranking.Get(ctx)
}
