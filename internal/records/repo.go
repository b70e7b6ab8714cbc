package records

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	ambassadorColumns = []string{"id", "name", "email", "password_hash", "campus", "created_at"}
	adminColumns      = []string{"id", "email", "password_hash", "created_at"}
	eventColumns      = []string{"id", "title", "campus", "event_date", "total_audience", "ambassador_ids", "qr_code", "created_at"}
	submissionColumns = []string{"id", "event_id", "email", "campus", "blob_path", "screenshot_name", "uploaded_at"}
)

// Repository persists records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListAmbassadors returns every ambassador ordered by name.
func (r *Repository) ListAmbassadors(ctx context.Context) ([]Ambassador, error) {
	query, args, err := psql.Select(ambassadorColumns...).From("ambassadors").OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list ambassadors")
	}
	defer rows.Close()

	res := []Ambassador{}
	for rows.Next() {
		var a Ambassador
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.Campus, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// FindAmbassadorByEmail matches email exactly, case included.
func (r *Repository) FindAmbassadorByEmail(ctx context.Context, email string) (Ambassador, error) {
	query, args, err := psql.Select(ambassadorColumns...).From("ambassadors").Where(sq.Eq{"email": email}).Limit(1).ToSql()
	if err != nil {
		return Ambassador{}, err
	}
	var a Ambassador
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.Campus, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ambassador{}, ErrNotFound
		}
		return Ambassador{}, mapError(err, "find ambassador")
	}
	return a, nil
}

// InsertAmbassador writes a new ambassador. The email column carries a unique
// constraint, so a concurrent duplicate surfaces as ErrDuplicate.
func (r *Repository) InsertAmbassador(ctx context.Context, a Ambassador) error {
	query, args, err := psql.Insert("ambassadors").Columns(ambassadorColumns...).
		Values(a.ID, a.Name, a.Email, a.Password, a.Campus, a.CreatedAt).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, "insert ambassador")
}

// FindAdminByEmail returns the admin with the given email.
func (r *Repository) FindAdminByEmail(ctx context.Context, email string) (Admin, error) {
	query, args, err := psql.Select(adminColumns...).From("admins").Where(sq.Eq{"email": email}).Limit(1).ToSql()
	if err != nil {
		return Admin{}, err
	}
	var a Admin
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.Email, &a.Password, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Admin{}, ErrNotFound
		}
		return Admin{}, mapError(err, "find admin")
	}
	return a, nil
}

// InsertAdmin writes a new admin.
func (r *Repository) InsertAdmin(ctx context.Context, a Admin) error {
	query, args, err := psql.Insert("admins").Columns(adminColumns...).
		Values(a.ID, a.Email, a.Password, a.CreatedAt).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, "insert admin")
}

// GetEvent returns a single event by id.
func (r *Repository) GetEvent(ctx context.Context, id string) (Event, error) {
	query, args, err := psql.Select(eventColumns...).From("events").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Event{}, err
	}
	evt, err := scanEvent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, mapError(err, "get event")
	}
	return evt, nil
}

// ListEvents returns all events, newest first.
func (r *Repository) ListEvents(ctx context.Context) ([]Event, error) {
	return r.listEvents(ctx, psql.Select(eventColumns...).From("events"))
}

// ListEventsForAmbassador returns the events whose ambassador list contains id,
// newest first.
func (r *Repository) ListEventsForAmbassador(ctx context.Context, ambassadorID string) ([]Event, error) {
	return r.listEvents(ctx, eventsForAmbassador(ambassadorID))
}

// eventsForAmbassador filters with array containment so the GIN index on
// ambassador_ids applies.
func eventsForAmbassador(ambassadorID string) sq.SelectBuilder {
	return psql.Select(eventColumns...).From("events").Where("ambassador_ids @> ARRAY[?]::text[]", ambassadorID)
}

func (r *Repository) listEvents(ctx context.Context, b sq.SelectBuilder) ([]Event, error) {
	query, args, err := b.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list events")
	}
	defer rows.Close()

	res := []Event{}
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// InsertEvent writes a new event.
func (r *Repository) InsertEvent(ctx context.Context, e Event) error {
	query, args, err := psql.Insert("events").Columns(eventColumns...).
		Values(e.ID, e.Title, e.Campus, e.Date, e.TotalAudience, pq.Array(e.AmbassadorIDs), e.QRCode, e.CreatedAt).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, "insert event")
}

// InsertSubmission writes a new submission. The event id is not checked.
func (r *Repository) InsertSubmission(ctx context.Context, s Submission) error {
	query, args, err := psql.Insert("submissions").Columns(submissionColumns...).
		Values(s.ID, s.EventID, s.Email, s.Campus, s.BlobPath, s.ScreenshotName, s.UploadedAt).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, "insert submission")
}

// ListSubmissions returns submissions newest first, optionally only those for
// eventID.
func (r *Repository) ListSubmissions(ctx context.Context, eventID string) ([]Submission, error) {
	b := psql.Select(submissionColumns...).From("submissions")
	if eventID != "" {
		b = b.Where(sq.Eq{"event_id": eventID})
	}
	query, args, err := b.OrderBy("uploaded_at DESC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list submissions")
	}
	defer rows.Close()

	res := []Submission{}
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.EventID, &s.Email, &s.Campus, &s.BlobPath, &s.ScreenshotName, &s.UploadedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Campus, &e.Date, &e.TotalAudience, pq.Array(&e.AmbassadorIDs), &e.QRCode, &e.CreatedAt)
	return e, err
}
