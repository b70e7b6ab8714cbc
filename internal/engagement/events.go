package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"campusreach/internal/auth"
	"campusreach/internal/queue"
	"campusreach/internal/records"
)

// Audience is a head count that accepts either a JSON number or a numeric
// string. Fractions are truncated and unparseable values decode as zero.
type Audience int

// UnmarshalJSON implements json.Unmarshaler.
func (a *Audience) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*a = clampAudience(math.Trunc(t))
	case string:
		*a = Audience(leadingInt(t))
	default:
		*a = 0
	}
	return nil
}

func clampAudience(f float64) Audience {
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return Audience(f)
}

// leadingInt reads an optional sign and the digits that follow it, ignoring
// leading whitespace and anything after the digits.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		if s[0] == '-' {
			return math.MinInt32
		}
		return math.MaxInt32
	}
	return int(n)
}

// EventInput is the body of a create-event request.
type EventInput struct {
	Title         string   `json:"title" validate:"required"`
	Campus        string   `json:"campus" validate:"required"`
	Date          string   `json:"date" validate:"required"`
	TotalAudience Audience `json:"totalAudience" validate:"gte=1"`
	AmbassadorIDs []string `json:"ambassadorIds" validate:"min=1,dive,required"`
}

// ListEvents returns all events for admins and only the events that list the
// caller for ambassadors, newest first.
func (s *Service) ListEvents(ctx context.Context, who auth.Identity) ([]records.Event, error) {
	if who.Role == auth.RoleAdmin {
		return s.store.ListEvents(ctx)
	}
	return s.store.ListEventsForAmbassador(ctx, who.ID)
}

// CreateEvent logs a presentation. The creator is always among the event's
// ambassadors.
func (s *Service) CreateEvent(ctx context.Context, who auth.Identity, in EventInput) (records.Event, error) {
	if err := s.valid(in, MsgMissingFields); err != nil {
		return records.Event{}, err
	}

	evt := records.Event{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Campus:        in.Campus,
		Date:          in.Date,
		TotalAudience: int(in.TotalAudience),
		AmbassadorIDs: withCreator(who.ID, in.AmbassadorIDs),
		QRCode:        ulid.Make().String(),
		CreatedAt:     s.now().UnixMilli(),
	}
	if err := s.store.InsertEvent(ctx, evt); err != nil {
		return records.Event{}, err
	}

	s.publish(ctx, queue.TypeEventCreated, evt.ID)
	return evt, nil
}

// withCreator prepends creator when absent and drops repeated ids, keeping
// first-seen order.
func withCreator(creator string, ids []string) []string {
	out := make([]string, 0, len(ids)+1)
	seen := make(map[string]struct{}, len(ids)+1)
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if !slices.Contains(ids, creator) {
		add(creator)
	}
	for _, id := range ids {
		add(id)
	}
	return out
}

// PublicEvent looks up the anonymous view of an event for the QR landing page.
func (s *Service) PublicEvent(ctx context.Context, id string) (records.PublicEvent, error) {
	if id == "" {
		return records.PublicEvent{}, newError(ErrValidation, MsgEventIDRequired)
	}
	evt, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return records.PublicEvent{}, newError(ErrNotFound, MsgEventNotFound)
		}
		return records.PublicEvent{}, err
	}
	return evt.Public(), nil
}
