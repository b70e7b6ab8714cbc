package records

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Memory is an in-process record store for development and tests. It honours
// the same ordering and uniqueness rules as Repository.
type Memory struct {
	mu          sync.RWMutex
	ambassadors []Ambassador
	admins      []Admin
	events      []Event
	submissions []Submission
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) ListAmbassadors(context.Context) ([]Ambassador, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.ambassadors)
	slices.SortStableFunc(out, func(a, b Ambassador) int { return cmp.Compare(a.Name, b.Name) })
	if out == nil {
		out = []Ambassador{}
	}
	return out, nil
}

func (m *Memory) FindAmbassadorByEmail(_ context.Context, email string) (Ambassador, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.ambassadors {
		if a.Email == email {
			return a, nil
		}
	}
	return Ambassador{}, ErrNotFound
}

func (m *Memory) InsertAmbassador(_ context.Context, a Ambassador) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ambassadors {
		if existing.ID == a.ID || existing.Email == a.Email {
			return ErrDuplicate
		}
	}
	m.ambassadors = append(m.ambassadors, a)
	return nil
}

func (m *Memory) FindAdminByEmail(_ context.Context, email string) (Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return Admin{}, ErrNotFound
}

func (m *Memory) InsertAdmin(_ context.Context, a Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.admins {
		if existing.ID == a.ID || existing.Email == a.Email {
			return ErrDuplicate
		}
	}
	m.admins = append(m.admins, a)
	return nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.events {
		if e.ID == id {
			return cloneEvent(e), nil
		}
	}
	return Event{}, ErrNotFound
}

func (m *Memory) ListEvents(context.Context) ([]Event, error) {
	return m.filterEvents(func(Event) bool { return true }), nil
}

func (m *Memory) ListEventsForAmbassador(_ context.Context, ambassadorID string) ([]Event, error) {
	return m.filterEvents(func(e Event) bool { return e.HasAmbassador(ambassadorID) }), nil
}

func (m *Memory) filterEvents(keep func(Event) bool) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Event{}
	for _, e := range m.events {
		if keep(e) {
			out = append(out, cloneEvent(e))
		}
	}
	slices.SortStableFunc(out, func(a, b Event) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) })
	return out
}

func (m *Memory) InsertEvent(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.events {
		if existing.ID == e.ID {
			return ErrDuplicate
		}
	}
	m.events = append(m.events, cloneEvent(e))
	return nil
}

func (m *Memory) InsertSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.submissions {
		if existing.ID == s.ID {
			return ErrDuplicate
		}
	}
	m.submissions = append(m.submissions, s)
	return nil
}

func (m *Memory) ListSubmissions(_ context.Context, eventID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Submission{}
	for _, s := range m.submissions {
		if eventID == "" || s.EventID == eventID {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b Submission) int { return cmp.Compare(b.UploadedAt, a.UploadedAt) })
	return out, nil
}

func cloneEvent(e Event) Event {
	e.AmbassadorIDs = slices.Clone(e.AmbassadorIDs)
	return e
}
