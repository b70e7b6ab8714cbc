// Package records holds the persisted entities and the stores that keep them.
// Every collection is append-only: records are inserted and read, never updated
// or deleted.
package records

import "slices"

// Ambassador is a campus ambassador account. Password holds the bcrypt hash and
// is never serialized.
type Ambassador struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	Campus    string `json:"campus"`
	CreatedAt int64  `json:"createdAt"`
}

// Admin is an administrator account. Admins are seeded by an operator.
type Admin struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	CreatedAt int64  `json:"createdAt"`
}

// Event is a presentation logged by one or more ambassadors.
type Event struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Campus        string   `json:"campus"`
	Date          string   `json:"date"`
	TotalAudience int      `json:"totalAudience"`
	AmbassadorIDs []string `json:"ambassadorIds"`
	QRCode        string   `json:"qrCode"`
	CreatedAt     int64    `json:"createdAt"`
}

// HasAmbassador reports whether id is listed on the event.
func (e Event) HasAmbassador(id string) bool {
	return slices.Contains(e.AmbassadorIDs, id)
}

// Public strips everything the anonymous QR landing page must not see.
func (e Event) Public() PublicEvent {
	return PublicEvent{ID: e.ID, Title: e.Title, Campus: e.Campus, Date: e.Date}
}

// PublicEvent is the anonymous view of an event.
type PublicEvent struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Campus string `json:"campus"`
	Date   string `json:"date"`
}

// Submission is an audience member's screenshot proof. BlobPath is a vault
// handle, never a URL.
type Submission struct {
	ID             string `json:"id"`
	EventID        string `json:"eventId"`
	Email          string `json:"email"`
	Campus         string `json:"campus"`
	BlobPath       string `json:"blobPath"`
	ScreenshotName string `json:"screenshotName"`
	UploadedAt     int64  `json:"uploadedAt"`
}
