package engagement

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"

	"campusreach/internal/metrics"
	"campusreach/internal/queue"
	"campusreach/internal/records"
	"campusreach/internal/vault"
)

// SubmissionInput is the body of an anonymous proof submission. EventID is
// not checked against the event collection.
type SubmissionInput struct {
	EventID        string `json:"eventId" validate:"required"`
	Email          string `json:"email" validate:"required"`
	Campus         string `json:"campus" validate:"required"`
	BlobPath       string `json:"blobPath" validate:"required"`
	ScreenshotName string `json:"screenshotName"`
}

// CreateSubmission records an audience member's screenshot proof.
func (s *Service) CreateSubmission(ctx context.Context, in SubmissionInput) (records.Submission, error) {
	if err := s.valid(in, MsgMissingFields); err != nil {
		return records.Submission{}, err
	}

	sub := records.Submission{
		ID:             uuid.NewString(),
		EventID:        in.EventID,
		Email:          in.Email,
		Campus:         in.Campus,
		BlobPath:       in.BlobPath,
		ScreenshotName: in.ScreenshotName,
		UploadedAt:     s.now().UnixMilli(),
	}
	if err := s.store.InsertSubmission(ctx, sub); err != nil {
		return records.Submission{}, err
	}

	s.publish(ctx, queue.TypeSubmissionCreated, sub.ID)
	return sub, nil
}

// ListSubmissions returns submissions newest first, optionally for one event.
func (s *Service) ListSubmissions(ctx context.Context, eventID string) ([]records.Submission, error) {
	return s.store.ListSubmissions(ctx, eventID)
}

// UploadInput is the body of a screenshot upload.
type UploadInput struct {
	FileName string `json:"fileName" validate:"required"`
	FileData string `json:"fileData" validate:"required"`
	MimeType string `json:"mimeType"`
}

// UploadResult is returned once after upload. SASURL is short-lived; BlobPath
// is what the client stores on its submission.
type UploadResult struct {
	SASURL   string `json:"sasUrl"`
	BlobPath string `json:"blobPath"`
	FileName string `json:"fileName"`
}

// Upload decodes a base64 screenshot and stores it in the private vault.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if err := s.valid(in, MsgUploadFieldsRequired); err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return UploadResult{}, err
	}

	data, err := decodeBase64(in.FileData)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return UploadResult{}, newError(ErrValidation, MsgInvalidFileData)
	}

	up, err := s.blobs.Upload(ctx, in.FileName, data, in.MimeType)
	switch {
	case errors.Is(err, vault.ErrTooLarge):
		metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		return UploadResult{}, err
	case errors.Is(err, vault.ErrEmpty):
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return UploadResult{}, newError(ErrValidation, MsgUploadFieldsRequired)
	case err != nil:
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return UploadResult{}, err
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	metrics.UploadBytes.Observe(float64(len(data)))
	metrics.SignedURLsTotal.WithLabelValues("upload").Inc()
	return UploadResult{SASURL: up.URL, BlobPath: up.Handle, FileName: up.Handle}, nil
}

// decodeBase64 accepts padded or unpadded standard base64 with an optional
// data URL prefix.
func decodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// ViewScreenshot mints a fresh 30 minute URL for a stored screenshot.
func (s *Service) ViewScreenshot(ctx context.Context, blobPath string) (string, error) {
	if strings.TrimSpace(blobPath) == "" {
		return "", newError(ErrValidation, MsgBlobPathRequired)
	}
	url, err := s.blobs.ViewURL(ctx, blobPath)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidHandle) {
			return "", newError(ErrValidation, MsgBlobPathRequired)
		}
		return "", err
	}
	metrics.SignedURLsTotal.WithLabelValues("view").Inc()
	return url, nil
}
