package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campusreach/internal/auth"
	"campusreach/internal/queue"
	"campusreach/internal/records"
)

// AmbassadorInput is the body of a create-ambassador request.
type AmbassadorInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Campus   string `json:"campus" validate:"required"`
}

// ListAmbassadors returns every ambassador ordered by name.
func (s *Service) ListAmbassadors(ctx context.Context) ([]records.Ambassador, error) {
	list, err := s.store.ListAmbassadors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Password = ""
	}
	return list, nil
}

// CreateAmbassador registers a new ambassador. Emails are compared exactly.
func (s *Service) CreateAmbassador(ctx context.Context, in AmbassadorInput) (records.Ambassador, error) {
	if err := s.valid(in, MsgAmbassadorFieldsRequired); err != nil {
		return records.Ambassador{}, err
	}

	_, err := s.store.FindAmbassadorByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return records.Ambassador{}, newError(ErrConflict, MsgAmbassadorExists)
	case !errors.Is(err, records.ErrNotFound):
		return records.Ambassador{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return records.Ambassador{}, err
	}
	amb := records.Ambassador{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Campus:    in.Campus,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.store.InsertAmbassador(ctx, amb); err != nil {
		if errors.Is(err, records.ErrDuplicate) {
			return records.Ambassador{}, newError(ErrConflict, MsgAmbassadorExists)
		}
		return records.Ambassador{}, err
	}

	s.publish(ctx, queue.TypeAmbassadorCreated, amb.ID)
	amb.Password = ""
	return amb, nil
}
