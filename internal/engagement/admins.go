package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campusreach/internal/auth"
	"campusreach/internal/records"
)

// AdminInput seeds an administrator account.
type AdminInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// EnsureAdmin creates the admin unless one with the same email exists. It
// reports whether an account was created. Existing passwords are left alone.
func (s *Service) EnsureAdmin(ctx context.Context, in AdminInput) (bool, error) {
	if err := s.validate.Struct(in); err != nil {
		return false, newError(ErrValidation, "admin email must be valid and password at least 8 characters")
	}

	_, err := s.store.FindAdminByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, records.ErrNotFound):
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return false, err
	}
	admin := records.Admin{ID: uuid.NewString(), Email: in.Email, Password: hash, CreatedAt: s.now().UnixMilli()}
	if err := s.store.InsertAdmin(ctx, admin); err != nil {
		if errors.Is(err, records.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
