package engagement

import (
	"context"
	"errors"
	"fmt"

	"campusreach/internal/auth"
	"campusreach/internal/metrics"
	"campusreach/internal/records"
)

// LoginInput is the body of a login request. Any role other than "admin"
// authenticates against the ambassador accounts.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// LoginResult carries the bearer token and the public view of the user.
type LoginResult struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// AdminUser is the user body returned to an admin.
type AdminUser struct {
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// AmbassadorUser is the ambassador record plus its role. The password hash is
// never serialized.
type AmbassadorUser struct {
	records.Ambassador
	Role auth.Role `json:"role"`
}

// Login checks the credentials and issues an 8 hour token.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := s.valid(in, MsgCredentialsRequired); err != nil {
		return LoginResult{}, err
	}

	role := auth.LoginRole(in.Role)
	res, err := s.login(ctx, role, in)
	result := "ok"
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		result = "rejected"
	case err != nil:
		result = "error"
	}
	metrics.LoginsTotal.WithLabelValues(string(role), result).Inc()
	return res, err
}

func (s *Service) login(ctx context.Context, role auth.Role, in LoginInput) (LoginResult, error) {
	if role == auth.RoleAdmin {
		admin, err := s.store.FindAdminByEmail(ctx, in.Email)
		if err != nil {
			return LoginResult{}, credentialsError(err)
		}
		if !auth.CheckPassword(admin.Password, in.Password) {
			return LoginResult{}, newError(ErrInvalidCredentials, MsgInvalidCredentials)
		}
		token, _, err := s.tokens.Issue(auth.Identity{ID: admin.ID, Email: admin.Email, Role: auth.RoleAdmin})
		if err != nil {
			return LoginResult{}, fmt.Errorf("issue admin token: %w", err)
		}
		return LoginResult{Token: token, User: AdminUser{Email: admin.Email, Role: auth.RoleAdmin}}, nil
	}

	amb, err := s.store.FindAmbassadorByEmail(ctx, in.Email)
	if err != nil {
		return LoginResult{}, credentialsError(err)
	}
	if !auth.CheckPassword(amb.Password, in.Password) {
		return LoginResult{}, newError(ErrInvalidCredentials, MsgInvalidCredentials)
	}
	token, _, err := s.tokens.Issue(auth.Identity{
		ID:     amb.ID,
		Email:  amb.Email,
		Role:   auth.RoleAmbassador,
		Campus: amb.Campus,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue ambassador token: %w", err)
	}
	amb.Password = ""
	return LoginResult{Token: token, User: AmbassadorUser{Ambassador: amb, Role: auth.RoleAmbassador}}, nil
}

func credentialsError(err error) error {
	if errors.Is(err, records.ErrNotFound) {
		return newError(ErrInvalidCredentials, MsgInvalidCredentials)
	}
	return fmt.Errorf("lookup account: %w", err)
}
