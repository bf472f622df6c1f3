// Package user manages customer and seller accounts.
package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
)

// FieldError is a missing seller field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string { return "Missing required seller field: " + e.Field }

func (e *FieldError) Is(target error) bool { return target == apperr.ErrValidation }

type wrongPasswordError struct{}

func (wrongPasswordError) Error() string { return "current password is incorrect" }

func (wrongPasswordError) Is(target error) bool { return target == apperr.ErrUnauthorized }

// ErrWrongPassword is returned when the current password does not match.
var ErrWrongPassword error = wrongPasswordError{}

// ValidateSeller checks the seller fields in the order sellers fill them in.
func ValidateSeller(s *SellerInfo) error {
	if s == nil {
		return &FieldError{Field: "businessName"}
	}
	fields := []struct {
		name, value string
	}{
		{"businessName", s.BusinessName},
		{"businessAddress", s.BusinessAddress},
		{"businessType", s.BusinessType},
		{"taxIdNumber", s.TaxIDNumber},
		{"bankAccountNumber", s.BankAccountNumber},
		{"bankName", s.BankName},
		{"accountHolderName", s.AccountHolderName},
		{"branchCode", s.BranchCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.name}
		}
	}
	return nil
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in CreateUserRequest) (*User, error) {
	role := in.Role
	if role == "" {
		role = RoleUser
	}
	if role == RoleSeller {
		if err := ValidateSeller(in.SellerInfo); err != nil {
			return nil, err
		}
	} else {
		in.SellerInfo = nil
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         role,
		SellerInfo:   in.SellerInfo,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update changes profile fields and returns the stored user.
func (s *Service) Update(ctx context.Context, id string, in UpdateUserRequest) (*User, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.SellerInfo != nil {
		if cur.Role != RoleSeller {
			in.SellerInfo = nil
		} else if err := ValidateSeller(in.SellerInfo); err != nil {
			return nil, err
		}
	}
	u := &User{
		ID:         id,
		Name:       in.Name,
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		SellerInfo: in.SellerInfo,
	}
	if err := s.repo.Update(ctx, u, false); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, id string, in ChangePasswordRequest) (*User, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(cur.PasswordHash, in.CurrentPassword) {
		return nil, ErrWrongPassword
	}
	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &User{ID: id, PasswordHash: hash}, true); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
