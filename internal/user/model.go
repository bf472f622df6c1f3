package user

import (
	"time"
)

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type User struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	PasswordHash      string      `json:"-"`
	Role              string      `json:"role"`
	SellerInfo        *SellerInfo `json:"sellerInfo,omitempty"`
	PasswordChangedAt *time.Time  `json:"passwordChangedAt,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// SellerInfo is required for sellers and ignored for everyone else.
type SellerInfo struct {
	BusinessName      string `json:"businessName"`
	BusinessAddress   string `json:"businessAddress"`
	BusinessType      string `json:"businessType"`
	TaxIDNumber       string `json:"taxIdNumber"`
	BankAccountNumber string `json:"bankAccountNumber"`
	BankName          string `json:"bankName"`
	AccountHolderName string `json:"accountHolderName"`
	BranchCode        string `json:"branchCode"`
}

// CreateUserRequest payload of sign-up.
// swagger:model CreateUserRequest
type CreateUserRequest struct {
	Name       string      `json:"name"       binding:"required,min=2"`
	Email      string      `json:"email"      binding:"required,email"`
	Password   string      `json:"password"   binding:"required,min=8"`
	Role       string      `json:"role"       binding:"omitempty,oneof=user seller"`
	SellerInfo *SellerInfo `json:"sellerInfo"`
}

// UpdateUserRequest payload of profile update. Empty fields are kept.
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	Name       string      `json:"name"  binding:"omitempty,min=2"`
	Email      string      `json:"email" binding:"omitempty,email"`
	SellerInfo *SellerInfo `json:"sellerInfo"`
}

// ChangePasswordRequest payload of PATCH /users/{id}/password.
// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"     binding:"required,min=8,nefield=CurrentPassword"`
}
