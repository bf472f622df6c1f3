package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
)

type memRepo struct {
	users map[string]*User
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*User{}} }

func (m *memRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrAlreadyExist
		}
	}
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) List(context.Context, int, int) ([]User, error) {
	out := []User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, u *User, updatePassword bool) error {
	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if updatePassword {
		now := time.Now()
		cur.PasswordHash = u.PasswordHash
		cur.PasswordChangedAt = &now
		return nil
	}
	if u.Name != "" {
		cur.Name = u.Name
	}
	if u.Email != "" {
		cur.Email = u.Email
	}
	if u.SellerInfo != nil {
		cur.SellerInfo = u.SellerInfo
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.users[id]
	delete(m.users, id)
	return ok, nil
}

func fullSeller() *SellerInfo {
	return &SellerInfo{
		BusinessName:      "Acme",
		BusinessAddress:   "1 Main St",
		BusinessType:      "retail",
		TaxIDNumber:       "12-345",
		BankAccountNumber: "000123",
		BankName:          "First Bank",
		AccountHolderName: "Acme LLC",
		BranchCode:        "001",
	}
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Ana", Email: " Ana@Example.com ", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
	assert.True(t, CheckPassword(u.PasswordHash, "s3cret-pass"))
	assert.Nil(t, u.SellerInfo)

	_, err = svc.Create(context.Background(), CreateUserRequest{Name: "Ana", Email: "ana@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateSellerRequiresEveryField(t *testing.T) {
	svc := NewService(newMemRepo())

	seller := fullSeller()
	seller.BankName = ""
	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Bo", Email: "bo@example.com", Password: "s3cret-pass", Role: RoleSeller, SellerInfo: seller,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Missing required seller field: bankName", err.Error())

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Name: "Bo", Email: "bo@example.com", Password: "s3cret-pass", Role: RoleSeller,
	})
	assert.EqualError(t, err, "Missing required seller field: businessName")

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Bo", Email: "bo@example.com", Password: "s3cret-pass", Role: RoleSeller, SellerInfo: fullSeller(),
	})
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, u.Role)
	assert.Equal(t, "Acme", u.SellerInfo.BusinessName)
}

func TestChangePassword(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	u, err := svc.Create(context.Background(), CreateUserRequest{Name: "Ana", Email: "ana@example.com", Password: "old-password"})
	require.NoError(t, err)

	_, err = svc.ChangePassword(context.Background(), u.ID, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-password"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	got, err := svc.ChangePassword(context.Background(), u.ID, ChangePasswordRequest{CurrentPassword: "old-password", NewPassword: "new-password"})
	require.NoError(t, err)
	assert.NotNil(t, got.PasswordChangedAt)
	assert.True(t, CheckPassword(got.PasswordHash, "new-password"))

	_, err = svc.ChangePassword(context.Background(), "missing", ChangePasswordRequest{CurrentPassword: "a", NewPassword: "b"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	u, err := svc.Create(context.Background(), CreateUserRequest{Name: "Ana", Email: "ana@example.com", Password: "old-password"})
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), u.ID, UpdateUserRequest{Name: "Ana María", SellerInfo: fullSeller()})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.Name)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Nil(t, got.SellerInfo, "plain users do not carry seller info")

	require.NoError(t, svc.Delete(context.Background(), u.ID))
	err = svc.Delete(context.Background(), u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User was not found", err.Error())
}
