package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
	"github.com/MikeMC777/ordenes-ecom/internal/store"
)

var (
	ErrNotFound     = fmt.Errorf("User was %w", apperr.ErrNotFound)
	ErrAlreadyExist = fmt.Errorf("%w: email already registered", apperr.ErrConflict)
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	Update(ctx context.Context, u *User, updatePassword bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db store.DBTX }

func NewPGRepo(db store.DBTX) *PGRepo { return &PGRepo{db: db} }

const selectUser = `
	SELECT id::text, name, email, password_hash, role, seller_info, password_changed_at, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*User, error) {
	var (
		u      User
		seller []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &seller,
		&u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if len(seller) > 0 {
		if err := json.Unmarshal(seller, &u.SellerInfo); err != nil {
			return nil, fmt.Errorf("user %s seller info: %w", u.ID, err)
		}
	}
	return &u, nil
}

func sellerJSON(s *SellerInfo) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (r *PGRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	seller, err := sellerJSON(u.SellerInfo)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, seller_info, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, seller).Scan(&u.CreatedAt, &u.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExist
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, selectUser+` WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, selectUser+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, u *User, updatePassword bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	seller, err := sellerJSON(u.SellerInfo)
	if err != nil {
		return err
	}

	var tag pgconn.CommandTag
	if updatePassword {
		tag, err = r.db.Exec(ctx, `
			UPDATE users
			SET password_hash = $2,
			    password_changed_at = NOW(),
			    updated_at = NOW()
			WHERE id::text = $1
		`, u.ID, u.PasswordHash)
	} else {
		tag, err = r.db.Exec(ctx, `
			UPDATE users
			SET name        = COALESCE(NULLIF($2, ''), name),
			    email       = COALESCE(NULLIF($3, ''), email),
			    seller_info = COALESCE($4::jsonb, seller_info),
			    updated_at  = NOW()
			WHERE id::text = $1
		`, u.ID, u.Name, u.Email, seller)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExist
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id::text=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
