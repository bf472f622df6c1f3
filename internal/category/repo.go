// Package category stores catalog categories and their subcategories.
package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
	"github.com/MikeMC777/ordenes-ecom/internal/store"
)

var (
	ErrNotFound      = fmt.Errorf("category %w", apperr.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("category name %w", apperr.ErrConflict)
)

type Repository interface {
	Create(ctx context.Context, c *Category) error
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) (bool, error)
	CreateSubcategory(ctx context.Context, s *Subcategory) error
	ListSubcategories(ctx context.Context, categoryID string) ([]Subcategory, error)
}

type PGRepo struct{ db store.DBTX }

func NewPGRepo(db store.DBTX) *PGRepo { return &PGRepo{db: db} }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (r *PGRepo) Create(ctx context.Context, c *Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (id, name, slug, image, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Slug, c.Image).Scan(&c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *PGRepo) List(ctx context.Context) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, slug, image, created_at, updated_at
		FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Category])
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Category
	err := r.db.QueryRow(ctx, `
		SELECT id::text, name, slug, image, created_at, updated_at
		FROM categories WHERE id::text = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) Update(ctx context.Context, c *Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, slug = $3, image = COALESCE(NULLIF($4,''), image), updated_at = NOW()
		WHERE id::text = $1
		RETURNING image, created_at, updated_at
	`, c.ID, c.Name, c.Slug, c.Image).Scan(&c.Image, &c.CreatedAt, &c.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrAlreadyExists
	}
	return err
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id::text=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) CreateSubcategory(ctx context.Context, s *Subcategory) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO subcategories (id, category_id, name, slug, created_at)
		VALUES ($1,$2,$3,$4,NOW())
		RETURNING created_at
	`, s.ID, s.CategoryID, s.Name, s.Slug).Scan(&s.CreatedAt)
	switch {
	case isForeignKeyViolation(err):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("subcategory name %w", apperr.ErrConflict)
	}
	return err
}

func (r *PGRepo) ListSubcategories(ctx context.Context, categoryID string) ([]Subcategory, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id::text, category_id::text, name, slug, created_at
		FROM subcategories WHERE category_id::text = $1 ORDER BY name
	`, categoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Subcategory])
}
