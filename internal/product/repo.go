// Package product provides the repository interface and PostgreSQL implementation for managing products.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-ecom/internal/apperr"
	"github.com/MikeMC777/ordenes-ecom/internal/store"
)

var (
	ErrNotFound = fmt.Errorf("product %w", apperr.ErrNotFound)
)

type Query struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	Update(ctx context.Context, p *Product, updatePrice bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db store.DBTX }

// NewPGRepo accepts a pool or a transaction.
func NewPGRepo(db store.DBTX) *PGRepo { return &PGRepo{db: db} }

const selectProduct = `
	SELECT id::text, title, description, price::text, quantity, sold,
	       COALESCE(category_id::text, ''), created_at, updated_at
	FROM products`

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &price, &p.Quantity, &p.Sold,
		&p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %s price: %w", p.ID, err)
	}
	p.Price = d
	return &p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO products (id, title, description, price, quantity, sold, category_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,0,$6,NOW(),NOW())
		RETURNING created_at, updated_at
	`, p.ID, p.Title, p.Description, p.Price.String(), p.Quantity, nullable(p.CategoryID)).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, selectProduct+` WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, selectProduct+`
		WHERE ($1 = '' OR title ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p *Product, updatePrice bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var price any
	if updatePrice {
		price = p.Price.String()
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET title = COALESCE(NULLIF($2,''), title),
		    description = COALESCE(NULLIF($3,''), description),
		    price = COALESCE($4::numeric, price),
		    quantity = $5,
		    updated_at = NOW()
		WHERE id::text = $1
	`, p.ID, p.Title, p.Description, price, p.Quantity)
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

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id::text=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ApplySale decrements stock and increments sold for every line in one batch.
// Rows that no longer exist come back as Missing instead of failing the batch.
func (r *PGRepo) ApplySale(ctx context.Context, lines []SaleLine) ([]StockLevel, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	b := &pgx.Batch{}
	for _, l := range lines {
		b.Queue(`
			UPDATE products
			SET quantity = quantity - $2, sold = sold + $2, updated_at = NOW()
			WHERE id::text = $1
			RETURNING quantity
		`, l.ProductID, l.Quantity)
	}

	br := r.db.SendBatch(ctx, b)
	levels := make([]StockLevel, 0, len(lines))
	for _, l := range lines {
		lvl := StockLevel{ProductID: l.ProductID}
		err := br.QueryRow().Scan(&lvl.Quantity)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			lvl.Missing = true
		case err != nil:
			_ = br.Close()
			return nil, fmt.Errorf("apply sale to %s: %w", l.ProductID, err)
		}
		levels = append(levels, lvl)
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("close sale batch: %w", err)
	}
	return levels, nil
}

// Refs loads the slim projections for ids, keyed by id. Unknown ids are absent.
func (r *PGRepo) Refs(ctx context.Context, ids []string) (map[string]Ref, error) {
	out := make(map[string]Ref, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id::text, title, price::text FROM products WHERE id::text = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("product refs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ref   Ref
			price string
		)
		if err := rows.Scan(&ref.ID, &ref.Title, &price); err != nil {
			return nil, err
		}
		if ref.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s price: %w", ref.ID, err)
		}
		out[ref.ID] = ref
	}
	return out, rows.Err()
}
