package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-ecom/internal/store"
)

var (
	ErrNotFound = errors.New("cart not found")
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Cart, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type PGRepo struct{ db store.DBTX }

func NewPGRepo(db store.DBTX) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		c          Cart
		total      string
		discounted *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id::text, user_id::text, total_price::text, total_price_after_discount::text,
		       created_at, updated_at
		FROM carts WHERE id::text = $1
	`, id).Scan(&c.ID, &c.UserID, &total, &discounted, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if c.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("cart %s total: %w", c.ID, err)
	}
	if discounted != nil {
		d, err := decimal.NewFromString(*discounted)
		if err != nil {
			return nil, fmt.Errorf("cart %s discounted total: %w", c.ID, err)
		}
		c.TotalPriceAfterDiscount = &d
	}

	// Titles come from the catalog; a product deleted since it was added keeps an empty title.
	rows, err := r.db.Query(ctx, `
		SELECT ci.product_id::text, COALESCE(p.title, ''), ci.quantity, ci.price::text
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id::text = $1
		ORDER BY ci.position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	defer rows.Close()

	c.Items = []Item{}
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ProductID, &it.Title, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("cart item %s price: %w", it.ProductID, err)
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

// DeleteByUser removes every cart of the user. Zero rows is not an error.
func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id::text = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
