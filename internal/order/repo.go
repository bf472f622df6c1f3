package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-ecom/internal/cart"
	"github.com/MikeMC777/ordenes-ecom/internal/outbox"
	"github.com/MikeMC777/ordenes-ecom/internal/product"
	"github.com/MikeMC777/ordenes-ecom/internal/store"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	LatestByUser(ctx context.Context, userID string) (*Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
	// InTx runs fn in one transaction; any error rolls everything back.
	InTx(ctx context.Context, fn func(TxRepository) error) error
}

// TxRepository is the confirmation unit of work.
type TxRepository interface {
	LockByGatewayID(ctx context.Context, gatewayOrderID string) (*Order, error)
	MarkPaid(ctx context.Context, o *Order) error
	ApplySale(ctx context.Context, lines []product.SaleLine) ([]product.StockLevel, error)
	DeleteCartsByUser(ctx context.Context, userID string) (int64, error)
	Enqueue(ctx context.Context, e outbox.Event) error
}

type PGRepo struct{ pool *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{pool: pool} }

const selectOrder = `
	SELECT id::text, user_id::text, cart_id::text, items, total_price::text, shipping_address,
	       payment_method, gateway_order_id, status, is_paid, paid_at, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o             Order
		items, addr   []byte
		total, status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.CartID, &items, &total, &addr,
		&o.PaymentMethod, &o.GatewayOrderID, &status, &o.IsPaid, &o.PaidAt,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", o.ID, err)
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("order %s address: %w", o.ID, err)
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("order %s total: %w", o.ID, err)
	}
	o.TotalPrice = d
	return &o, nil
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, cart_id, items, total_price, shipping_address,
		                    payment_method, gateway_order_id, status, is_paid, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE,NOW(),NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.CartID, items, o.TotalPrice.String(), addr,
		o.PaymentMethod, o.GatewayOrderID, string(o.Status)).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *PGRepo) LatestByUser(ctx context.Context, userID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+`
		WHERE user_id::text = $1 ORDER BY created_at DESC LIMIT 1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	orders := []Order{*o}
	if err := r.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, selectOrder+`
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachProducts(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachProducts resolves every referenced product with one query.
func (r *PGRepo) attachProducts(ctx context.Context, orders []Order) error {
	seen := map[string]bool{}
	var ids []string
	for _, o := range orders {
		for _, it := range o.Items {
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				ids = append(ids, it.ProductID)
			}
		}
	}
	refs, err := product.NewPGRepo(r.pool).Refs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range orders {
		for j := range orders[i].Items {
			if ref, ok := refs[orders[i].Items[j].ProductID]; ok {
				orders[i].Items[j].Product = &ref
			}
		}
	}
	return nil
}

func (r *PGRepo) InTx(ctx context.Context, fn func(TxRepository) error) error {
	return store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{
			tx:       tx,
			products: product.NewPGRepo(tx),
			carts:    cart.NewPGRepo(tx),
			events:   outbox.NewWriter(tx),
		})
	})
}

type pgTx struct {
	tx       pgx.Tx
	products *product.PGRepo
	carts    *cart.PGRepo
	events   *outbox.Writer
}

func (t *pgTx) LockByGatewayID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, selectOrder+`
		WHERE gateway_order_id = $1 FOR UPDATE
	`, gatewayOrderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (t *pgTx) MarkPaid(ctx context.Context, o *Order) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, is_paid = TRUE, paid_at = $3, updated_at = NOW()
		WHERE id::text = $1 AND is_paid = FALSE
	`, o.ID, string(o.Status), o.PaidAt)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) ApplySale(ctx context.Context, lines []product.SaleLine) ([]product.StockLevel, error) {
	return t.products.ApplySale(ctx, lines)
}

func (t *pgTx) DeleteCartsByUser(ctx context.Context, userID string) (int64, error) {
	return t.carts.DeleteByUser(ctx, userID)
}

func (t *pgTx) Enqueue(ctx context.Context, e outbox.Event) error {
	return t.events.Enqueue(ctx, e)
}
