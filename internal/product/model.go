package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Sold        int             `json:"sold"`
	CategoryID  string          `json:"category_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Ref is the slim projection joined into order line items.
type Ref struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// SaleLine is one product quantity leaving stock.
type SaleLine struct {
	ProductID string
	Quantity  int
}

// StockLevel is the stock left after a sale. Missing means the product row no
// longer exists.
type StockLevel struct {
	ProductID string
	Quantity  int
	Missing   bool
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Message string `json:"message"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	Q      string    `json:"q,omitempty"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Items  []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Title       string `json:"title"       binding:"required" example:"Mechanical Keyboard"`
	Description string `json:"description" example:"RGB 60%"`
	Price       string `json:"price"       binding:"required" example:"199.90"`
	Quantity    int    `json:"quantity"    binding:"gte=0"    example:"10"`
	CategoryID  string `json:"category_id" binding:"omitempty,uuid"`
}

// UpdateProductRequest payload of partial update. Omitted price keeps the stored one.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    *int   `json:"quantity" binding:"omitempty,gte=0"`
}
