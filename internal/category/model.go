package category

import (
	"strings"
	"time"
	"unicode"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Subcategory struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	CreatedAt  time.Time `json:"created_at"`
}

// CategoryRequest payload of create and update.
// swagger:model CategoryRequest
type CategoryRequest struct {
	Name  string `json:"name"  binding:"required,min=2,max=64" example:"Keyboards"`
	Image string `json:"image" binding:"omitempty,url"`
}

// SubcategoryRequest payload of subcategory creation.
// swagger:model SubcategoryRequest
type SubcategoryRequest struct {
	Name string `json:"name" binding:"required,min=2,max=64" example:"Mechanical"`
}

// Slugify lowercases name and joins its letter and digit runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
