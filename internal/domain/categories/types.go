package categories

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Description  *string          `json:"description,omitempty"`
	IsActive     bool             `json:"is_active"`
	ParentID     *uuid.UUID       `json:"parent_id,omitempty"`
	Images       []string         `json:"images,omitempty"`
	Products     []ProductSummary `json:"products,omitempty"`
	ProductCount *int             `json:"product_count,omitempty"`
	Children     []*Category      `json:"children,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ProductSummary is the slice of a product shown under its category.
type ProductSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	SKU      string    `json:"sku"`
	IsActive bool      `json:"is_active"`
}

// Include selects which relations are loaded alongside categories.
type Include struct {
	Images       bool
	Products     bool
	ProductCount bool
}

type ListOptions struct {
	Query        string
	Limit        int
	Offset       int
	OnlyRoot     bool
	OnlyChildren bool
	ExcludeID    *uuid.UUID
	Include      Include
}

type CreateInput struct {
	Name        string     `json:"name" validate:"required,normalized"`
	Slug        string     `json:"slug" validate:"required,slug"`
	Description *string    `json:"description,omitempty" validate:"omitempty,normalized"`
	IsActive    bool       `json:"is_active"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateInput carries a partial update; nil fields keep their value.
// ClearParent turns the category into a root category.
type UpdateInput struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,normalized"`
	Slug        *string    `json:"slug,omitempty" validate:"omitempty,slug"`
	Description *string    `json:"description,omitempty" validate:"omitempty,len=0|normalized"`
	IsActive    *bool      `json:"is_active,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	ClearParent bool       `json:"-"`
	Images      []string   `json:"images,omitempty"`
}

// Patch is the resolved column set written by Store.Update.
type Patch struct {
	Name        string
	Slug        string
	Description *string
	IsActive    bool
	ParentID    *uuid.UUID
}
