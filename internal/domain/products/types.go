package products

import (
	"time"

	"catalog/internal/domain/colors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitCentimeter Unit = "cm"
	UnitInch       Unit = "in"
	UnitMillimeter Unit = "mm"
	UnitMeter      Unit = "m"
)

type Product struct {
	ID          uuid.UUID
	Name        string
	SKU         string
	Slug        string
	Brand       string
	Origin      string
	Description string
	Price       decimal.Decimal
	IsActive    bool
	CategoryID  uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Images     []string
	Features   []Feature
	Dimensions *Dimensions
	Variants   []Variant
}

type Feature struct {
	Name  string
	Value string
}

// Dimensions belong to either a product or one of its variants.
type Dimensions struct {
	Length   decimal.Decimal
	Width    decimal.Decimal
	Height   decimal.Decimal
	Depth    *decimal.Decimal
	Diameter *decimal.Decimal
	Unit     Unit
}

type Variant struct {
	ID                uuid.UUID
	SKU               string
	AvailableQuantity int
	Price             decimal.Decimal
	Color             colors.Color
	Dimensions        *Dimensions
}

// Include selects the relations loaded by FindAll.
type Include struct {
	Images   bool
	Features bool
	Variants bool
}

// All loads every relation.
var All = Include{Images: true, Features: true, Variants: true}

type ListOptions struct {
	Query      string
	Limit      int
	Offset     int
	CategoryID *uuid.UUID
	IsActive   *bool
	Include    Include
}

// Selector picks a single product by id or, when ID is nil, by slug.
type Selector struct {
	ID   *uuid.UUID
	Slug string
}

type FeatureInput struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type DimensionsInput struct {
	Length   string  `json:"length" validate:"required"`
	Width    string  `json:"width" validate:"required"`
	Height   string  `json:"height" validate:"required"`
	Depth    *string `json:"depth,omitempty"`
	Diameter *string `json:"diameter,omitempty"`
	Unit     Unit    `json:"unit" validate:"required,oneof=cm in mm m"`
}

type VariantInput struct {
	SKU               string           `json:"sku" validate:"required"`
	AvailableQuantity int              `json:"available_quantity" validate:"min=0"`
	Price             string           `json:"price" validate:"required"`
	ColorName         string           `json:"color_name" validate:"required,normalized"`
	ColorCode         string           `json:"color_code,omitempty"`
	Dimensions        *DimensionsInput `json:"dimensions,omitempty" validate:"omitempty"`
}

type CreateInput struct {
	Name        string           `json:"name" validate:"required,normalized"`
	SKU         string           `json:"sku" validate:"required"`
	Slug        string           `json:"slug" validate:"required,slug"`
	Brand       string           `json:"brand" validate:"required"`
	Origin      string           `json:"origin" validate:"required"`
	Description string           `json:"description" validate:"required,normalized"`
	Price       string           `json:"price" validate:"required"`
	IsActive    bool             `json:"is_active"`
	CategoryID  uuid.UUID        `json:"category_id" validate:"required"`
	Dimensions  *DimensionsInput `json:"dimensions,omitempty" validate:"omitempty"`
	Features    []FeatureInput   `json:"features,omitempty" validate:"dive"`
	Variants    []VariantInput   `json:"variants" validate:"dive"`
}

// UpdateInput carries a partial update; nil scalar fields keep their value.
// Dimensions are replaced when given and deleted when nil. Features and
// Variants are replaced only when non-empty.
type UpdateInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,normalized"`
	SKU         *string          `json:"sku,omitempty"`
	Slug        *string          `json:"slug,omitempty" validate:"omitempty,slug"`
	Brand       *string          `json:"brand,omitempty"`
	Origin      *string          `json:"origin,omitempty"`
	Description *string          `json:"description,omitempty" validate:"omitempty,normalized"`
	Price       *string          `json:"price,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Dimensions  *DimensionsInput `json:"dimensions,omitempty" validate:"omitempty"`
	Features    []FeatureInput   `json:"features,omitempty" validate:"dive"`
	Variants    []VariantInput   `json:"variants,omitempty" validate:"dive"`
	Images      []string         `json:"images,omitempty"`
}
