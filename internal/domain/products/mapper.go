package products

import (
	"time"

	"catalog/internal/domain/colors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// View is the presentation shape of a product. Decimal values are rendered
// as fixed two-place strings.
type View struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Slug        string          `json:"slug"`
	Brand       string          `json:"brand"`
	Origin      string          `json:"origin"`
	Description string          `json:"description"`
	Price       string          `json:"price"`
	IsActive    bool            `json:"is_active"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Images      []string        `json:"images,omitempty"`
	Features    []FeatureView   `json:"features,omitempty"`
	Dimensions  *DimensionsView `json:"dimensions,omitempty"`
	Variants    []VariantView   `json:"variants,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type FeatureView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type DimensionsView struct {
	Length   string  `json:"length"`
	Width    string  `json:"width"`
	Height   string  `json:"height"`
	Depth    *string `json:"depth,omitempty"`
	Diameter *string `json:"diameter,omitempty"`
	Unit     Unit    `json:"unit"`
}

type VariantView struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	AvailableQuantity int             `json:"available_quantity"`
	Price             string          `json:"price"`
	Color             colors.Color    `json:"color"`
	Dimensions        *DimensionsView `json:"dimensions,omitempty"`
}

func ToView(p *Product) *View {
	v := &View{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Slug:        p.Slug,
		Brand:       p.Brand,
		Origin:      p.Origin,
		Description: p.Description,
		Price:       money(p.Price),
		IsActive:    p.IsActive,
		CategoryID:  p.CategoryID,
		Images:      p.Images,
		Dimensions:  toDimensionsView(p.Dimensions),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Features != nil {
		v.Features = make([]FeatureView, len(p.Features))
		for i, f := range p.Features {
			v.Features[i] = FeatureView(f)
		}
	}
	if p.Variants != nil {
		v.Variants = make([]VariantView, len(p.Variants))
		for i, pv := range p.Variants {
			v.Variants[i] = VariantView{
				ID:                pv.ID,
				SKU:               pv.SKU,
				AvailableQuantity: pv.AvailableQuantity,
				Price:             money(pv.Price),
				Color:             pv.Color,
				Dimensions:        toDimensionsView(pv.Dimensions),
			}
		}
	}
	return v
}

func ToViews(list []*Product) []*View {
	out := make([]*View, len(list))
	for i, p := range list {
		out[i] = ToView(p)
	}
	return out
}

func toDimensionsView(d *Dimensions) *DimensionsView {
	if d == nil {
		return nil
	}
	return &DimensionsView{
		Length:   money(d.Length),
		Width:    money(d.Width),
		Height:   money(d.Height),
		Depth:    optional(d.Depth),
		Diameter: optional(d.Diameter),
		Unit:     d.Unit,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optional(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}
