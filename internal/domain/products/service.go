package products

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"

	"catalog/internal/apperr"
	"catalog/internal/domain/colors"
	"catalog/internal/media"
	"catalog/internal/metrics"
	"catalog/internal/params"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = &apperr.Error{Code: apperr.ENOTFOUND, Message: "Product not found"}

// Media is the part of the media orchestrator the product service uses.
type Media interface {
	UploadImages(ctx context.Context, entity media.EntityType, id uuid.UUID, files []media.File) ([]string, error)
	ReplaceImages(ctx context.Context, entity media.EntityType, id uuid.UUID, existing []string, files []media.File) ([]string, error)
	DeleteImagesByEntity(ctx context.Context, entity media.EntityType, id uuid.UUID) error
	Images(ctx context.Context, entity media.EntityType, ids []uuid.UUID) (map[uuid.UUID][]string, error)
}

// ColorResolver finds a color by name, creating it when missing.
type ColorResolver interface {
	GetOrCreate(ctx context.Context, code, name string) (*colors.Color, error)
}

// TxStores are the repositories bound to one transaction.
type TxStores struct {
	Products Store
	Colors   ColorResolver
}

// Transactor runs fn atomically: every write made through the given stores
// commits together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx TxStores) error) error
}

type Service struct {
	store  Store
	tx     Transactor
	media  Media
	logger *zap.SugaredLogger
}

func NewService(store Store, tx Transactor, m Media, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, tx: tx, media: m, logger: logger}
}

// Create writes the product with its features, dimensions and variants in
// one transaction, then uploads its images. An upload failure leaves the
// committed product in place and is returned to the caller.
func (s *Service) Create(ctx context.Context, in CreateInput, files []media.File) (*View, error) {
	const op = "products.create"

	if len(in.Variants) == 0 {
		return nil, apperr.Invalid(op, "product must have at least one variant")
	}
	if err := checkDistinctSKUs(op, in.Variants); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.Invalid(op, "product must have at least one image")
	}

	price, err := NormalizePrice(in.Price)
	if err != nil {
		return nil, err
	}
	dims, err := parseDimensions(in.Dimensions)
	if err != nil {
		return nil, err
	}
	variants, err := parseVariants(in.Variants)
	if err != nil {
		return nil, err
	}

	if err := s.validateUniqueness(ctx, op, in.Name, in.SKU, in.Slug, nil); err != nil {
		return nil, err
	}
	if err := s.validateVariantSKUs(ctx, op, variants, nil); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, op, in.CategoryID); err != nil {
		return nil, err
	}

	row := &Product{
		Name:        in.Name,
		SKU:         in.SKU,
		Slug:        in.Slug,
		Brand:       in.Brand,
		Origin:      in.Origin,
		Description: in.Description,
		Price:       price,
		IsActive:    in.IsActive,
		CategoryID:  in.CategoryID,
	}

	var created *Product
	err = s.tx.WithinTx(ctx, func(tx TxStores) error {
		var err error
		if created, err = tx.Products.Create(ctx, row); err != nil {
			return err
		}
		if len(in.Features) > 0 {
			if err := tx.Products.ReplaceFeatures(ctx, created.ID, toFeatures(in.Features)); err != nil {
				return err
			}
		}
		if dims != nil {
			if err := tx.Products.ReplaceDimensions(ctx, created.ID, dims); err != nil {
				return err
			}
		}
		return createVariants(ctx, tx, created.ID, variants)
	})
	if err != nil {
		s.logger.Errorw("create product failed", "op", op, "error", err)
		return nil, s.storeError(err, op, "creating product")
	}

	if _, err := s.media.UploadImages(ctx, media.Product, created.ID, files); err != nil {
		s.logger.Errorw("product created without images", "op", op, "product_id", created.ID, "error", err)
		return nil, err
	}

	return s.findLoaded(ctx, op, created.ID)
}

// FindAll returns one page of products with the requested relations.
func (s *Service) FindAll(ctx context.Context, opts ListOptions) (params.Page[*View], error) {
	const op = "products.findAll"
	if opts.Limit <= 0 {
		opts.Limit = params.DefaultLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	list, total, err := s.store.List(ctx, opts)
	if err != nil {
		s.logger.Errorw("list products failed", "op", op, "error", err)
		return params.Page[*View]{}, apperr.FromStore(err, op, "fetching products")
	}
	if err := s.loadRelations(ctx, list, opts.Include); err != nil {
		return params.Page[*View]{}, apperr.FromStore(err, op, "fetching products")
	}
	return params.NewPage(total, opts.Limit, ToViews(list)), nil
}

// FindOne loads a product by id or slug with every relation.
func (s *Service) FindOne(ctx context.Context, sel Selector) (*View, error) {
	const op = "products.findOne"

	var (
		p   *Product
		err error
	)
	if sel.ID != nil {
		p, err = s.store.GetByID(ctx, *sel.ID)
	} else {
		p, err = s.store.GetBySlug(ctx, sel.Slug)
	}
	if err != nil {
		return nil, s.storeError(err, op, "fetching product")
	}
	if err := s.loadRelations(ctx, []*Product{p}, All); err != nil {
		return nil, apperr.FromStore(err, op, "fetching product")
	}
	return ToView(p), nil
}

// Update applies a partial update inside one transaction, then reconciles
// the image set when the kept and uploaded images are not both empty.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, files []media.File) (*View, error) {
	const op = "products.update"

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, op, "fetching product")
	}

	next := *current
	var name, sku, slug string
	if in.Name != nil && *in.Name != current.Name {
		name, next.Name = *in.Name, *in.Name
	}
	if in.SKU != nil && *in.SKU != current.SKU {
		sku, next.SKU = *in.SKU, *in.SKU
	}
	if in.Slug != nil && *in.Slug != current.Slug {
		slug, next.Slug = *in.Slug, *in.Slug
	}
	if in.Brand != nil {
		next.Brand = *in.Brand
	}
	if in.Origin != nil {
		next.Origin = *in.Origin
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}
	if in.Price != nil {
		if next.Price, err = NormalizePrice(*in.Price); err != nil {
			return nil, err
		}
	}

	dims, err := parseDimensions(in.Dimensions)
	if err != nil {
		return nil, err
	}
	if err := checkDistinctSKUs(op, in.Variants); err != nil {
		return nil, err
	}
	variants, err := parseVariants(in.Variants)
	if err != nil {
		return nil, err
	}

	if err := s.validateUniqueness(ctx, op, name, sku, slug, &id); err != nil {
		return nil, err
	}
	if err := s.validateVariantSKUs(ctx, op, variants, &id); err != nil {
		return nil, err
	}
	if in.CategoryID != nil && *in.CategoryID != current.CategoryID {
		if err := s.requireCategory(ctx, op, *in.CategoryID); err != nil {
			return nil, err
		}
		next.CategoryID = *in.CategoryID
	}

	err = s.tx.WithinTx(ctx, func(tx TxStores) error {
		if _, err := tx.Products.Update(ctx, id, &next); err != nil {
			return err
		}
		if err := tx.Products.ReplaceDimensions(ctx, id, dims); err != nil {
			return err
		}
		if len(in.Features) > 0 {
			if err := tx.Products.ReplaceFeatures(ctx, id, toFeatures(in.Features)); err != nil {
				return err
			}
		}
		if len(variants) > 0 {
			if err := tx.Products.DeleteVariants(ctx, id); err != nil {
				return err
			}
			return createVariants(ctx, tx, id, variants)
		}
		return nil
	})
	if err != nil {
		s.logger.Errorw("update product failed", "op", op, "product_id", id, "error", err)
		return nil, s.storeError(err, op, "updating product")
	}

	if len(media.MergeImageSet(in.Images, nil)) > 0 || len(files) > 0 {
		if _, err := s.media.ReplaceImages(ctx, media.Product, id, in.Images, files); err != nil {
			return nil, err
		}
	}

	return s.findLoaded(ctx, op, id)
}

// Remove deletes the product (owned rows cascade) and then its blob folder.
// Folder cleanup failures are logged only.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	const op = "products.remove"

	if _, err := s.store.GetByID(ctx, id); err != nil {
		return s.storeError(err, op, "fetching product")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Errorw("delete product failed", "op", op, "product_id", id, "error", err)
		return s.storeError(err, op, "deleting product")
	}

	if err := s.media.DeleteImagesByEntity(ctx, media.Product, id); err != nil {
		metrics.BlobCleanupFailures.WithLabelValues(string(media.Product)).Inc()
		s.logger.Warnw("product images not removed from storage", "op", op, "product_id", id, "error", err)
	}
	return nil
}

func (s *Service) findLoaded(ctx context.Context, op string, id uuid.UUID) (*View, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, op, "fetching product")
	}
	if err := s.loadRelations(ctx, []*Product{p}, All); err != nil {
		return nil, apperr.FromStore(err, op, "fetching product")
	}
	return ToView(p), nil
}

func (s *Service) loadRelations(ctx context.Context, list []*Product, inc Include) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}

	if inc.Images {
		images, err := s.media.Images(ctx, media.Product, ids)
		if err != nil {
			return err
		}
		for _, p := range list {
			p.Images = nonNil(images[p.ID])
		}
	}

	if inc.Features {
		features, err := s.store.Features(ctx, ids)
		if err != nil {
			return err
		}
		for _, p := range list {
			p.Features = nonNil(features[p.ID])
		}
	}

	if inc.Variants {
		variants, err := s.store.Variants(ctx, ids)
		if err != nil {
			return err
		}
		for _, p := range list {
			p.Variants = nonNil(variants[p.ID])
		}
	}

	dims, err := s.store.Dimensions(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range list {
		p.Dimensions = dims[p.ID]
	}
	return nil
}

func (s *Service) validateUniqueness(ctx context.Context, op, name, sku, slug string, excludeID *uuid.UUID) error {
	if name == "" && sku == "" && slug == "" {
		return nil
	}
	existing, err := s.store.FindConflict(ctx, name, sku, slug, excludeID)
	if err != nil {
		return apperr.FromStore(err, op, "checking product uniqueness")
	}
	switch {
	case existing == nil:
		return nil
	case name != "" && existing.Name == name:
		return apperr.Conflict(op, "A product with this name already exists")
	case sku != "" && existing.SKU == sku:
		return apperr.Conflict(op, "A product with this SKU already exists")
	default:
		return apperr.Conflict(op, "A product with this slug already exists")
	}
}

func (s *Service) validateVariantSKUs(ctx context.Context, op string, variants []Variant, excludeProductID *uuid.UUID) error {
	if len(variants) == 0 {
		return nil
	}
	skus := make([]string, len(variants))
	for i, v := range variants {
		skus[i] = v.SKU
	}
	taken, err := s.store.FindVariantSKUConflict(ctx, skus, excludeProductID)
	if err != nil {
		return apperr.FromStore(err, op, "checking variant SKUs")
	}
	if taken != "" {
		return apperr.Errorf(apperr.ECONFLICT, op, "A variant with SKU %s already exists", taken)
	}
	return nil
}

func (s *Service) requireCategory(ctx context.Context, op string, id uuid.UUID) error {
	ok, err := s.store.CategoryExists(ctx, id)
	if err != nil {
		return apperr.FromStore(err, op, "checking the category")
	}
	if !ok {
		return apperr.NotFound(op, "Category")
	}
	return nil
}

func (s *Service) storeError(err error, op, context string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(op, "Product")
	}
	return apperr.FromStore(err, op, context)
}

// createVariants resolves each variant's color on the transaction and
// inserts the variant with its dimensions.
func createVariants(ctx context.Context, tx TxStores, productID uuid.UUID, variants []Variant) error {
	for i, v := range variants {
		color, err := tx.Colors.GetOrCreate(ctx, v.Color.Code, v.Color.Name)
		if err != nil {
			return err
		}
		v.Color = *color
		if _, err := tx.Products.CreateVariant(ctx, productID, i, v); err != nil {
			return err
		}
	}
	return nil
}

func checkDistinctSKUs(op string, variants []VariantInput) error {
	seen := make(map[string]bool, len(variants))
	var dups []string
	for _, v := range variants {
		if seen[v.SKU] {
			dups = append(dups, v.SKU)
			continue
		}
		seen[v.SKU] = true
	}
	if len(dups) == 0 {
		return nil
	}
	slices.Sort(dups)
	dups = slices.Compact(dups)
	return apperr.Errorf(apperr.EINVALID, op, "duplicate variant SKUs: %s", strings.Join(dups, ", "))
}

func parseVariants(in []VariantInput) ([]Variant, error) {
	out := make([]Variant, 0, len(in))
	for _, vi := range in {
		if vi.AvailableQuantity < 0 {
			return nil, apperr.Errorf(apperr.EINVALID, "products.variants", "available quantity of %s must not be negative", vi.SKU)
		}
		if vi.AvailableQuantity > math.MaxInt32 {
			return nil, apperr.Errorf(apperr.EINVALID, "products.variants", "available quantity of %s must not exceed %d", vi.SKU, math.MaxInt32)
		}
		price, err := NormalizePrice(vi.Price)
		if err != nil {
			return nil, err
		}
		dims, err := parseDimensions(vi.Dimensions)
		if err != nil {
			return nil, err
		}
		code := strings.TrimSpace(vi.ColorCode)
		if code == "" {
			code = colors.DefaultCode(vi.ColorName)
		}
		out = append(out, Variant{
			SKU:               vi.SKU,
			AvailableQuantity: vi.AvailableQuantity,
			Price:             price,
			Color:             colors.Color{Code: code, Name: vi.ColorName},
			Dimensions:        dims,
		})
	}
	return out, nil
}

func toFeatures(in []FeatureInput) []Feature {
	out := make([]Feature, len(in))
	for i, f := range in {
		out[i] = Feature{Name: f.Name, Value: f.Value}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
