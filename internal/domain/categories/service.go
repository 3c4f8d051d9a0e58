package categories

import (
	"context"
	"errors"

	"catalog/internal/apperr"
	"catalog/internal/media"
	"catalog/internal/metrics"
	"catalog/internal/params"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Media is the part of the media orchestrator the category service uses.
type Media interface {
	UploadImages(ctx context.Context, entity media.EntityType, id uuid.UUID, files []media.File) ([]string, error)
	ReplaceImages(ctx context.Context, entity media.EntityType, id uuid.UUID, existing []string, files []media.File) ([]string, error)
	DeleteImagesByEntity(ctx context.Context, entity media.EntityType, id uuid.UUID) error
	Images(ctx context.Context, entity media.EntityType, ids []uuid.UUID) (map[uuid.UUID][]string, error)
}

type Service struct {
	store     Store
	validator *HierarchyValidator
	media     Media
	logger    *zap.SugaredLogger
}

func NewService(store Store, m Media, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:     store,
		validator: NewHierarchyValidator(store),
		media:     m,
		logger:    logger,
	}
}

// Create inserts the category and then uploads its images. An upload failure
// leaves the committed row in place and is returned to the caller.
func (s *Service) Create(ctx context.Context, in CreateInput, files []media.File) (*Category, error) {
	const op = "categories.create"

	if err := s.validator.ValidateUniqueness(ctx, in.Name, in.Slug, nil); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if err := s.validator.ValidateParent(ctx, *in.ParentID, nil); err != nil {
			return nil, err
		}
	}

	created, err := s.store.Create(ctx, &Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		IsActive:    in.IsActive,
		ParentID:    in.ParentID,
	})
	if err != nil {
		s.logger.Errorw("create category failed", "op", op, "error", err)
		return nil, s.storeError(err, op, "creating the category")
	}

	names, err := s.media.UploadImages(ctx, media.Category, created.ID, files)
	if err != nil {
		s.logger.Errorw("category created without images", "op", op, "category_id", created.ID, "error", err)
		return nil, err
	}
	created.Images = names
	return created, nil
}

// FindAll returns one page of categories. Each category carries its direct
// children, loaded with the same inclusion flags.
func (s *Service) FindAll(ctx context.Context, opts ListOptions) (params.Page[*Category], error) {
	const op = "categories.findAll"
	if opts.Limit <= 0 {
		opts.Limit = params.DefaultLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	list, total, err := s.store.List(ctx, opts)
	if err != nil {
		s.logger.Errorw("list categories failed", "op", op, "error", err)
		return params.Page[*Category]{}, apperr.FromStore(err, op, "fetching categories")
	}

	if err := s.loadChildren(ctx, list, opts.Include); err != nil {
		return params.Page[*Category]{}, apperr.FromStore(err, op, "fetching categories")
	}

	return params.NewPage(total, opts.Limit, list), nil
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID, inc Include) (*Category, error) {
	const op = "categories.findOne"

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, op, "fetching the category")
	}
	if err := s.loadChildren(ctx, []*Category{c}, inc); err != nil {
		return nil, apperr.FromStore(err, op, "fetching the category")
	}
	return c, nil
}

// FindBySlug is FindOne keyed by slug.
func (s *Service) FindBySlug(ctx context.Context, slug string, inc Include) (*Category, error) {
	const op = "categories.findBySlug"

	c, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, s.storeError(err, op, "fetching the category")
	}
	if err := s.loadChildren(ctx, []*Category{c}, inc); err != nil {
		return nil, apperr.FromStore(err, op, "fetching the category")
	}
	return c, nil
}

// Update applies a partial update. The image set is replaced only when the
// union of kept and uploaded images is non-empty.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, files []media.File) (*Category, error) {
	const op = "categories.update"

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, op, "fetching the category")
	}

	patch := Patch{
		Name:        current.Name,
		Slug:        current.Slug,
		Description: current.Description,
		IsActive:    current.IsActive,
		ParentID:    current.ParentID,
	}
	var name, slug string
	if in.Name != nil && *in.Name != current.Name {
		name, patch.Name = *in.Name, *in.Name
	}
	if in.Slug != nil && *in.Slug != current.Slug {
		slug, patch.Slug = *in.Slug, *in.Slug
	}
	if in.Description != nil {
		if *in.Description == "" {
			patch.Description = nil
		} else {
			patch.Description = in.Description
		}
	}
	if in.IsActive != nil {
		patch.IsActive = *in.IsActive
	}

	if err := s.validator.ValidateUniqueness(ctx, name, slug, &id); err != nil {
		return nil, err
	}

	switch {
	case in.ClearParent:
		patch.ParentID = nil
	case in.ParentID != nil && !sameParent(current.ParentID, *in.ParentID):
		if err := s.validator.ValidateParent(ctx, *in.ParentID, &id); err != nil {
			return nil, err
		}
		patch.ParentID = in.ParentID
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		s.logger.Errorw("update category failed", "op", op, "category_id", id, "error", err)
		return nil, s.storeError(err, op, "updating the category")
	}

	if len(media.MergeImageSet(in.Images, nil)) > 0 || len(files) > 0 {
		images, err := s.media.ReplaceImages(ctx, media.Category, id, in.Images, files)
		if err != nil {
			return nil, err
		}
		updated.Images = images
		return updated, nil
	}

	imgs, err := s.media.Images(ctx, media.Category, []uuid.UUID{id})
	if err != nil {
		return nil, apperr.FromStore(err, op, "fetching category images")
	}
	updated.Images = nonNil(imgs[id])
	return updated, nil
}

// Remove deletes a category that has neither products nor children, then
// removes its blob folder. Folder cleanup failures are logged only.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	const op = "categories.remove"

	if _, err := s.store.GetByID(ctx, id); err != nil {
		return s.storeError(err, op, "fetching the category")
	}

	counts, err := s.store.CountProducts(ctx, []uuid.UUID{id})
	if err != nil {
		return apperr.FromStore(err, op, "deleting the category")
	}
	if counts[id] > 0 {
		return apperr.Conflict(op, "Cannot delete category because it has associated products")
	}

	hasChildren, err := s.store.HasChildren(ctx, id)
	if err != nil {
		return apperr.FromStore(err, op, "deleting the category")
	}
	if hasChildren {
		return apperr.Conflict(op, "Cannot delete category because it has child categories")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Errorw("delete category failed", "op", op, "category_id", id, "error", err)
		return s.storeError(err, op, "deleting the category")
	}

	if err := s.media.DeleteImagesByEntity(ctx, media.Category, id); err != nil {
		metrics.BlobCleanupFailures.WithLabelValues(string(media.Category)).Inc()
		s.logger.Warnw("category images not removed from storage", "op", op, "category_id", id, "error", err)
	}
	return nil
}

// loadChildren attaches direct children to roots and then decorates roots and
// children alike with the requested relations.
func (s *Service) loadChildren(ctx context.Context, roots []*Category, inc Include) error {
	if len(roots) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(roots))
	for i, c := range roots {
		ids[i] = c.ID
	}

	children, err := s.store.ListChildren(ctx, ids)
	if err != nil {
		return err
	}
	byParent := make(map[uuid.UUID][]*Category, len(roots))
	for _, child := range children {
		byParent[*child.ParentID] = append(byParent[*child.ParentID], child)
	}
	for _, c := range roots {
		c.Children = nonNil(byParent[c.ID])
	}

	all := append(append([]*Category{}, roots...), children...)
	return s.loadRelations(ctx, all, inc)
}

func (s *Service) loadRelations(ctx context.Context, list []*Category, inc Include) error {
	if len(list) == 0 || inc == (Include{}) {
		return nil
	}

	ids := make([]uuid.UUID, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}

	if inc.Images {
		images, err := s.media.Images(ctx, media.Category, ids)
		if err != nil {
			return err
		}
		for _, c := range list {
			c.Images = nonNil(images[c.ID])
		}
	}

	if inc.Products {
		products, err := s.store.ListProducts(ctx, ids)
		if err != nil {
			return err
		}
		for _, c := range list {
			c.Products = nonNil(products[c.ID])
		}
	}

	if inc.ProductCount {
		counts, err := s.store.CountProducts(ctx, ids)
		if err != nil {
			return err
		}
		for _, c := range list {
			n := counts[c.ID]
			c.ProductCount = &n
		}
	}
	return nil
}

func (s *Service) storeError(err error, op, context string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(op, "Category")
	}
	return apperr.FromStore(err, op, context)
}

func sameParent(current *uuid.UUID, next uuid.UUID) bool {
	return current != nil && *current == next
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
