package colors

import (
	"context"
	"errors"

	"catalog/internal/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = &apperr.Error{Code: apperr.ENOTFOUND, Message: "Color not found"}

type Service struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewService(store Store, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

// Create fails with a conflict when either the code or the name is taken.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Color, error) {
	const op = "colors.create"

	existing, err := s.store.FindByCodeOrName(ctx, in.Code, in.Name, nil)
	if err != nil {
		return nil, apperr.FromStore(err, op, "checking the color")
	}
	if existing != nil {
		return nil, apperr.Conflict(op, "Color already exists")
	}

	c, err := s.store.Create(ctx, in.Code, in.Name)
	if err != nil {
		s.logger.Errorw("create color failed", "op", op, "error", err)
		return nil, apperr.FromStore(err, op, "creating the color")
	}
	return c, nil
}

func (s *Service) FindAll(ctx context.Context) ([]*Color, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.FromStore(err, "colors.findAll", "fetching colors")
	}
	return list, nil
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*Color, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "colors.findOne", "fetching the color")
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Color, error) {
	const op = "colors.update"

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, op, "fetching the color")
	}

	code, name := current.Code, current.Name
	if in.Code != nil {
		code = *in.Code
	}
	if in.Name != nil {
		name = *in.Name
	}

	existing, err := s.store.FindByCodeOrName(ctx, code, name, &id)
	if err != nil {
		return nil, apperr.FromStore(err, op, "checking the color")
	}
	if existing != nil {
		return nil, apperr.Conflict(op, "Color already exists")
	}

	c, err := s.store.Update(ctx, id, code, name)
	if err != nil {
		s.logger.Errorw("update color failed", "op", op, "color_id", id, "error", err)
		return nil, storeError(err, op, "updating the color")
	}
	return c, nil
}

// Remove refuses to delete a color still referenced by a variant.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	const op = "colors.remove"

	if _, err := s.store.GetByID(ctx, id); err != nil {
		return storeError(err, op, "fetching the color")
	}
	used, err := s.store.InUse(ctx, id)
	if err != nil {
		return apperr.FromStore(err, op, "deleting the color")
	}
	if used {
		return apperr.Conflict(op, "Cannot delete color because it is used by product variants")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, op, "deleting the color")
	}
	return nil
}

func storeError(err error, op, context string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(op, "Color")
	}
	return apperr.FromStore(err, op, context)
}
