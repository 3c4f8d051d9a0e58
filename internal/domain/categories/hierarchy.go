package categories

import (
	"context"
	"errors"

	"catalog/internal/apperr"

	"github.com/google/uuid"
)

// maxHierarchyHops bounds the parent-chain walk.
const maxHierarchyHops = 50

var (
	ErrNotFound = &apperr.Error{Code: apperr.ENOTFOUND, Message: "Category not found"}

	ErrSelfParent        = &apperr.Error{Code: apperr.EINVALID, Message: "a category cannot be its own parent"}
	ErrParentNotFound    = &apperr.Error{Code: apperr.ENOTFOUND, Message: "parent category not found"}
	ErrParentNested      = &apperr.Error{Code: apperr.EINVALID, Message: "parent category already has a parent; only two levels are allowed"}
	ErrCircularReference = &apperr.Error{Code: apperr.EINVALID, Message: "circular reference detected in category hierarchy"}
	ErrMaxDepthExceeded  = &apperr.Error{Code: apperr.EINVALID, Message: "category hierarchy exceeds the maximum traversal depth"}
	ErrHasChildren       = &apperr.Error{Code: apperr.EINVALID, Message: "category has child categories and cannot be nested"}
)

// HierarchyValidator guards category name/slug uniqueness and the two-level
// parent structure. It only reads from the store.
type HierarchyValidator struct {
	store Store
}

func NewHierarchyValidator(store Store) *HierarchyValidator {
	return &HierarchyValidator{store: store}
}

// ValidateUniqueness fails with a conflict when a category other than
// excludeID already uses name or slug.
func (v *HierarchyValidator) ValidateUniqueness(ctx context.Context, name, slug string, excludeID *uuid.UUID) error {
	const op = "categories.validateUniqueness"
	if name == "" && slug == "" {
		return nil
	}

	existing, err := v.store.FindConflict(ctx, name, slug, excludeID)
	if err != nil {
		return apperr.FromStore(err, op, "checking category uniqueness")
	}
	if existing == nil {
		return nil
	}
	if name != "" && existing.Name == name {
		return apperr.Conflict(op, "A category with this name already exists")
	}
	return apperr.Conflict(op, "A category with this slug already exists")
}

// ValidateParent checks that parentID may become the parent of selfID (nil
// for a category not yet created).
func (v *HierarchyValidator) ValidateParent(ctx context.Context, parentID uuid.UUID, selfID *uuid.UUID) error {
	const op = "categories.validateParent"

	if selfID != nil && *selfID == parentID {
		return ErrSelfParent
	}

	parent, err := v.store.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrParentNotFound
		}
		return apperr.FromStore(err, op, "loading parent category")
	}

	if err := v.walkAncestors(ctx, parent, selfID); err != nil {
		return err
	}

	if parent.ParentID != nil {
		return ErrParentNested
	}

	if selfID != nil {
		hasChildren, err := v.store.HasChildren(ctx, *selfID)
		if err != nil {
			return apperr.FromStore(err, op, "checking child categories")
		}
		if hasChildren {
			return ErrHasChildren
		}
	}
	return nil
}

// walkAncestors follows parent links from start one hop at a time. Meeting
// selfID or an already visited id is a cycle.
func (v *HierarchyValidator) walkAncestors(ctx context.Context, start *Category, selfID *uuid.UUID) error {
	visited := map[uuid.UUID]struct{}{start.ID: {}}
	next := start.ParentID

	for hops := 0; next != nil; hops++ {
		if hops >= maxHierarchyHops {
			return ErrMaxDepthExceeded
		}
		if selfID != nil && *next == *selfID {
			return ErrCircularReference
		}
		if _, seen := visited[*next]; seen {
			return ErrCircularReference
		}
		visited[*next] = struct{}{}

		c, err := v.store.GetByID(ctx, *next)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return apperr.FromStore(err, "categories.validateParent", "walking category hierarchy")
		}
		next = c.ParentID
	}
	return nil
}
