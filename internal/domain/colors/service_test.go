package colors

import (
	"context"
	"errors"
	"testing"

	"catalog/internal/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockStore implements Store for testing
type mockStore struct {
	CreateFunc           func(ctx context.Context, code, name string) (*Color, error)
	ListFunc             func(ctx context.Context) ([]*Color, error)
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*Color, error)
	FindByCodeOrNameFunc func(ctx context.Context, code, name string, excludeID *uuid.UUID) (*Color, error)
	GetOrCreateFunc      func(ctx context.Context, code, name string) (*Color, error)
	UpdateFunc           func(ctx context.Context, id uuid.UUID, code, name string) (*Color, error)
	InUseFunc            func(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteFunc           func(ctx context.Context, id uuid.UUID) error
}

func (m *mockStore) Create(ctx context.Context, code, name string) (*Color, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, code, name)
	}
	return &Color{ID: uuid.New(), Code: code, Name: name}, nil
}

func (m *mockStore) List(ctx context.Context) ([]*Color, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*Color{}, nil
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*Color, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockStore) FindByCodeOrName(ctx context.Context, code, name string, excludeID *uuid.UUID) (*Color, error) {
	if m.FindByCodeOrNameFunc != nil {
		return m.FindByCodeOrNameFunc(ctx, code, name, excludeID)
	}
	return nil, nil
}

func (m *mockStore) GetOrCreate(ctx context.Context, code, name string) (*Color, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, code, name)
	}
	return &Color{ID: uuid.New(), Code: code, Name: name}, nil
}

func (m *mockStore) Update(ctx context.Context, id uuid.UUID, code, name string) (*Color, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, code, name)
	}
	return &Color{ID: id, Code: code, Name: name}, nil
}

func (m *mockStore) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.InUseFunc != nil {
		return m.InUseFunc(ctx, id)
	}
	return false, nil
}

func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		existing *Color
		wantCode string
	}{
		{"new color", nil, ""},
		{"code or name taken", &Color{ID: uuid.New(), Code: "red", Name: "Red"}, apperr.ECONFLICT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			store := &mockStore{
				FindByCodeOrNameFunc: func(ctx context.Context, code, name string, excludeID *uuid.UUID) (*Color, error) {
					assert.Nil(t, excludeID)
					return tt.existing, nil
				},
				CreateFunc: func(ctx context.Context, code, name string) (*Color, error) {
					created = true
					return &Color{ID: uuid.New(), Code: code, Name: name}, nil
				},
			}
			svc := NewService(store, zap.NewNop().Sugar())

			c, err := svc.Create(context.Background(), CreateInput{Code: "red", Name: "Red"})
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperr.Code(err))
				assert.Equal(t, "Color already exists", apperr.Message(err))
				assert.False(t, created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Red", c.Name)
			assert.True(t, created)
		})
	}
}

func TestFindOneNotFound(t *testing.T) {
	svc := NewService(&mockStore{}, zap.NewNop().Sugar())
	_, err := svc.FindOne(context.Background(), uuid.New())
	assert.Equal(t, apperr.ENOTFOUND, apperr.Code(err))
	assert.Equal(t, "Color not found", apperr.Message(err))
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	id := uuid.New()
	store := &mockStore{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*Color, error) {
			return &Color{ID: got, Code: "navy", Name: "Navy"}, nil
		},
		FindByCodeOrNameFunc: func(ctx context.Context, code, name string, excludeID *uuid.UUID) (*Color, error) {
			require.NotNil(t, excludeID)
			assert.Equal(t, id, *excludeID)
			return nil, nil
		},
	}
	svc := NewService(store, zap.NewNop().Sugar())

	name := "Navy Blue"
	c, err := svc.Update(context.Background(), id, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "navy", c.Code)
	assert.Equal(t, "Navy Blue", c.Name)
}

func TestRemove(t *testing.T) {
	found := func(ctx context.Context, id uuid.UUID) (*Color, error) { return &Color{ID: id}, nil }

	t.Run("in use", func(t *testing.T) {
		store := &mockStore{
			GetByIDFunc: found,
			InUseFunc:   func(ctx context.Context, id uuid.UUID) (bool, error) { return true, nil },
			DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
				t.Fatal("delete must not be called")
				return nil
			},
		}
		err := NewService(store, zap.NewNop().Sugar()).Remove(context.Background(), uuid.New())
		assert.Equal(t, apperr.ECONFLICT, apperr.Code(err))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		store := &mockStore{
			GetByIDFunc: found,
			DeleteFunc:  func(ctx context.Context, id uuid.UUID) error { return errors.New("conn reset") },
		}
		err := NewService(store, zap.NewNop().Sugar()).Remove(context.Background(), uuid.New())
		assert.Equal(t, apperr.EINTERNAL, apperr.Code(err))
		assert.Equal(t, "An error occurred while deleting the color", apperr.Message(err))
	})
}

func TestDefaultCode(t *testing.T) {
	assert.Equal(t, "navy-blue", DefaultCode("  Navy   Blue "))
	assert.Equal(t, "red", DefaultCode("RED"))
}
