package categories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog/internal/media"

	"github.com/google/uuid"
)

// memStore is an in-memory Store ordered like the SQL one.
type memStore struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*Category
	products map[uuid.UUID][]ProductSummary
	deleted  []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		rows:     map[uuid.UUID]*Category{},
		products: map[uuid.UUID][]ProductSummary{},
	}
}

func (m *memStore) put(name string, parent *uuid.UUID) *Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		IsActive:  true,
		ParentID:  parent,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.rows[c.ID] = c
	return c
}

func clone(c *Category) *Category {
	cp := *c
	return &cp
}

func (m *memStore) Create(ctx context.Context, c *Category) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := clone(c)
	row.ID = uuid.New()
	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	m.rows[row.ID] = row
	return clone(row), nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (m *memStore) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Slug == slug {
			return clone(c), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindConflict(ctx context.Context, name, slug string, excludeID *uuid.UUID) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var bySlug *Category
	for _, c := range m.rows {
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if name != "" && c.Name == name {
			return clone(c), nil
		}
		if slug != "" && c.Slug == slug {
			bySlug = clone(c)
		}
	}
	return bySlug, nil
}

func (m *memStore) sorted() []*Category {
	list := make([]*Category, 0, len(m.rows))
	for _, c := range m.rows {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
		if a != b {
			return a < b
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	return list
}

func (m *memStore) List(ctx context.Context, opts ListOptions) ([]*Category, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*Category
	for _, c := range m.sorted() {
		if opts.Query != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(opts.Query)) {
			continue
		}
		if opts.OnlyRoot && c.ParentID != nil {
			continue
		}
		if opts.OnlyChildren && c.ParentID == nil {
			continue
		}
		if opts.ExcludeID != nil && c.ID == *opts.ExcludeID {
			continue
		}
		matched = append(matched, c)
	}

	total := len(matched)
	start := min(opts.Offset, total)
	end := min(start+opts.Limit, total)
	page := make([]*Category, 0, end-start)
	for _, c := range matched[start:end] {
		page = append(page, clone(c))
	}
	return page, total, nil
}

func (m *memStore) ListChildren(ctx context.Context, parentIDs []uuid.UUID) ([]*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range parentIDs {
		want[id] = true
	}
	var out []*Category
	for _, c := range m.sorted() {
		if c.ParentID != nil && want[*c.ParentID] {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (m *memStore) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ParentID != nil && *c.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]int{}
	for _, id := range ids {
		if n := len(m.products[id]); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (m *memStore) ListProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]ProductSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID][]ProductSummary{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, id uuid.UUID, p Patch) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Name, c.Slug, c.Description, c.IsActive, c.ParentID = p.Name, p.Slug, p.Description, p.IsActive, p.ParentID
	c.UpdatedAt = time.Now()
	return clone(c), nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// fakeMedia records calls and keeps image sets in memory.
type fakeMedia struct {
	images       map[uuid.UUID][]string
	uploadErr    error
	deleteErr    error
	deleted      []uuid.UUID
	replaceCalls int
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{images: map[uuid.UUID][]string{}}
}

func (f *fakeMedia) UploadImages(ctx context.Context, entity media.EntityType, id uuid.UUID, files []media.File) ([]string, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	f.images[id] = append(f.images[id], names...)
	return names, nil
}

func (f *fakeMedia) ReplaceImages(ctx context.Context, entity media.EntityType, id uuid.UUID, existing []string, files []media.File) ([]string, error) {
	f.replaceCalls++
	uploaded := make([]string, 0, len(files))
	for _, file := range files {
		uploaded = append(uploaded, file.Name)
	}
	f.images[id] = media.MergeImageSet(existing, uploaded)
	return f.images[id], nil
}

func (f *fakeMedia) DeleteImagesByEntity(ctx context.Context, entity media.EntityType, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeMedia) Images(ctx context.Context, entity media.EntityType, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := map[uuid.UUID][]string{}
	for _, id := range ids {
		if v, ok := f.images[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}
