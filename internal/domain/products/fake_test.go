package products

import (
	"context"
	"sort"
	"strings"
	"time"

	"catalog/internal/domain/colors"
	"catalog/internal/media"

	"github.com/google/uuid"
)

type memStore struct {
	rows       map[uuid.UUID]*Product
	features   map[uuid.UUID][]Feature
	dimensions map[uuid.UUID]*Dimensions
	variants   map[uuid.UUID][]Variant
	positions  map[uuid.UUID]int
	categories map[uuid.UUID]bool
	deleted    []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		rows:       map[uuid.UUID]*Product{},
		features:   map[uuid.UUID][]Feature{},
		dimensions: map[uuid.UUID]*Dimensions{},
		variants:   map[uuid.UUID][]Variant{},
		positions:  map[uuid.UUID]int{},
		categories: map[uuid.UUID]bool{},
	}
}

func (m *memStore) addCategory() uuid.UUID {
	id := uuid.New()
	m.categories[id] = true
	return id
}

func cloneProduct(p *Product) *Product {
	cp := *p
	cp.Images, cp.Features, cp.Variants, cp.Dimensions = nil, nil, nil, nil
	return &cp
}

func (m *memStore) Create(ctx context.Context, p *Product) (*Product, error) {
	row := cloneProduct(p)
	row.ID = uuid.New()
	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	m.rows[row.ID] = row
	return cloneProduct(row), nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *memStore) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	for _, p := range m.rows {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindConflict(ctx context.Context, name, sku, slug string, excludeID *uuid.UUID) (*Product, error) {
	for _, p := range m.rows {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if (name != "" && p.Name == name) || (sku != "" && p.SKU == sku) || (slug != "" && p.Slug == slug) {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

func (m *memStore) FindVariantSKUConflict(ctx context.Context, skus []string, excludeProductID *uuid.UUID) (string, error) {
	want := map[string]bool{}
	for _, s := range skus {
		want[s] = true
	}
	for productID, vs := range m.variants {
		if excludeProductID != nil && productID == *excludeProductID {
			continue
		}
		for _, v := range vs {
			if want[v.SKU] {
				return v.SKU, nil
			}
		}
	}
	return "", nil
}

func (m *memStore) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.categories[id], nil
}

func (m *memStore) List(ctx context.Context, opts ListOptions) ([]*Product, int, error) {
	var matched []*Product
	for _, p := range m.rows {
		if opts.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(opts.Query)) {
			continue
		}
		if opts.CategoryID != nil && p.CategoryID != *opts.CategoryID {
			continue
		}
		if opts.IsActive != nil && p.IsActive != *opts.IsActive {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name) })

	total := len(matched)
	start := min(opts.Offset, total)
	end := min(start+opts.Limit, total)
	page := make([]*Product, 0, end-start)
	for _, p := range matched[start:end] {
		page = append(page, cloneProduct(p))
	}
	return page, total, nil
}

func (m *memStore) Update(ctx context.Context, id uuid.UUID, p *Product) (*Product, error) {
	if _, ok := m.rows[id]; !ok {
		return nil, ErrNotFound
	}
	row := cloneProduct(p)
	row.ID = id
	row.UpdatedAt = time.Now()
	m.rows[id] = row
	return cloneProduct(row), nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	delete(m.features, id)
	delete(m.dimensions, id)
	delete(m.variants, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) ReplaceFeatures(ctx context.Context, productID uuid.UUID, features []Feature) error {
	m.features[productID] = append([]Feature(nil), features...)
	return nil
}

func (m *memStore) ReplaceDimensions(ctx context.Context, productID uuid.UUID, d *Dimensions) error {
	if d == nil {
		delete(m.dimensions, productID)
		return nil
	}
	m.dimensions[productID] = d
	return nil
}

func (m *memStore) DeleteVariants(ctx context.Context, productID uuid.UUID) error {
	delete(m.variants, productID)
	return nil
}

func (m *memStore) CreateVariant(ctx context.Context, productID uuid.UUID, position int, v Variant) (uuid.UUID, error) {
	v.ID = uuid.New()
	m.positions[v.ID] = position
	m.variants[productID] = append(m.variants[productID], v)
	return v.ID, nil
}

func (m *memStore) Features(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Feature, error) {
	out := map[uuid.UUID][]Feature{}
	for _, id := range ids {
		if f, ok := m.features[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}

func (m *memStore) Dimensions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Dimensions, error) {
	out := map[uuid.UUID]*Dimensions{}
	for _, id := range ids {
		if d, ok := m.dimensions[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (m *memStore) Variants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Variant, error) {
	out := map[uuid.UUID][]Variant{}
	for _, id := range ids {
		v, ok := m.variants[id]
		if !ok {
			continue
		}
		// Same ordering as the repository, with sku breaking position ties.
		sorted := append([]Variant(nil), v...)
		sort.SliceStable(sorted, func(i, j int) bool {
			pi, pj := m.positions[sorted[i].ID], m.positions[sorted[j].ID]
			if pi != pj {
				return pi < pj
			}
			return sorted[i].SKU < sorted[j].SKU
		})
		out[id] = sorted
	}
	return out, nil
}

// memColors resolves colors case-insensitively by name.
type memColors struct {
	byName map[string]*colors.Color
}

func newMemColors() *memColors {
	return &memColors{byName: map[string]*colors.Color{}}
}

func (c *memColors) GetOrCreate(ctx context.Context, code, name string) (*colors.Color, error) {
	key := strings.ToLower(name)
	if existing, ok := c.byName[key]; ok {
		return existing, nil
	}
	col := &colors.Color{ID: uuid.New(), Code: code, Name: name}
	c.byName[key] = col
	return col, nil
}

// memTx runs fn against the shared stores. failAfter, when set, makes the
// unit of work fail once fn has run, as a failed commit would.
type memTx struct {
	stores    TxStores
	calls     int
	failAfter error
}

func (t *memTx) WithinTx(ctx context.Context, fn func(tx TxStores) error) error {
	t.calls++
	if err := fn(t.stores); err != nil {
		return err
	}
	return t.failAfter
}

type fakeMedia struct {
	images    map[uuid.UUID][]string
	uploadErr error
	deleteErr error
	uploads   int
	deleted   []uuid.UUID
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{images: map[uuid.UUID][]string{}}
}

func (f *fakeMedia) UploadImages(ctx context.Context, entity media.EntityType, id uuid.UUID, files []media.File) ([]string, error) {
	f.uploads++
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
