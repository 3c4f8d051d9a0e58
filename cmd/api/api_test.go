package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"catalog/internal/apperr"
	"catalog/internal/auth"
	"catalog/internal/domain/categories"
	"catalog/internal/domain/colors"
	"catalog/internal/domain/products"
	"catalog/internal/media"
	"catalog/internal/params"
	"catalog/internal/ratelimiter"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "good-token"

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(token string) (*auth.User, error) {
	if token != testToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.User{ID: "user_1", SessionID: "sess_1"}, nil
}

type fakeCategories struct {
	CreateFunc     func(ctx context.Context, in categories.CreateInput, files []media.File) (*categories.Category, error)
	FindAllFunc    func(ctx context.Context, opts categories.ListOptions) (params.Page[*categories.Category], error)
	FindOneFunc    func(ctx context.Context, id uuid.UUID, inc categories.Include) (*categories.Category, error)
	FindBySlugFunc func(ctx context.Context, slug string, inc categories.Include) (*categories.Category, error)
	UpdateFunc     func(ctx context.Context, id uuid.UUID, in categories.UpdateInput, files []media.File) (*categories.Category, error)
	RemoveFunc     func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeCategories) Create(ctx context.Context, in categories.CreateInput, files []media.File) (*categories.Category, error) {
	return f.CreateFunc(ctx, in, files)
}

func (f *fakeCategories) FindAll(ctx context.Context, opts categories.ListOptions) (params.Page[*categories.Category], error) {
	return f.FindAllFunc(ctx, opts)
}

func (f *fakeCategories) FindOne(ctx context.Context, id uuid.UUID, inc categories.Include) (*categories.Category, error) {
	return f.FindOneFunc(ctx, id, inc)
}

func (f *fakeCategories) FindBySlug(ctx context.Context, slug string, inc categories.Include) (*categories.Category, error) {
	return f.FindBySlugFunc(ctx, slug, inc)
}

func (f *fakeCategories) Update(ctx context.Context, id uuid.UUID, in categories.UpdateInput, files []media.File) (*categories.Category, error) {
	return f.UpdateFunc(ctx, id, in, files)
}

func (f *fakeCategories) Remove(ctx context.Context, id uuid.UUID) error {
	return f.RemoveFunc(ctx, id)
}

type fakeProducts struct {
	CreateFunc  func(ctx context.Context, in products.CreateInput, files []media.File) (*products.View, error)
	FindAllFunc func(ctx context.Context, opts products.ListOptions) (params.Page[*products.View], error)
	FindOneFunc func(ctx context.Context, sel products.Selector) (*products.View, error)
	UpdateFunc  func(ctx context.Context, id uuid.UUID, in products.UpdateInput, files []media.File) (*products.View, error)
	RemoveFunc  func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeProducts) Create(ctx context.Context, in products.CreateInput, files []media.File) (*products.View, error) {
	return f.CreateFunc(ctx, in, files)
}

func (f *fakeProducts) FindAll(ctx context.Context, opts products.ListOptions) (params.Page[*products.View], error) {
	return f.FindAllFunc(ctx, opts)
}

func (f *fakeProducts) FindOne(ctx context.Context, sel products.Selector) (*products.View, error) {
	return f.FindOneFunc(ctx, sel)
}

func (f *fakeProducts) Update(ctx context.Context, id uuid.UUID, in products.UpdateInput, files []media.File) (*products.View, error) {
	return f.UpdateFunc(ctx, id, in, files)
}

func (f *fakeProducts) Remove(ctx context.Context, id uuid.UUID) error {
	return f.RemoveFunc(ctx, id)
}

type fakeColors struct {
	CreateFunc func(ctx context.Context, in colors.CreateInput) (*colors.Color, error)
	RemoveFunc func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeColors) Create(ctx context.Context, in colors.CreateInput) (*colors.Color, error) {
	return f.CreateFunc(ctx, in)
}

func (f *fakeColors) FindAll(ctx context.Context) ([]*colors.Color, error) {
	return nil, nil
}

func (f *fakeColors) FindOne(ctx context.Context, id uuid.UUID) (*colors.Color, error) {
	return nil, apperr.NotFound("colors.findOne", "Color")
}

func (f *fakeColors) Update(ctx context.Context, id uuid.UUID, in colors.UpdateInput) (*colors.Color, error) {
	return nil, apperr.NotFound("colors.update", "Color")
}

func (f *fakeColors) Remove(ctx context.Context, id uuid.UUID) error {
	return f.RemoveFunc(ctx, id)
}

type fakeUploader struct {
	folder string
	files  []media.File
}

func (f *fakeUploader) UploadLoose(ctx context.Context, folder string, files []media.File) ([]string, []string, error) {
	f.folder = folder
	f.files = files
	names := make([]string, len(files))
	urls := make([]string, len(files))
	for i, file := range files {
		names[i] = "stored-" + file.Name
		urls[i] = "https://res.example.com/uploads/stored-" + file.Name
	}
	return names, urls, nil
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	return &application{
		config: config{
			addr: ":8080",
			env:  "test",
			auth: authConfig{basic: basicConfig{user: "admin", pass: "secret"}},
		},
		logger:        zap.NewNop().Sugar(),
		categories:    &fakeCategories{},
		products:      &fakeProducts{},
		colors:        &fakeColors{},
		files:         &fakeUploader{},
		authenticator: stubAuthenticator{},
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Minute),
	}
}

func executeRequest(app *application, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.mount().ServeHTTP(rr, req)
	return rr
}

type formFile struct {
	field, name, contentType, body string
}

func multipartBody(t *testing.T, fields map[string][]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, rr.Code, env.Status)
	return env.Message
}

func TestHealthRequiresBasicAuth(t *testing.T) {
	app := newTestApplication(t)

	rr := executeRequest(app, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:secret")))
	rr = executeRequest(app, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestWritesRequireBearerToken(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"bad token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/v1/colors/"+uuid.NewString(), nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := executeRequest(app, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestErrorResponseStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid", apperr.Invalid("op", "Cannot set parent: circular reference detected"), http.StatusBadRequest, "Cannot set parent: circular reference detected"},
		{"not found", apperr.NotFound("op", "Category"), http.StatusNotFound, "Category not found"},
		{"conflict", apperr.Conflict("op", "A category with this name already exists"), http.StatusConflict, "A category with this name already exists"},
		{"internal", apperr.Wrap(assert.AnError, apperr.EINTERNAL, "op", "An error occurred while creating category"), http.StatusInternalServerError, "An error occurred while creating category"},
		{"unclassified", assert.AnError, http.StatusInternalServerError, "An internal error occurred. Please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t)
			app.colors = &fakeColors{RemoveFunc: func(context.Context, uuid.UUID) error { return tt.err }}

			req := authed(httptest.NewRequest(http.MethodDelete, "/v1/colors/"+uuid.NewString(), nil))
			rr := executeRequest(app, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, decodeError(t, rr))
		})
	}
}

func TestCreateCategoryHandler(t *testing.T) {
	parentID := uuid.New()

	t.Run("passes form and files to the service", func(t *testing.T) {
		app := newTestApplication(t)
		var got categories.CreateInput
		var gotFiles []media.File
		app.categories = &fakeCategories{
			CreateFunc: func(_ context.Context, in categories.CreateInput, files []media.File) (*categories.Category, error) {
				got, gotFiles = in, files
				return &categories.Category{ID: uuid.New(), Name: in.Name, Slug: in.Slug, ParentID: in.ParentID, IsActive: in.IsActive}, nil
			},
		}

		body, ct := multipartBody(t, map[string][]string{
			"name":      {"Garden Tools"},
			"slug":      {"garden-tools"},
			"is_active": {"true"},
			"parent_id": {parentID.String()},
		}, formFile{"images", "rake.png", "image/png", "png-bytes"})
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/categories", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, "Garden Tools", got.Name)
		assert.Equal(t, "garden-tools", got.Slug)
		assert.True(t, got.IsActive)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, parentID, *got.ParentID)
		assert.Nil(t, got.Description)
		require.Len(t, gotFiles, 1)
		assert.Equal(t, "rake.png", gotFiles[0].Name)
		assert.NotEmpty(t, rr.Header().Get("Location"))
	})

	t.Run("defaults to inactive when is_active is omitted", func(t *testing.T) {
		app := newTestApplication(t)
		var got categories.CreateInput
		app.categories = &fakeCategories{
			CreateFunc: func(_ context.Context, in categories.CreateInput, _ []media.File) (*categories.Category, error) {
				got = in
				return &categories.Category{ID: uuid.New(), Name: in.Name, Slug: in.Slug}, nil
			},
		}

		body, ct := multipartBody(t, map[string][]string{"name": {"Tools"}, "slug": {"tools"}})
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/categories", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.False(t, got.IsActive)
	})

	t.Run("rejects names that are not whitespace normalized", func(t *testing.T) {
		tests := []struct {
			name  string
			field string
			value string
		}{
			{"leading space", "name", " Tools"},
			{"trailing space", "name", "Tools "},
			{"double space", "name", "Garden  Tools"},
			{"padded description", "description", " Handy tools "},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				app := newTestApplication(t)
				called := false
				app.categories = &fakeCategories{
					CreateFunc: func(context.Context, categories.CreateInput, []media.File) (*categories.Category, error) {
						called = true
						return nil, nil
					},
				}

				fields := map[string][]string{"name": {"Tools"}, "slug": {"tools"}}
				fields[tt.field] = []string{tt.value}
				body, ct := multipartBody(t, fields)
				req := authed(httptest.NewRequest(http.MethodPost, "/v1/categories", body))
				req.Header.Set("Content-Type", ct)

				rr := executeRequest(app, req)
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.False(t, called)
			})
		}
	})

	t.Run("rejects invalid slug before the service", func(t *testing.T) {
		app := newTestApplication(t)
		app.categories = &fakeCategories{
			CreateFunc: func(context.Context, categories.CreateInput, []media.File) (*categories.Category, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}

		body, ct := multipartBody(t, map[string][]string{"name": {"Tools"}, "slug": {"Bad Slug"}})
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/categories", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects unsupported image types", func(t *testing.T) {
		app := newTestApplication(t)
		body, ct := multipartBody(t, map[string][]string{"name": {"Tools"}, "slug": {"tools"}},
			formFile{"images", "notes.pdf", "application/pdf", "%PDF"})
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/categories", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "notes.pdf")
	})

	t.Run("rejects more than four images", func(t *testing.T) {
		app := newTestApplication(t)
		files := make([]formFile, 5)
		for i := range files {
			files[i] = formFile{"images", "img.jpg", "image/jpeg", "x"}
		}
		body, ct := multipartBody(t, map[string][]string{"name": {"Tools"}, "slug": {"tools"}}, files...)
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/categories", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUpdateCategoryHandler(t *testing.T) {
	tests := []struct {
		name  string
		field map[string][]string
		check func(t *testing.T, in categories.UpdateInput)
	}{
		{
			name:  "empty parent makes a root",
			field: map[string][]string{"parent_id": {""}},
			check: func(t *testing.T, in categories.UpdateInput) {
				assert.True(t, in.ClearParent)
				assert.Nil(t, in.ParentID)
				assert.Nil(t, in.Name)
			},
		},
		{
			name:  "empty description clears it",
			field: map[string][]string{"description": {""}},
			check: func(t *testing.T, in categories.UpdateInput) {
				require.NotNil(t, in.Description)
				assert.Equal(t, "", *in.Description)
			},
		},
		{
			name:  "existing images are kept in order",
			field: map[string][]string{"existing_images": {"a.jpg", "b.jpg", "a.jpg"}},
			check: func(t *testing.T, in categories.UpdateInput) {
				assert.Equal(t, []string{"a.jpg", "b.jpg", "a.jpg"}, in.Images)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t)
			id := uuid.New()
			var got categories.UpdateInput
			app.categories = &fakeCategories{
				UpdateFunc: func(_ context.Context, gotID uuid.UUID, in categories.UpdateInput, _ []media.File) (*categories.Category, error) {
					assert.Equal(t, id, gotID)
					got = in
					return &categories.Category{ID: id}, nil
				},
			}

			body, ct := multipartBody(t, tt.field)
			req := authed(httptest.NewRequest(http.MethodPatch, "/v1/categories/"+id.String(), body))
			req.Header.Set("Content-Type", ct)

			rr := executeRequest(app, req)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			tt.check(t, got)
		})
	}
}

func TestListCategoriesHandler(t *testing.T) {
	app := newTestApplication(t)
	var got categories.ListOptions
	app.categories = &fakeCategories{
		FindAllFunc: func(_ context.Context, opts categories.ListOptions) (params.Page[*categories.Category], error) {
			got = opts
			return params.NewPage(25, opts.Limit, []*categories.Category{{Name: "Tools"}}), nil
		},
	}

	rr := executeRequest(app, httptest.NewRequest(http.MethodGet, "/v1/categories?limit=10&offset=20&only_root=true&q=too&with_images=false", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, 20, got.Offset)
	assert.True(t, got.OnlyRoot)
	assert.Equal(t, "too", got.Query)
	assert.False(t, got.Include.Images)

	var env struct {
		Data params.Page[categories.Category] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, 25, env.Data.Count)
	assert.Equal(t, 3, env.Data.Pages)
	assert.Len(t, env.Data.Data, 1)
}

func TestGetCategoryRejectsBadID(t *testing.T) {
	app := newTestApplication(t)
	rr := executeRequest(app, httptest.NewRequest(http.MethodGet, "/v1/categories/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateProductHandler(t *testing.T) {
	categoryID := uuid.New()
	fields := map[string][]string{
		"name":        {"Trail Shoe"},
		"sku":         {"TS-1"},
		"slug":        {"trail-shoe"},
		"brand":       {"Acme"},
		"origin":      {"Italy"},
		"description": {"A light shoe"},
		"price":       {"1.250,00"},
		"category_id": {categoryID.String()},
		"dimensions":  {`{"length":"30","width":"12","height":"10","unit":"cm"}`},
		"features":    {`[{"name":"Weight","value":"2kg"}]`},
		"variants":    {`[{"sku":"ABC-1","available_quantity":5,"price":"1.250,00","color_name":"Red"}]`},
	}

	t.Run("decodes nested JSON fields", func(t *testing.T) {
		app := newTestApplication(t)
		var got products.CreateInput
		var gotFiles []media.File
		app.products = &fakeProducts{
			CreateFunc: func(_ context.Context, in products.CreateInput, files []media.File) (*products.View, error) {
				got, gotFiles = in, files
				return &products.View{ID: uuid.New(), Name: in.Name, Price: "1250.00"}, nil
			},
		}

		body, ct := multipartBody(t, fields, formFile{"images", "shoe.jpg", "image/jpeg", "jpg"})
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/products", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, categoryID, got.CategoryID)
		assert.Equal(t, "1.250,00", got.Price)
		require.NotNil(t, got.Dimensions)
		assert.Equal(t, products.UnitCentimeter, got.Dimensions.Unit)
		assert.Equal(t, []products.FeatureInput{{Name: "Weight", Value: "2kg"}}, got.Features)
		require.Len(t, got.Variants, 1)
		assert.Equal(t, "ABC-1", got.Variants[0].SKU)
		assert.Equal(t, 5, got.Variants[0].AvailableQuantity)
		assert.Equal(t, "Red", got.Variants[0].ColorName)
		assert.Len(t, gotFiles, 1)
		assert.False(t, got.IsActive)
	})

	t.Run("rejects a padded name without trimming it", func(t *testing.T) {
		app := newTestApplication(t)
		called := false
		app.products = &fakeProducts{
			CreateFunc: func(context.Context, products.CreateInput, []media.File) (*products.View, error) {
				called = true
				return nil, nil
			},
		}

		padded := make(map[string][]string, len(fields))
		for k, v := range fields {
			padded[k] = v
		}
		padded["name"] = []string{" Trail Shoe "}
		body, ct := multipartBody(t, padded)
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/products", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, called)
	})

	t.Run("malformed variants JSON", func(t *testing.T) {
		app := newTestApplication(t)
		bad := map[string][]string{}
		for k, v := range fields {
			bad[k] = v
		}
		bad["variants"] = []string{`[{"sku":`}

		body, ct := multipartBody(t, bad)
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/products", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "variants must be valid JSON")
	})

	t.Run("service precondition surfaces as bad request", func(t *testing.T) {
		app := newTestApplication(t)
		app.products = &fakeProducts{
			CreateFunc: func(context.Context, products.CreateInput, []media.File) (*products.View, error) {
				return nil, apperr.Invalid("products.create", "product must have at least one image")
			},
		}

		body, ct := multipartBody(t, fields)
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/products", body))
		req.Header.Set("Content-Type", ct)

		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "product must have at least one image", decodeError(t, rr))
	})
}

func TestUpdateProductWithoutDimensions(t *testing.T) {
	app := newTestApplication(t)
	var got products.UpdateInput
	app.products = &fakeProducts{
		UpdateFunc: func(_ context.Context, _ uuid.UUID, in products.UpdateInput, _ []media.File) (*products.View, error) {
			got = in
			return &products.View{}, nil
		},
	}

	body, ct := multipartBody(t, map[string][]string{"price": {"99.90"}})
	req := authed(httptest.NewRequest(http.MethodPatch, "/v1/products/"+uuid.NewString(), body))
	req.Header.Set("Content-Type", ct)

	rr := executeRequest(app, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotNil(t, got.Price)
	assert.Equal(t, "99.90", *got.Price)
	assert.Nil(t, got.Dimensions)
	assert.Nil(t, got.Name)
	assert.Empty(t, got.Variants)
}

func TestListProductsHandler(t *testing.T) {
	app := newTestApplication(t)
	categoryID := uuid.New()
	var got products.ListOptions
	app.products = &fakeProducts{
		FindAllFunc: func(_ context.Context, opts products.ListOptions) (params.Page[*products.View], error) {
			got = opts
			return params.NewPage[*products.View](0, opts.Limit, nil), nil
		},
	}

	rr := executeRequest(app, httptest.NewRequest(http.MethodGet, "/v1/products?category_id="+categoryID.String()+"&is_active=false&with_variants=false", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, categoryID, *got.CategoryID)
	require.NotNil(t, got.IsActive)
	assert.False(t, *got.IsActive)
	assert.Equal(t, products.Include{Images: true, Features: true}, got.Include)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestGetProductBySlug(t *testing.T) {
	app := newTestApplication(t)
	app.products = &fakeProducts{
		FindOneFunc: func(_ context.Context, sel products.Selector) (*products.View, error) {
			assert.Nil(t, sel.ID)
			assert.Equal(t, "trail-shoe", sel.Slug)
			return nil, apperr.NotFound("products.findOne", "Product")
		},
	}

	rr := executeRequest(app, httptest.NewRequest(http.MethodGet, "/v1/products/slug/trail-shoe", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Product not found", decodeError(t, rr))
}

func TestCreateColorHandler(t *testing.T) {
	t.Run("unknown fields are rejected", func(t *testing.T) {
		app := newTestApplication(t)
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/colors", strings.NewReader(`{"color_code":"red","color_name":"Red","hex":"#f00"}`)))
		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		app := newTestApplication(t)
		app.colors = &fakeColors{
			CreateFunc: func(_ context.Context, in colors.CreateInput) (*colors.Color, error) {
				assert.Equal(t, "red", in.Code)
				return nil, apperr.Conflict("colors.create", "Color already exists")
			},
		}
		req := authed(httptest.NewRequest(http.MethodPost, "/v1/colors", strings.NewReader(`{"color_code":"red","color_name":"Red"}`)))
		rr := executeRequest(app, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Color already exists", decodeError(t, rr))
	})
}

func TestUploadImagesHandler(t *testing.T) {
	app := newTestApplication(t)
	uploader := &fakeUploader{}
	app.files = uploader

	body, ct := multipartBody(t, nil,
		formFile{"files", "a.png", "image/png", "a"},
		formFile{"files", "b.gif", "image/gif", "b"},
	)
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/files/upload-images", body))
	req.Header.Set("Content-Type", ct)

	rr := executeRequest(app, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, uploadsFolder, uploader.folder)

	var env struct {
		Data uploadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, []string{"stored-a.png", "stored-b.gif"}, env.Data.FileNames)
	assert.Len(t, env.Data.FileURLs, 2)
}

func TestUploadImageRequiresFile(t *testing.T) {
	app := newTestApplication(t)
	body, ct := multipartBody(t, map[string][]string{"note": {"nothing"}})
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/files/upload-image", body))
	req.Header.Set("Content-Type", ct)

	rr := executeRequest(app, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateLimiterMiddleware(t *testing.T) {
	app := newTestApplication(t)
	app.config.rateLimiter = ratelimiter.Config{RequestsPerTimeFrame: 1, TimeFrame: time.Minute, Enabled: true}
	app.rateLimiter = ratelimiter.NewFixedWindowLimiter(1, time.Minute)
	app.colors = &fakeColors{}
	mux := app.mount()

	first := httptest.NewRecorder()
	mux.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/colors", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	mux.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/colors", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}
