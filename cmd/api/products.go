package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"catalog/internal/domain/products"
	"catalog/internal/params"

	"github.com/go-chi/chi/v5"
)

// productForm is the multipart shape of a product write. Nested values
// (dimensions, features, variants) arrive as JSON strings.
type productForm struct {
	Name           *string  `schema:"name"`
	SKU            *string  `schema:"sku"`
	Slug           *string  `schema:"slug"`
	Brand          *string  `schema:"brand"`
	Origin         *string  `schema:"origin"`
	Description    *string  `schema:"description"`
	Price          *string  `schema:"price"`
	IsActive       *bool    `schema:"is_active"`
	CategoryID     *string  `schema:"category_id"`
	Dimensions     *string  `schema:"dimensions"`
	Features       *string  `schema:"features"`
	Variants       *string  `schema:"variants"`
	ExistingImages []string `schema:"existing_images"`
}

func (f productForm) createInput() (products.CreateInput, error) {
	in := products.CreateInput{
		Name:        deref(f.Name),
		SKU:         deref(f.SKU),
		Slug:        deref(f.Slug),
		Brand:       deref(f.Brand),
		Origin:      deref(f.Origin),
		Description: deref(f.Description),
		Price:       deref(trimmed(f.Price)),
		IsActive:    f.IsActive != nil && *f.IsActive,
	}
	if c := trimmed(f.CategoryID); c != nil && *c != "" {
		id, err := parseUUIDField("category_id", *c)
		if err != nil {
			return in, err
		}
		in.CategoryID = id
	}

	var dims products.DimensionsInput
	ok, err := decodeJSONField("dimensions", f.Dimensions, &dims)
	if err != nil {
		return in, err
	}
	if ok {
		in.Dimensions = &dims
	}
	if _, err := decodeJSONField("features", f.Features, &in.Features); err != nil {
		return in, err
	}
	if _, err := decodeJSONField("variants", f.Variants, &in.Variants); err != nil {
		return in, err
	}
	return in, nil
}

func (f productForm) updateInput() (products.UpdateInput, error) {
	in := products.UpdateInput{
		Name:        f.Name,
		SKU:         f.SKU,
		Slug:        f.Slug,
		Brand:       f.Brand,
		Origin:      f.Origin,
		Description: f.Description,
		Price:       trimmed(f.Price),
		IsActive:    f.IsActive,
		Images:      f.ExistingImages,
	}
	if c := trimmed(f.CategoryID); c != nil && *c != "" {
		id, err := parseUUIDField("category_id", *c)
		if err != nil {
			return in, err
		}
		in.CategoryID = &id
	}

	var dims products.DimensionsInput
	ok, err := decodeJSONField("dimensions", f.Dimensions, &dims)
	if err != nil {
		return in, err
	}
	if ok {
		in.Dimensions = &dims
	}
	if _, err := decodeJSONField("features", f.Features, &in.Features); err != nil {
		return in, err
	}
	if _, err := decodeJSONField("variants", f.Variants, &in.Variants); err != nil {
		return in, err
	}
	return in, nil
}

func productListOptions(r *http.Request) (products.ListOptions, error) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	opts := products.ListOptions{
		Query:  strings.TrimSpace(q.Get("q")),
		Limit:  p.Limit,
		Offset: p.Offset,
		Include: products.Include{
			Images:   params.Bool(q, "with_images", true),
			Features: params.Bool(q, "with_features", true),
			Variants: params.Bool(q, "with_variants", true),
		},
	}
	if raw := strings.TrimSpace(q.Get("category_id")); raw != "" {
		id, err := parseUUIDField("category_id", raw)
		if err != nil {
			return opts, err
		}
		opts.CategoryID = &id
	}
	if q.Get("is_active") != "" {
		active := params.Bool(q, "is_active", true)
		opts.IsActive = &active
	}
	return opts, nil
}

// CreateProduct godoc
//
//	@Summary		Create a product
//	@Description	Creates a product with its features, dimensions and variants in one transaction, then uploads its images.
//	@Description	Variants name their color; unknown colors are created.
//	@Tags			Product
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name		formData	string			true	"Product name"
//	@Param			sku			formData	string			true	"Product SKU"
//	@Param			slug		formData	string			true	"Lowercase slug, 3-50 chars"
//	@Param			brand		formData	string			true	"Brand"
//	@Param			origin		formData	string			true	"Country of origin"
//	@Param			description	formData	string			true	"Description"
//	@Param			price		formData	string			true	"Price, e.g. 1.250,00 or 1250.00"
//	@Param			is_active	formData	bool			false	"Active flag (default true)"
//	@Param			category_id	formData	string			true	"Category id"
//	@Param			dimensions	formData	string			false	"Dimensions (JSON object)"
//	@Param			features	formData	string			false	"Features (JSON array)"
//	@Param			variants	formData	string			true	"Variants (JSON array, at least one)"
//	@Param			images		formData	[]file			true	"Product images (1 to 4 files)"
//	@Success		201			{object}	products.View	"Product created"
//	@Failure		400			{object}	error			"Invalid payload"
//	@Failure		404			{object}	error			"Category not found"
//	@Failure		409			{object}	error			"Name, SKU or slug already taken"
//	@Failure		500			{object}	error			"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var form productForm
	files, err := parseForm(w, r, &form, "images")
	defer cleanupForm(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	in, err := form.createInput()
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	product, err := app.products.Create(ctx, in, files)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/products/"+product.ID.String())
	if err := app.jsonResponse(w, http.StatusCreated, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListProducts godoc
//
//	@Summary		List products
//	@Description	Paginated list ordered by name. Relations are loaded unless switched off.
//	@Tags			Product
//	@Produce		json
//	@Param			q				query		string	false	"Case-insensitive name search"
//	@Param			limit			query		int		false	"Page size (default 10, max 100)"
//	@Param			offset			query		int		false	"Rows to skip"
//	@Param			category_id		query		string	false	"Only products of this category"
//	@Param			is_active		query		bool	false	"Filter by active flag"
//	@Param			with_images		query		bool	false	"Load images (default true)"
//	@Param			with_features	query		bool	false	"Load features (default true)"
//	@Param			with_variants	query		bool	false	"Load variants (default true)"
//	@Success		200				{object}	params.Page[products.View]
//	@Failure		400				{object}	error	"Invalid query"
//	@Failure		500				{object}	error	"Internal server error"
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := productListOptions(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	page, err := app.products.FindAll(r.Context(), opts)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, page); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetProduct godoc
//
//	@Summary	Get a product with all its relations
//	@Tags		Product
//	@Produce	json
//	@Param		productID	path		string	true	"Product id"
//	@Success	200			{object}	products.View
//	@Failure	400			{object}	error	"Invalid id"
//	@Failure	404			{object}	error	"Product not found"
//	@Failure	500			{object}	error	"Internal server error"
//	@Router		/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.products.FindOne(r.Context(), products.Selector{ID: &id})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetProductBySlug godoc
//
//	@Summary	Get a product by slug
//	@Tags		Product
//	@Produce	json
//	@Param		slug	path		string	true	"Product slug"
//	@Success	200		{object}	products.View
//	@Failure	404		{object}	error	"Product not found"
//	@Failure	500		{object}	error	"Internal server error"
//	@Router		/products/slug/{slug} [get]
func (app *application) getProductBySlugHandler(w http.ResponseWriter, r *http.Request) {
	product, err := app.products.FindOne(r.Context(), products.Selector{Slug: chi.URLParam(r, "slug")})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateProduct godoc
//
//	@Summary		Update a product
//	@Description	Partial update. Omitting dimensions deletes them. Non-empty features or variants replace the current ones.
//	@Description	The stored image set becomes existing_images plus the uploaded files.
//	@Tags			Product
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID		path		string			true	"Product id"
//	@Param			name			formData	string			false	"Product name"
//	@Param			sku				formData	string			false	"Product SKU"
//	@Param			slug			formData	string			false	"Slug"
//	@Param			brand			formData	string			false	"Brand"
//	@Param			origin			formData	string			false	"Country of origin"
//	@Param			description		formData	string			false	"Description"
//	@Param			price			formData	string			false	"Price"
//	@Param			is_active		formData	bool			false	"Active flag"
//	@Param			category_id		formData	string			false	"Category id"
//	@Param			dimensions		formData	string			false	"Dimensions (JSON object)"
//	@Param			features		formData	string			false	"Features (JSON array)"
//	@Param			variants		formData	string			false	"Variants (JSON array)"
//	@Param			existing_images	formData	[]string		false	"Image names to keep"
//	@Param			images			formData	[]file			false	"New images (up to 4 files)"
//	@Success		200				{object}	products.View	"Product updated"
//	@Failure		400				{object}	error			"Invalid payload"
//	@Failure		404				{object}	error			"Product or category not found"
//	@Failure		409				{object}	error			"Name, SKU or slug already taken"
//	@Failure		500				{object}	error			"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [patch]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var form productForm
	files, err := parseForm(w, r, &form, "images")
	defer cleanupForm(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	in, err := form.updateInput()
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	product, err := app.products.Update(ctx, id, in, files)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteProduct godoc
//
//	@Summary		Delete a product
//	@Description	Removes the product with its features, dimensions, variants and image rows, then its stored images.
//	@Tags			Product
//	@Param			productID	path	string	true	"Product id"
//	@Success		204			"Product deleted"
//	@Failure		400			{object}	error	"Invalid id"
//	@Failure		404			{object}	error	"Product not found"
//	@Failure		500			{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.products.Remove(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
