package main

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog/internal/domain/categories"
	"catalog/internal/params"

	"github.com/go-chi/chi/v5"
)

type categoryForm struct {
	Name           *string  `schema:"name"`
	Slug           *string  `schema:"slug"`
	Description    *string  `schema:"description"`
	IsActive       *bool    `schema:"is_active"`
	ParentID       *string  `schema:"parent_id"`
	ExistingImages []string `schema:"existing_images"`
}

func (f categoryForm) createInput() (categories.CreateInput, error) {
	in := categories.CreateInput{
		Name:     deref(f.Name),
		Slug:     deref(f.Slug),
		IsActive: f.IsActive != nil && *f.IsActive,
	}
	if d := f.Description; d != nil && *d != "" {
		in.Description = d
	}
	if p := trimmed(f.ParentID); p != nil && *p != "" {
		id, err := parseUUIDField("parent_id", *p)
		if err != nil {
			return in, err
		}
		in.ParentID = &id
	}
	return in, nil
}

// updateInput reads values as well: a blank description or parent_id means
// clear, and the decoded form cannot tell blank from absent.
func (f categoryForm) updateInput(values url.Values) (categories.UpdateInput, error) {
	in := categories.UpdateInput{
		Name:        f.Name,
		Slug:        f.Slug,
		IsActive:    f.IsActive,
		Description: f.Description,
		Images:      f.ExistingImages,
	}
	if sentEmpty(values, "description") {
		empty := ""
		in.Description = &empty
	}

	switch p := trimmed(f.ParentID); {
	case sentEmpty(values, "parent_id"), p != nil && *p == "null":
		in.ClearParent = true
	case p != nil:
		id, err := parseUUIDField("parent_id", *p)
		if err != nil {
			return in, err
		}
		in.ParentID = &id
	}
	return in, nil
}

func categoryListOptions(r *http.Request) (categories.ListOptions, error) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	opts := categories.ListOptions{
		Query:        strings.TrimSpace(q.Get("q")),
		Limit:        p.Limit,
		Offset:       p.Offset,
		OnlyRoot:     params.Bool(q, "only_root", false),
		OnlyChildren: params.Bool(q, "only_children", false),
		Include:      categoryInclude(r, false),
	}
	if raw := strings.TrimSpace(q.Get("exclude_id")); raw != "" {
		id, err := parseUUIDField("exclude_id", raw)
		if err != nil {
			return opts, err
		}
		opts.ExcludeID = &id
	}
	return opts, nil
}

func categoryInclude(r *http.Request, detail bool) categories.Include {
	q := r.URL.Query()
	return categories.Include{
		Images:       params.Bool(q, "with_images", true),
		Products:     params.Bool(q, "with_products", detail),
		ProductCount: params.Bool(q, "with_product_count", detail),
	}
}

// CreateCategory godoc
//
//	@Summary		Create a category
//	@Description	Creates a root category or, with parent_id, a child of a root category. Up to 4 images.
//	@Tags			Category
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name		formData	string				true	"Category name"
//	@Param			slug		formData	string				true	"Lowercase slug, 3-50 chars"
//	@Param			description	formData	string				false	"Description"
//	@Param			is_active	formData	bool				false	"Active flag (default true)"
//	@Param			parent_id	formData	string				false	"Parent category id"
//	@Param			images		formData	[]file				false	"Category images (up to 4 files)"
//	@Success		201			{object}	categories.Category	"Category created"
//	@Failure		400			{object}	error				"Invalid payload or hierarchy"
//	@Failure		404			{object}	error				"Parent category not found"
//	@Failure		409			{object}	error				"Name or slug already taken"
//	@Failure		500			{object}	error				"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var form categoryForm
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

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	category, err := app.categories.Create(ctx, in, files)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/categories/"+category.ID.String())
	if err := app.jsonResponse(w, http.StatusCreated, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListCategories godoc
//
//	@Summary		List categories
//	@Description	Paginated list ordered by name. Each category carries its children with the same relations.
//	@Tags			Category
//	@Produce		json
//	@Param			q					query		string	false	"Case-insensitive name search"
//	@Param			limit				query		int		false	"Page size (default 10, max 100)"
//	@Param			offset				query		int		false	"Rows to skip"
//	@Param			only_root			query		bool	false	"Only root categories"
//	@Param			only_children		query		bool	false	"Only child categories"
//	@Param			exclude_id			query		string	false	"Category id to leave out"
//	@Param			with_images			query		bool	false	"Load images (default true)"
//	@Param			with_products		query		bool	false	"Load product summaries"
//	@Param			with_product_count	query		bool	false	"Load product counts"
//	@Success		200					{object}	params.Page[categories.Category]
//	@Failure		400					{object}	error	"Invalid query"
//	@Failure		500					{object}	error	"Internal server error"
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := categoryListOptions(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	page, err := app.categories.FindAll(r.Context(), opts)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, page); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetCategory godoc
//
//	@Summary		Get a category
//	@Tags			Category
//	@Produce		json
//	@Param			categoryID			path		string	true	"Category id"
//	@Param			with_images			query		bool	false	"Load images (default true)"
//	@Param			with_products		query		bool	false	"Load product summaries (default true)"
//	@Param			with_product_count	query		bool	false	"Load product count (default true)"
//	@Success		200					{object}	categories.Category
//	@Failure		400					{object}	error	"Invalid id"
//	@Failure		404					{object}	error	"Category not found"
//	@Failure		500					{object}	error	"Internal server error"
//	@Router			/categories/{categoryID} [get]
func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, err := app.categories.FindOne(r.Context(), id, categoryInclude(r, true))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetCategoryBySlug godoc
//
//	@Summary	Get a category by slug
//	@Tags		Category
//	@Produce	json
//	@Param		slug	path		string	true	"Category slug"
//	@Success	200		{object}	categories.Category
//	@Failure	404		{object}	error	"Category not found"
//	@Failure	500		{object}	error	"Internal server error"
//	@Router		/categories/slug/{slug} [get]
func (app *application) getCategoryBySlugHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	category, err := app.categories.FindBySlug(r.Context(), slug, categoryInclude(r, true))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateCategory godoc
//
//	@Summary		Update a category
//	@Description	Partial update. Send parent_id empty to make the category a root. The stored image set becomes existing_images plus the uploaded files.
//	@Tags			Category
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			categoryID		path		string				true	"Category id"
//	@Param			name			formData	string				false	"Category name"
//	@Param			slug			formData	string				false	"Slug"
//	@Param			description		formData	string				false	"Description, empty to clear"
//	@Param			is_active		formData	bool				false	"Active flag"
//	@Param			parent_id		formData	string				false	"Parent category id, empty for root"
//	@Param			existing_images	formData	[]string			false	"Image names to keep"
//	@Param			images			formData	[]file				false	"New images (up to 4 files)"
//	@Success		200				{object}	categories.Category	"Category updated"
//	@Failure		400				{object}	error				"Invalid payload or hierarchy"
//	@Failure		404				{object}	error				"Category not found"
//	@Failure		409				{object}	error				"Name or slug already taken"
//	@Failure		500				{object}	error				"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID} [patch]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var form categoryForm
	files, err := parseForm(w, r, &form, "images")
	defer cleanupForm(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	in, err := form.updateInput(r.PostForm)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	category, err := app.categories.Update(ctx, id, in, files)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteCategory godoc
//
//	@Summary		Delete a category
//	@Description	Fails while products or child categories reference it. Stored images are removed afterwards.
//	@Tags			Category
//	@Param			categoryID	path	string	true	"Category id"
//	@Success		204			"Category deleted"
//	@Failure		400			{object}	error	"Invalid id"
//	@Failure		404			{object}	error	"Category not found"
//	@Failure		409			{object}	error	"Category still in use"
//	@Failure		500			{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.categories.Remove(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
