package main

import (
	"net/http"

	"catalog/internal/domain/colors"
)

// CreateColor godoc
//
//	@Summary	Create a color
//	@Tags		Color
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		colors.CreateInput	true	"Color code and name"
//	@Success	201		{object}	colors.Color		"Color created"
//	@Failure	400		{object}	error				"Invalid payload"
//	@Failure	409		{object}	error				"Color already exists"
//	@Failure	500		{object}	error				"Internal server error"
//	@Security	ApiKeyAuth
//	@Router		/colors [post]
func (app *application) createColorHandler(w http.ResponseWriter, r *http.Request) {
	var payload colors.CreateInput
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	color, err := app.colors.Create(r.Context(), payload)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, color); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListColors godoc
//
//	@Summary	List colors
//	@Tags		Color
//	@Produce	json
//	@Success	200	{array}		colors.Color
//	@Failure	500	{object}	error	"Internal server error"
//	@Router		/colors [get]
func (app *application) listColorsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.colors.FindAll(r.Context())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if list == nil {
		list = []*colors.Color{}
	}
	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetColor godoc
//
//	@Summary	Get a color
//	@Tags		Color
//	@Produce	json
//	@Param		colorID	path		string	true	"Color id"
//	@Success	200		{object}	colors.Color
//	@Failure	400		{object}	error	"Invalid id"
//	@Failure	404		{object}	error	"Color not found"
//	@Failure	500		{object}	error	"Internal server error"
//	@Router		/colors/{colorID} [get]
func (app *application) getColorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "colorID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	color, err := app.colors.FindOne(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, color); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateColor godoc
//
//	@Summary	Update a color
//	@Tags		Color
//	@Accept		json
//	@Produce	json
//	@Param		colorID	path		string				true	"Color id"
//	@Param		payload	body		colors.UpdateInput	true	"Fields to change"
//	@Success	200		{object}	colors.Color		"Color updated"
//	@Failure	400		{object}	error				"Invalid payload"
//	@Failure	404		{object}	error				"Color not found"
//	@Failure	409		{object}	error				"Color already exists"
//	@Failure	500		{object}	error				"Internal server error"
//	@Security	ApiKeyAuth
//	@Router		/colors/{colorID} [patch]
func (app *application) updateColorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "colorID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload colors.UpdateInput
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	color, err := app.colors.Update(r.Context(), id, payload)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, color); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteColor godoc
//
//	@Summary	Delete a color
//	@Tags		Color
//	@Param		colorID	path	string	true	"Color id"
//	@Success	204		"Color deleted"
//	@Failure	400		{object}	error	"Invalid id"
//	@Failure	404		{object}	error	"Color not found"
//	@Failure	409		{object}	error	"Color used by product variants"
//	@Failure	500		{object}	error	"Internal server error"
//	@Security	ApiKeyAuth
//	@Router		/colors/{colorID} [delete]
func (app *application) deleteColorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "colorID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.colors.Remove(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
