package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalog/internal/media"
)

const uploadsFolder = "uploads"

type uploadResponse struct {
	FileNames []string `json:"file_names"`
	FileURLs  []string `json:"file_urls"`
}

// UploadImage godoc
//
//	@Summary		Upload one image
//	@Description	Stores an image outside any entity folder and returns its name and URL.
//	@Tags			File
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file			true	"Image (jpg, jpeg, png or gif)"
//	@Success		201		{object}	uploadResponse	"Image uploaded"
//	@Failure		400		{object}	error			"Missing or invalid file"
//	@Failure		401		{object}	error			"Unauthorized"
//	@Failure		500		{object}	error			"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/files/upload-image [post]
func (app *application) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	app.handleUpload(w, r, "file", 1)
}

// UploadImages godoc
//
//	@Summary		Upload up to 4 images
//	@Tags			File
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files	formData	[]file			true	"Images (jpg, jpeg, png or gif)"
//	@Success		201		{object}	uploadResponse	"Images uploaded"
//	@Failure		400		{object}	error			"Missing or invalid files"
//	@Failure		401		{object}	error			"Unauthorized"
//	@Failure		500		{object}	error			"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/files/upload-images [post]
func (app *application) uploadImagesHandler(w http.ResponseWriter, r *http.Request) {
	app.handleUpload(w, r, "files", media.MaxFilesPerRequest)
}

func (app *application) handleUpload(w http.ResponseWriter, r *http.Request, field string, limit int) {
	var none struct{}
	files, err := parseForm(w, r, &none, field)
	defer cleanupForm(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	switch {
	case len(files) == 0:
		app.badRequestResponse(w, r, fmt.Errorf("no file uploaded in field %q", field))
		return
	case len(files) > limit:
		app.badRequestResponse(w, r, fmt.Errorf("at most %d file(s) allowed in field %q", limit, field))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	names, urls, err := app.files.UploadLoose(ctx, uploadsFolder, files)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, uploadResponse{FileNames: names, FileURLs: urls}); err != nil {
		app.internalServerError(w, r, err)
	}
}
