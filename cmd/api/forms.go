package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"catalog/internal/media"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

const maxFormBytes = 15 * 1024 * 1024

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// parseForm reads a multipart (or urlencoded) body into dst and returns the
// files sent under fileField. Call cleanupForm once the files are consumed.
func parseForm(w http.ResponseWriter, r *http.Request, dst any, fileField string) ([]media.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	err := r.ParseMultipartForm(maxFormBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}

	if r.MultipartForm == nil {
		return nil, nil
	}
	files := media.FromMultipart(r.MultipartForm.File[fileField])
	if err := media.ValidateFiles(files); err != nil {
		return nil, err
	}
	return files, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// decodeJSONField unmarshals a nested object sent as a JSON string form
// value. An absent or blank field leaves dst untouched and reports false.
func decodeJSONField(field string, raw *string, dst any) (bool, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(*raw), dst); err != nil {
		return false, fmt.Errorf("%s must be valid JSON: %w", field, err)
	}
	return true, nil
}

func parseUUIDField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", field, raw)
	}
	return id, nil
}

// parseIDParam reads a uuid path parameter.
func parseIDParam(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %s", param, raw)
	}
	return id, nil
}

// sentEmpty reports whether key was sent with a blank value.
func sentEmpty(values url.Values, key string) bool {
	v, ok := values[key]
	return ok && (len(v) == 0 || strings.TrimSpace(v[len(v)-1]) == "")
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
