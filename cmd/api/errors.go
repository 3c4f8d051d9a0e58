package main

import (
	"errors"
	"net/http"

	"catalog/internal/apperr"
)

// errorResponse writes err using the status that matches its application
// code. Anything outside the taxonomy is treated as an internal error.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.Code(err) {
	case apperr.EINVALID:
		app.badRequestResponse(w, r, err)
	case apperr.ENOTFOUND:
		app.notFoundResponse(w, r, err)
	case apperr.ECONFLICT:
		app.conflictResponse(w, r, err)
	case apperr.EUNAUTHORIZED:
		app.unauthorizedErrorResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "op", apperr.Op(err), "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, apperr.Message(err))
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, publicMessage(err))
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, publicMessage(err))
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, publicMessage(err))
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// publicMessage prefers the message of an application error and falls back
// to the raw error text for parse and validation failures raised here.
func publicMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
