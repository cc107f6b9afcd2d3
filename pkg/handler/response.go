package handler

import (
	"encoding/json"
	"maps"
	"net/http"
)

// Response renders itself to the writer.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, j.status, j.body)
}

// JSON renders v with status 200.
func JSON(v any) Response {
	return jsonResponse{status: http.StatusOK, body: v}
}

// JSONStatus renders v with the given status.
func JSONStatus(status int, v any) Response {
	return jsonResponse{status: status, body: v}
}

// Success renders {"success": true} merged with fields.
func Success(fields map[string]any) Response {
	body := map[string]any{"success": true}
	maps.Copy(body, fields)
	return JSON(body)
}

type errorResponse struct {
	err HTTPError
}

func (e errorResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	return WriteError(w, e.err)
}

// Error renders an HTTPError as the error envelope.
func Error(err HTTPError) Response {
	return errorResponse{err: err}
}

// WriteError writes {"success": false, "error": message, ...fields}.
func WriteError(w http.ResponseWriter, err HTTPError) error {
	body := make(map[string]any, len(err.Fields)+2)
	maps.Copy(body, err.Fields)
	body["success"] = false
	body["error"] = err.Error()
	return writeJSON(w, err.Code, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type failure struct {
	err error
}

func (f failure) Render(w http.ResponseWriter, _ *http.Request) error {
	return WriteError(w, Classify(f.err))
}

// Fail returns err to Wrap, which classifies it with the configured
// ErrorMappers. Rendered directly it falls back to Classify defaults.
func Fail(err error) Response {
	return failure{err: err}
}
