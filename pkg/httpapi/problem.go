package httpapi

import (
	"encoding/json"
	"net/http"
)

// Problem is the uniform failure body for the directory API. Handlers pick
// from the fixed vocabulary below instead of composing ad-hoc errors, so
// clients see a small stable surface and internals never leak.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	status int
}

// Write emits the problem with its associated HTTP status.
func (p Problem) Write(w http.ResponseWriter) error {
	return WriteJSON(w, p.status, p)
}

// NotFound covers lookups of a named entity kind, e.g. "department".
func NotFound(kind string) Problem {
	return Problem{Code: "not_found", Message: kind + " not found", status: http.StatusNotFound}
}

// UnknownSlug is the resolver miss. It does not say which index missed.
func UnknownSlug() Problem {
	return Problem{Code: "not_found", Message: "no entity for slug", status: http.StatusNotFound}
}

// InvalidID covers unparseable numeric path parameters.
func InvalidID(kind string) Problem {
	return Problem{Code: "bad_request", Message: "invalid " + kind + " id", status: http.StatusBadRequest}
}

// SubmissionRejected is the single opaque contact failure. Every rejection
// reason maps here so probing the form reveals nothing about the directory.
func SubmissionRejected() Problem {
	return Problem{Code: "rejected", Message: "submission not accepted", status: http.StatusUnprocessableEntity}
}

func UnknownRoute() Problem {
	return Problem{Code: "not_found", Message: "no such route", status: http.StatusNotFound}
}

func MethodNotAllowed() Problem {
	return Problem{Code: "method_not_allowed", Message: "method not allowed", status: http.StatusMethodNotAllowed}
}

// WriteJSON writes a payload with the JSON content type. Success responses
// use it directly; failures go through Problem.Write.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}
