package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	ContentTypeJSON    = "application/json; charset=utf-8"
	ContentTypeProblem = "application/problem+json"
)

type envelope map[string]any

func JSON(w http.ResponseWriter, status int, v any) {
	writeJSON(w, ContentTypeJSON, status, v)
}

// Success writes {"success": true} merged with fields.
func Success(w http.ResponseWriter, status int, fields map[string]any) {
	body := envelope{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}

// Error writes {"error": code, "message": msg}; message is omitted when empty.
func Error(w http.ResponseWriter, status int, code, msg string) {
	ErrorWith(w, status, code, msg, nil)
}

func ErrorWith(w http.ResponseWriter, status int, code, msg string, extra map[string]any) {
	body := envelope{"error": code}
	if msg != "" {
		body["message"] = msg
	}
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, status, body)
}

// Problem is an RFC 7807 body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, ContentTypeProblem, status, Problem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, contentType string, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}
