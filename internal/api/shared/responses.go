package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
)

// ErrorResponse is the body of every non-2xx answer. Code is one of the
// stable codes clients branch on; Error is for humans.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	TraceID string `json:"trace_id,omitempty"`
}

// ResponseOption tweaks how RespondWithErrorAndLog logs.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevateLogLevel bool
}

// WithElevatedLogLevel logs a 4xx at WARN instead of DEBUG. The auth
// middleware uses it for rejected tokens.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// RespondWithJSON writes data as the JSON body with the given status.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes an ErrorResponse stamped with the request's trace ID.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logger.FromContext(r.Context()).Debug("sending error response",
		"status_code", status,
		"code", code,
		"message", message,
		"path", r.URL.Path,
		"method", r.Method)

	writeError(w, r, status, code, message)
}

// RespondWithErrorAndLog writes an ErrorResponse carrying only userMessage
// and logs err in redacted form. 5xx logs at ERROR, 409 at WARN, other 4xx
// at DEBUG unless WithElevatedLogLevel is passed.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	code string,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	var o responseOptions
	for _, opt := range opts {
		opt(&o)
	}

	attrs := []slog.Attr{
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("code", code),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	logger.FromContext(r.Context()).LogAttrs(r.Context(), errorLogLevel(status, o), "API error response", attrs...)

	writeError(w, r, status, code, userMessage)
}

func errorLogLevel(status int, o responseOptions) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusConflict:
		return slog.LevelWarn
	case o.elevateLogLevel && status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    code,
		TraceID: GetTraceID(r.Context()),
	})
}
