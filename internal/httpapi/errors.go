package httpapi

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/rs/zerolog"

	"github.com/Solideomyers/guests-app/internal/domain"
)

const textCodeInternal = "INTERNAL_ERROR"

// toHTTPError maps err onto the response error. Internal failures are
// replaced by a generic error so storage details never reach the client.
func toHTTPError(err error) *goerrors.Error {
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())

	if mapped.Category == goerrors.CategoryInternal || mapped.Code == 0 || mapped.Code >= http.StatusInternalServerError {
		return goerrors.New("an unexpected error occurred", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(textCodeInternal)
	}

	out := mapped.Clone()
	out.Location = nil
	out.Source = nil
	return out
}

func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	httpErr := toHTTPError(err).WithRequestID(chimiddleware.GetReqID(r.Context()))

	ev := logger.Debug()
	if httpErr.Code >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", httpErr.Code).Msg("request failed")

	writeJSON(w, httpErr.Code, httpErr.ToErrorResponse(false, nil))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func badRequest(field, message string) error {
	return domain.NewValidationError(field, message)
}
