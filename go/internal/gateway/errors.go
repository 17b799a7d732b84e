package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/mailerr"
	"github.com/mcdev12/mailagent/go/internal/session"
)

var errJobNotFound = errors.New("scheduled job not found")

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Kind    mailerr.Kind `json:"kind"`
	Message string       `json:"message"`
}

func statusFor(err error) int {
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, errJobNotFound) {
		return http.StatusNotFound
	}
	switch mailerr.KindOf(err) {
	case mailerr.KindInvalidInput:
		return http.StatusBadRequest
	case mailerr.KindConfig:
		return http.StatusServiceUnavailable
	case mailerr.KindModel, mailerr.KindEmptyResponse, mailerr.KindMalformedOutput,
		mailerr.KindIncompleteDraft, mailerr.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) *ErrorBody {
	return &ErrorBody{Kind: mailerr.KindOf(err), Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]*ErrorBody{"error": errorBody(err)})
}
