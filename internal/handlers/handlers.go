package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/session"
)

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, logger *slog.Logger, v any) {
	_, err := SendJSON(w, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error(
			"unable to send response",
			slog.Any("response", v),
			slog.Any("error", err),
		)
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrMapNotFound),
		errors.Is(err, catalog.ErrEmptyCatalog),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrNoModes),
		errors.Is(err, session.ErrNoSuchMode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sendError replies with the status matching err. Unexpected errors are
// logged and hidden from the client.
func sendError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := errorStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
		err = errors.New(http.StatusText(status))
	}
	if encErr := json.NewEncoder(w).Encode(wrapError(err)); encErr != nil {
		logger.Error("unable to send error", slog.Any("error", encErr))
	}
}

func badRequest(w http.ResponseWriter, logger *slog.Logger, err error) {
	w.WriteHeader(http.StatusBadRequest)
	sendJSONOrLog(w, logger, wrapError(err))
}
