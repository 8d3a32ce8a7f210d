// Package handlers holds the thin HTTP layer over the casting service.
// Authorization happens before a handler runs; handlers decode, validate,
// call the service and shape the response.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/casting-agency/utils"
	"go.uber.org/zap"
)

// maxBodyBytes caps request payloads.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// decodeBody decodes a JSON object from the request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errEmptyBody
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// decodeAndValidate decodes the body into dst and validates it, writing the
// error response itself. It reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := decodeBody(r, dst); err != nil {
		message := "invalid JSON body"
		if errors.Is(err, errEmptyBody) {
			message = err.Error()
		}
		if err := utils.WriteBadRequest(w, message); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// pathID reads the {id} path parameter.
func pathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return pathParamID(w, r, "id", logger)
}

// pathParamID reads an id path parameter. Anything other than a positive
// integer names no resource, so it answers 404.
func pathParamID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (int64, bool) {
	id, err := utils.ParseID(chi.URLParam(r, name))
	if err != nil {
		if err := utils.WriteNotFound(w, ""); err != nil {
			logger.Error("failed to write not found response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}

// CastingService is everything the actor and movie handlers need
type CastingService interface {
	ActorService
	MovieService
}
