package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/railtix/tickets/internal/middleware"
)

// pathUUID binds the {name} path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid format for parameter %s", name)
	}
	return id, nil
}

// queryParam binds one form-style query parameter into dest. Optional
// parameters take a pointer destination and stay nil when absent.
func queryParam(r *http.Request, name string, required bool, dest any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		if required && !r.URL.Query().Has(name) {
			return fmt.Errorf("query parameter %s is required", name)
		}
		return fmt.Errorf("invalid format for parameter %s", name)
	}
	return nil
}

// decodeBody decodes a JSON request body into dest and writes the error
// response itself when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		requestError(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		requestError(w, "malformed JSON body")
		return false
	}
	return true
}

// authRiderID returns the rider placed in the context by the auth middleware,
// answering 401 itself when there is none.
func authRiderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.RiderID(r.Context())
	if !ok {
		writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "missing rider identity")
	}
	return id, ok
}
