// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"codeberg.org/tscat/tscat/core/lrucache"
	"codeberg.org/tscat/tscat/registry"
)

// maxRequestBodySize bounds JSON request bodies.
const maxRequestBodySize = 1 << 20

// Handlers serves the API for the catalogs of Registry.
type Handlers struct {
	Registry *registry.Registry

	// Exports caches rendered catalog exports. Nil disables caching.
	Exports *lrucache.Cache
}

// writeJSON writes v as the JSON body of a response with statusCode.
func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	return nil
}

// readJSON decodes the JSON body of r into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}

	return nil
}
