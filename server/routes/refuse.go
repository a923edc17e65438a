// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import "net/http"

// Refusal is the body of a request turned away before reaching a route.
type Refusal struct {
	Reason string `json:"reason"`
}

// Refuse answers with status and reason. Refusals depend on the client's
// recent traffic, so they are never cached.
func Refuse(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Cache-Control", "no-store")

	_ = writeJSON(w, status, Refusal{Reason: reason})
}
