// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package control

// Action names understood by the plaque daemon.
const (
	// ActionIdentityGet returns the current identity values.
	ActionIdentityGet = "identity-get"

	// ActionIdentitySet replaces any subset of the identity values.
	// Omitted fields keep their current value.
	ActionIdentitySet = "identity-set"

	// ActionStatus returns the access counter and uptime.
	ActionStatus = "status"
)

// IdentitySetRequest carries the identity-set fields. Pointer fields
// distinguish "not provided" from zero values, so each value is
// independently settable.
type IdentitySetRequest struct {
	Name     *string `cbor:"name"`
	Group    *int    `cbor:"group"`
	Subgroup *int    `cbor:"subgroup"`
}

// IdentityResponse is the identity-get (and identity-set) result.
type IdentityResponse struct {
	Name     string `cbor:"name"`
	Group    int    `cbor:"group"`
	Subgroup int    `cbor:"subgroup"`
}

// StatusResponse is the status result.
type StatusResponse struct {
	ReadCount     uint64 `cbor:"read_count"`
	UptimeSeconds int64  `cbor:"uptime_seconds"`
	Activated     bool   `cbor:"activated"`

	// TruncatedReports counts reports cut at the render buffer cap.
	TruncatedReports uint64 `cbor:"truncated_reports"`
}
