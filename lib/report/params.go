// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package report

import "sync"

// DefaultName is used when no name is configured.
const DefaultName = "unknown"

// Identity is an immutable snapshot of the configured identity values.
type Identity struct {
	Name     string
	Group    int
	Subgroup int
}

// Params holds the externally adjustable identity values. All methods
// are safe for concurrent use: the control socket and the config
// watcher both write while read sessions snapshot.
type Params struct {
	mu       sync.RWMutex
	identity Identity
}

// NewParams creates a Params store with the given initial values. An
// empty name falls back to DefaultName.
func NewParams(name string, group, subgroup int) *Params {
	if name == "" {
		name = DefaultName
	}
	return &Params{identity: Identity{
		Name:     name,
		Group:    group,
		Subgroup: subgroup,
	}}
}

// SetName replaces the configured name. An empty name falls back to
// DefaultName.
func (p *Params) SetName(name string) {
	if name == "" {
		name = DefaultName
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity.Name = name
}

// SetGroup replaces the configured group number.
func (p *Params) SetGroup(group int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity.Group = group
}

// SetSubgroup replaces the configured subgroup number.
func (p *Params) SetSubgroup(subgroup int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity.Subgroup = subgroup
}

// Snapshot returns the current identity as one consistent value. A
// report rendered from a snapshot never mixes old and new values,
// even when a reconfiguration lands mid-render.
func (p *Params) Snapshot() Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity
}
