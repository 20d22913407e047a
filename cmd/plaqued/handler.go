// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plaque-project/plaque/lib/codec"
	"github.com/plaque-project/plaque/lib/config"
	"github.com/plaque-project/plaque/lib/control"
	"github.com/plaque-project/plaque/lib/report"
)

// plaqueService wires the control protocol actions to the running
// generator and identity store.
type plaqueService struct {
	generator *report.Generator
	params    *report.Params
	logger    *slog.Logger
}

// register installs the action handlers on the control socket server.
func (s *plaqueService) register(server *control.SocketServer) {
	server.Handle(control.ActionIdentityGet, s.identityGet)
	server.Handle(control.ActionIdentitySet, s.identitySet)
	server.Handle(control.ActionStatus, s.status)
}

func (s *plaqueService) identityGet(ctx context.Context, raw []byte) (any, error) {
	identity := s.params.Snapshot()
	return control.IdentityResponse{
		Name:     identity.Name,
		Group:    identity.Group,
		Subgroup: identity.Subgroup,
	}, nil
}

// identitySet replaces any subset of the identity values. Changes take
// effect on the next read session; nothing is remounted or restarted.
func (s *plaqueService) identitySet(ctx context.Context, raw []byte) (any, error) {
	var request control.IdentitySetRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding identity-set request: %w", err)
	}
	if request.Name == nil && request.Group == nil && request.Subgroup == nil {
		return nil, errors.New("identity-set requires at least one of name, group, subgroup")
	}
	if request.Group != nil && *request.Group < 0 {
		return nil, fmt.Errorf("group must not be negative: %d", *request.Group)
	}
	if request.Subgroup != nil && *request.Subgroup < 0 {
		return nil, fmt.Errorf("subgroup must not be negative: %d", *request.Subgroup)
	}

	if request.Name != nil {
		s.params.SetName(*request.Name)
	}
	if request.Group != nil {
		s.params.SetGroup(*request.Group)
	}
	if request.Subgroup != nil {
		s.params.SetSubgroup(*request.Subgroup)
	}

	identity := s.params.Snapshot()
	s.logger.Info("identity reconfigured",
		"name", identity.Name,
		"group", identity.Group,
		"subgroup", identity.Subgroup,
	)
	return control.IdentityResponse{
		Name:     identity.Name,
		Group:    identity.Group,
		Subgroup: identity.Subgroup,
	}, nil
}

func (s *plaqueService) status(ctx context.Context, raw []byte) (any, error) {
	return control.StatusResponse{
		ReadCount:        s.generator.ReadCount(),
		UptimeSeconds:    int64(s.generator.Uptime() / time.Second),
		Activated:        s.generator.Activated(),
		TruncatedReports: s.generator.TruncatedReports(),
	}, nil
}

// applyIdentity applies identity values from a reloaded config file.
// The whole triple is applied: the config file, unlike identity-set,
// always carries all three values.
func (s *plaqueService) applyIdentity(identity config.IdentityConfig) {
	s.params.SetName(identity.Name)
	s.params.SetGroup(identity.Group)
	s.params.SetSubgroup(identity.Subgroup)

	applied := s.params.Snapshot()
	s.logger.Info("identity reconfigured from config file",
		"name", applied.Name,
		"group", applied.Group,
		"subgroup", applied.Subgroup,
	)
}
