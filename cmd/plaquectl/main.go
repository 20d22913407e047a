// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/plaque-project/plaque/lib/config"
	"github.com/plaque-project/plaque/lib/control"
	"github.com/plaque-project/plaque/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("plaquectl", pflag.ContinueOnError)
	socketPath := flags.StringP("socket", "s", config.Default().SocketPath, "control socket path")
	name := flags.String("name", "", "identity name to set")
	group := flags.Int("group", 0, "identity group number to set")
	subgroup := flags.Int("subgroup", 0, "identity subgroup number to set")
	showVersion := flags.Bool("version", false, "print version information and exit")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: plaquectl [flags] <get|set|status>\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if *showVersion {
		fmt.Printf("plaquectl %s\n", version.Info())
		return nil
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("expected exactly one command, got %d", flags.NArg())
	}
	command := flags.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := control.NewClient(*socketPath)

	switch command {
	case "get":
		var identity control.IdentityResponse
		if err := client.Call(ctx, control.ActionIdentityGet, nil, &identity); err != nil {
			return err
		}
		printIdentity(identity)
		return nil

	case "set":
		fields := make(map[string]any)
		if flags.Changed("name") {
			fields["name"] = *name
		}
		if flags.Changed("group") {
			fields["group"] = *group
		}
		if flags.Changed("subgroup") {
			fields["subgroup"] = *subgroup
		}
		if len(fields) == 0 {
			return fmt.Errorf("set requires at least one of --name, --group, --subgroup")
		}
		var identity control.IdentityResponse
		if err := client.Call(ctx, control.ActionIdentitySet, fields, &identity); err != nil {
			return err
		}
		printIdentity(identity)
		return nil

	case "status":
		var status control.StatusResponse
		if err := client.Call(ctx, control.ActionStatus, nil, &status); err != nil {
			return err
		}
		fmt.Printf("read count: %d\n", status.ReadCount)
		fmt.Printf("uptime:     %d seconds\n", status.UptimeSeconds)
		fmt.Printf("activated:  %t\n", status.Activated)
		if status.TruncatedReports > 0 {
			fmt.Printf("truncated:  %d reports\n", status.TruncatedReports)
		}
		return nil

	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printIdentity(identity control.IdentityResponse) {
	fmt.Printf("name:     %s\n", identity.Name)
	fmt.Printf("group:    %d\n", identity.Group)
	fmt.Printf("subgroup: %d\n", identity.Subgroup)
}
