// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/plaque-project/plaque/lib/clock"
	"github.com/plaque-project/plaque/lib/config"
	"github.com/plaque-project/plaque/lib/control"
	"github.com/plaque-project/plaque/lib/plaquefs"
	"github.com/plaque-project/plaque/lib/report"
	"github.com/plaque-project/plaque/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")

	var (
		configPath  string
		mountpoint  string
		fileName    string
		socketPath  string
		name        string
		group       int
		subgroup    int
		allowOther  bool
		watchConfig bool
	)
	flag.StringVar(&configPath, "config", "", "path to YAML config file (optional)")
	flag.StringVar(&mountpoint, "mountpoint", "", "mount directory for the plaque filesystem (overrides config)")
	flag.StringVar(&fileName, "file-name", "", "name of the status file inside the mountpoint (overrides config)")
	flag.StringVar(&socketPath, "socket", "", "Unix socket path for the control protocol (overrides config)")
	flag.StringVar(&name, "name", "", "identity name (overrides config)")
	flag.IntVar(&group, "group", 0, "identity group number (overrides config)")
	flag.IntVar(&subgroup, "subgroup", 0, "identity subgroup number (overrides config)")
	flag.BoolVar(&allowOther, "allow-other", false, "permit other users to read the mount (overrides config)")
	flag.BoolVar(&watchConfig, "watch-config", false, "reload identity values when the config file is rewritten")
	flag.Parse()

	if showVersion {
		fmt.Printf("plaqued %s\n", version.Info())
		return nil
	}

	logger := newLogger()

	configuration := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		configuration = *loaded
	}
	if watchConfig && configPath == "" {
		return fmt.Errorf("--watch-config requires --config")
	}

	// Flags set on the command line override the config file. Only
	// flags the operator actually passed are applied, so a zero value
	// from an unset flag never clobbers a configured one.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mountpoint":
			configuration.Mountpoint = mountpoint
		case "file-name":
			configuration.FileName = fileName
		case "socket":
			configuration.SocketPath = socketPath
		case "name":
			configuration.Identity.Name = name
		case "group":
			configuration.Identity.Group = group
		case "subgroup":
			configuration.Identity.Subgroup = subgroup
		case "allow-other":
			configuration.AllowOther = allowOther
		}
	})
	if err := configuration.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params := report.NewParams(
		configuration.Identity.Name,
		configuration.Identity.Group,
		configuration.Identity.Subgroup,
	)
	generator, err := report.NewGenerator(report.Options{
		Params: params,
		Clock:  clock.Real(),
	})
	if err != nil {
		return err
	}
	if err := generator.Activate(); err != nil {
		return err
	}
	identity := params.Snapshot()
	logger.Info("plaque activated",
		"name", identity.Name,
		"group", identity.Group,
		"subgroup", identity.Subgroup,
	)

	// Mount failure means the status file cannot be published; no
	// point running without it.
	fuseServer, err := plaquefs.Mount(plaquefs.Options{
		Mountpoint: configuration.Mountpoint,
		FileName:   configuration.FileName,
		Generator:  generator,
		AllowOther: configuration.AllowOther,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("mounting plaque filesystem: %w", err)
	}
	defer func() {
		if err := fuseServer.Unmount(); err != nil {
			logger.Error("failed to unmount plaque filesystem", "error", err)
		} else {
			logger.Info("plaque filesystem unmounted", "mountpoint", configuration.Mountpoint)
		}
		// Final report on the way down; read-only, no state mutation.
		logger.Info("plaque deactivated", "final_read_count", generator.ReadCount())
	}()

	service := &plaqueService{
		generator: generator,
		params:    params,
		logger:    logger,
	}

	var background sync.WaitGroup

	if configuration.SocketPath != "" {
		socketServer := control.NewSocketServer(configuration.SocketPath, logger)
		service.register(socketServer)
		background.Add(1)
		go func() {
			defer background.Done()
			if err := socketServer.Serve(ctx); err != nil {
				logger.Error("control socket failed", "error", err)
			}
		}()
	}

	if watchConfig {
		background.Add(1)
		go func() {
			defer background.Done()
			err := config.Watch(ctx, configPath, logger, func(loaded *config.Config) {
				service.applyIdentity(loaded.Identity)
			})
			if err != nil {
				logger.Error("config watch failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	background.Wait()
	return nil
}

func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
