// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plaqued.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "identity:\n  name: ada\n  group: 9\n")

	configuration, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if configuration.Mountpoint != Default().Mountpoint {
		t.Errorf("Mountpoint: got %q, want default %q", configuration.Mountpoint, Default().Mountpoint)
	}
	if configuration.FileName != "plaque" {
		t.Errorf("FileName: got %q, want plaque", configuration.FileName)
	}
	if configuration.Identity.Name != "ada" {
		t.Errorf("Identity.Name: got %q, want ada", configuration.Identity.Name)
	}
	if configuration.Identity.Group != 9 {
		t.Errorf("Identity.Group: got %d, want 9", configuration.Identity.Group)
	}
}

func TestLoadFileFullConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, strings.Join([]string{
		"mountpoint: /tmp/plaque-test",
		"file_name: status",
		"socket_path: /tmp/plaque-test.sock",
		"allow_other: true",
		"identity:",
		"  name: ada",
		"  group: 9",
		"  subgroup: 2",
	}, "\n"))

	configuration, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if configuration.Mountpoint != "/tmp/plaque-test" {
		t.Errorf("Mountpoint: got %q", configuration.Mountpoint)
	}
	if configuration.FileName != "status" {
		t.Errorf("FileName: got %q", configuration.FileName)
	}
	if !configuration.AllowOther {
		t.Error("AllowOther: got false, want true")
	}
	if configuration.Identity.Subgroup != 2 {
		t.Errorf("Identity.Subgroup: got %d, want 2", configuration.Identity.Subgroup)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "mount_point: /oops\n")

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile with unknown key: got nil error")
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile on missing file: got nil error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty mountpoint", func(c *Config) { c.Mountpoint = "" }},
		{"empty file name", func(c *Config) { c.FileName = "" }},
		{"file name with separator", func(c *Config) { c.FileName = "a/b" }},
		{"negative group", func(c *Config) { c.Identity.Group = -1 }},
		{"negative subgroup", func(c *Config) { c.Identity.Subgroup = -3 }},
	}
	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			configuration := Default()
			testCase.mutate(&configuration)
			if err := configuration.Validate(); err == nil {
				t.Error("Validate: got nil error")
			}
		})
	}
}

func TestWatchReloadsOnRewrite(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "identity:\n  name: ada\n  group: 9\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	watchDone := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		watchDone <- Watch(ctx, path, logger, func(configuration *Config) {
			select {
			case reloaded <- configuration:
			default:
			}
		})
	}()

	// Give the watcher a moment to install before rewriting.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("identity:\n  name: ada\n  group: 7\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case configuration := <-reloaded:
		if configuration.Identity.Group != 7 {
			t.Errorf("reloaded Identity.Group: got %d, want 7", configuration.Identity.Group)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config reload never observed")
	}

	cancel()
	if err := <-watchDone; err != nil {
		t.Errorf("Watch: %v", err)
	}
}

func TestWatchSkipsBrokenRewrite(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "identity:\n  name: ada\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		_ = Watch(ctx, path, logger, func(configuration *Config) {
			reloaded <- configuration
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// A syntactically broken rewrite must not reach onChange.
	if err := os.WriteFile(path, []byte(":::"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}
	select {
	case configuration := <-reloaded:
		t.Fatalf("broken config was applied: %+v", configuration)
	case <-time.After(time.Second):
	}

	// A subsequent valid rewrite is applied.
	if err := os.WriteFile(path, []byte("identity:\n  name: grace\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}
	select {
	case configuration := <-reloaded:
		if configuration.Identity.Name != "grace" {
			t.Errorf("Identity.Name: got %q, want grace", configuration.Identity.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("valid rewrite never observed")
	}
}
