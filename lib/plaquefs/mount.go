// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package plaquefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/plaque-project/plaque/lib/report"
)

// DefaultFileName is the name of the status file when Options.FileName
// is empty.
const DefaultFileName = "plaque"

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	// Created if it does not exist.
	Mountpoint string

	// FileName is the name of the status file inside the mountpoint.
	// Empty uses DefaultFileName.
	FileName string

	// Generator produces the report served by the status file.
	Generator *report.Generator

	// AllowOther permits other users (including root) to read the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a no-op logger
	// writing errors to stderr is used.
	Logger *slog.Logger
}

// Mount mounts the plaque filesystem at the configured mountpoint. The
// caller must call Unmount on the returned Server when done. A mount
// failure means the status file cannot be published; callers treat it
// as fatal to startup.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if options.FileName == "" {
		options.FileName = DefaultFileName
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	// Ensure the mountpoint exists.
	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &rootNode{options: &options}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout: &entryTimeout,
		AttrTimeout:  &attrTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "plaque",
			Name:       "plaque",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("plaque filesystem mounted",
		"mountpoint", options.Mountpoint,
		"file", options.FileName,
	)
	return server, nil
}

// rootNode is the filesystem root. It has a single child: the status
// file.
type rootNode struct {
	gofuse.Inode
	options *Options
}

var _ gofuse.InodeEmbedder = (*rootNode)(nil)
var _ gofuse.NodeOnAdder = (*rootNode)(nil)

func (r *rootNode) OnAdd(ctx context.Context) {
	file := r.NewPersistentInode(ctx, &statusFileNode{options: r.options}, gofuse.StableAttr{Mode: syscall.S_IFREG})
	r.AddChild(r.options.FileName, file, true)
	r.options.Logger.Info("plaque file created", "name", r.options.FileName)
}

// statusFileNode serves the report as a read-only regular file.
type statusFileNode struct {
	gofuse.Inode
	options *Options
}

var _ gofuse.InodeEmbedder = (*statusFileNode)(nil)
var _ gofuse.NodeGetattrer = (*statusFileNode)(nil)
var _ gofuse.NodeOpener = (*statusFileNode)(nil)
var _ gofuse.NodeReader = (*statusFileNode)(nil)

func (s *statusFileNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	// Size zero, like a procfs file: the content is generated per
	// read session and has no stable length. Direct I/O on Open keeps
	// the kernel from trusting this size.
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = 0
	return 0
}

func (s *statusFileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	// Reject anything that isn't a read.
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	// Bypass the page cache: every open must see a freshly generated
	// report, and reads past the delivered report must hit the
	// generator to receive its end-of-stream answer.
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (s *statusFileNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, _, err := s.options.Generator.HandleRead(dest, off)
	if err != nil {
		return nil, s.mapReadError(off, err)
	}

	if n > 0 {
		s.options.Logger.Info("plaque read",
			"file", s.options.FileName,
			"count", s.options.Generator.ReadCount(),
		)
	}

	return fuse.ReadResultData(dest[:n]), 0
}

// mapReadError translates generator failures to errnos. The counter
// increment behind a failed fresh read is deliberate (attempts are
// counted), so nothing is undone here.
func (s *statusFileNode) mapReadError(off int64, err error) syscall.Errno {
	var fault *report.CopyFaultError
	switch {
	case errors.Is(err, report.ErrBufferTooSmall):
		s.options.Logger.Error("read buffer smaller than report",
			"file", s.options.FileName,
			"error", err,
		)
		return syscall.EINVAL
	case errors.As(err, &fault):
		s.options.Logger.Error("copy to read buffer failed",
			"file", s.options.FileName,
			"offset", off,
			"error", err,
		)
		return syscall.EFAULT
	default:
		s.options.Logger.Error("read failed",
			"file", s.options.FileName,
			"offset", off,
			"error", err,
		)
		return syscall.EIO
	}
}
