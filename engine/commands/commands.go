// Package commands orchestrates backup, list, and restore over the
// lower-level local/remote/index capabilities.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/nullstore/snapvault/engine/diff"
	"github.com/nullstore/snapvault/engine/localfs"
	"github.com/nullstore/snapvault/engine/pathfilter"
	"github.com/nullstore/snapvault/engine/snapshot"
	"github.com/nullstore/snapvault/engine/store"
	"github.com/nullstore/snapvault/ui"
)

// ErrDestinationExists is returned by Restore when the destination root
// already exists. Callers map this to exit code 1.
var ErrDestinationExists = fmt.Errorf("destination already exists")

// Commands wires a local source/sink, a remote store, and a snapshot index
// together to implement the backup/list/restore operations.
type Commands struct {
	Store  store.Store
	Loc    store.Location
	Filter *pathfilter.Filter

	// Progress receives "Copying <path>..." messages for uploads during
	// Backup. Nil disables progress reporting.
	Progress io.Writer
}

// New creates a Commands instance.
func New(st store.Store, loc store.Location, filt *pathfilter.Filter) *Commands {
	return &Commands{Store: st, Loc: loc, Filter: filt}
}

// Backup diffs src against the current snapshot chain and registers every
// resulting work item, flushing a checkpoint every flushAfter
// registrations and once more at the end if any work remains unflushed.
// A single invocation may produce multiple snapshots.
func (c *Commands) Backup(ctx context.Context, src localfs.Source, flushAfter int) error {
	if flushAfter <= 0 {
		panic("commands: flushAfter must be > 0")
	}

	idx := snapshot.New(c.Store, c.Loc)

	items, err := diff.Compute(ctx, src, c.Filter, idx)
	if err != nil {
		return err
	}

	counter := 0
	for _, item := range items {
		objectID, mustUpload, err := idx.Register(ctx, item.Path, item.Digest)
		if err != nil {
			return fmt.Errorf("register %s: %w", item.Path, err)
		}

		if mustUpload {
			c.reportProgress(item.Path)
			if err := c.uploadObject(ctx, src, item.Path, objectID); err != nil {
				return fmt.Errorf("upload %s: %w", item.Path, err)
			}
		}

		counter = (counter + 1) % flushAfter
		if counter == 0 {
			if err := idx.Flush(ctx); err != nil {
				return err
			}
		}
	}

	if counter > 0 {
		if err := idx.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Commands) uploadObject(ctx context.Context, src localfs.Source, path, objectID string) error {
	pr, pw := io.Pipe()
	errc := make(chan error, 1)
	go func() {
		err := src.StreamRead(path, pw)
		pw.CloseWithError(err)
		errc <- err
	}()

	writeErr := snapshot.WriteObject(ctx, c.Store, c.Loc, objectID, pr)
	if err := <-errc; err != nil {
		return err
	}
	return writeErr
}

func (c *Commands) reportProgress(path string) {
	if c.Progress == nil {
		return
	}
	ui.Copying(c.Progress, path)
}

// List loads the snapshot chain and returns every live path matching glob.
func (c *Commands) List(ctx context.Context, glob string) ([]string, error) {
	idx := snapshot.New(c.Store, c.Loc)
	entries, err := idx.List(ctx, glob)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths, nil
}

// Restore creates a fresh destination via sink and materializes every live
// entry matching glob into it. It returns ErrDestinationExists (without
// touching the destination further) if the root already existed.
func (c *Commands) Restore(ctx context.Context, sink localfs.Sink, glob string) error {
	created, err := sink.EnsureRoot()
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if !created {
		return ErrDestinationExists
	}

	idx := snapshot.New(c.Store, c.Loc)
	entries, err := idx.List(ctx, glob)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := sink.EnsureDir(parentDir(e.Path)); err != nil {
			return fmt.Errorf("create directory for %s: %w", e.Path, err)
		}
		if err := c.restoreOne(ctx, sink, e); err != nil {
			return fmt.Errorf("restore %s: %w", e.Path, err)
		}
	}
	return nil
}

func (c *Commands) restoreOne(ctx context.Context, sink localfs.Sink, e snapshot.FileEntry) error {
	pr, pw := io.Pipe()
	errc := make(chan error, 1)
	go func() {
		ok, err := snapshot.ReadObject(ctx, c.Store, c.Loc, e.FileID, pw)
		if err == nil && !ok {
			err = fmt.Errorf("object %s not found", e.FileID)
		}
		pw.CloseWithError(err)
		errc <- err
	}()

	writeErr := sink.StreamWrite(e.Path, pr)
	if err := <-errc; err != nil {
		return err
	}
	return writeErr
}

// parentDir returns the forward-slash parent of path, or "" if path has
// none.
func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}
