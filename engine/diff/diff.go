// Package diff compares a local tree against a snapshot index's logical
// view and produces the work items a backup must register.
package diff

import (
	"context"
	"fmt"
	"io"

	"github.com/nullstore/snapvault/engine/hash"
	"github.com/nullstore/snapvault/engine/localfs"
	"github.com/nullstore/snapvault/engine/pathfilter"
	"github.com/nullstore/snapvault/engine/snapshot"
)

// Item is one unit of work produced by Compute: a path paired with its
// current content digest, or an empty digest for a tombstone.
type Item struct {
	Path   string
	Digest string
}

// IsTombstone reports whether the item marks Path as deleted.
func (i Item) IsTombstone() bool {
	return i.Digest == ""
}

// Compute enumerates src (after filt), hashes every surviving path, and
// diffs it against idx's live entries. Tombstones for paths that vanished
// from src are emitted first, followed by adds and modifications in
// LocalSource enumeration order.
func Compute(ctx context.Context, src localfs.Source, filt *pathfilter.Filter, idx *snapshot.Index) ([]Item, error) {
	all, err := src.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("enumerate local tree: %w", err)
	}

	local := make([]string, 0, len(all))
	localSet := make(map[string]bool, len(all))
	for _, p := range all {
		if filt.Reject(p) {
			continue
		}
		local = append(local, p)
		localSet[p] = true
	}

	// List("*") returns only live (non-tombstone) entries in logical-view
	// insertion order, which doubles as a deterministic R for the diff.
	liveEntries, err := idx.List(ctx, "*")
	if err != nil {
		return nil, fmt.Errorf("load snapshot index: %w", err)
	}
	live := make(map[string]string, len(liveEntries))
	for _, e := range liveEntries {
		live[e.Path] = e.Digest
	}

	var items []Item
	for _, e := range liveEntries {
		if !localSet[e.Path] {
			items = append(items, Item{Path: e.Path, Digest: ""})
		}
	}

	for _, path := range local {
		digest, err := hashFile(src, path)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", path, err)
		}
		if existing, ok := live[path]; !ok || existing != digest {
			items = append(items, Item{Path: path, Digest: digest})
		}
	}

	return items, nil
}

// hashFile streams path through Hasher without buffering the whole file in
// memory: StreamRead runs concurrently against the pipe that Reader
// consumes from.
func hashFile(src localfs.Source, path string) (string, error) {
	pr, pw := io.Pipe()
	errc := make(chan error, 1)
	go func() {
		err := src.StreamRead(path, pw)
		pw.CloseWithError(err)
		errc <- err
	}()

	digest, hashErr := hash.Reader(pr)
	if err := <-errc; err != nil {
		return "", err
	}
	return digest, hashErr
}
