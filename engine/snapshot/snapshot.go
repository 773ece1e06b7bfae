// Package snapshot owns the append-only snapshot chain: content-addressed
// object identity, cross-snapshot deduplication, and crash-tolerant
// partial-commit flushing. It is the core of the backup engine; everything
// else in this module is glue around it.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/nullstore/snapvault/engine/pathfilter"
	"github.com/nullstore/snapvault/engine/store"
)

// indexKey is the well-known remote key holding the gzipped JSON chain.
const indexKey = "snapshot.json.gz"

// objectPrefix is the remote key prefix under which content blobs live.
const objectPrefix = "obj/"

// ObjectKey returns the remote key for the blob holding objectID's content.
func ObjectKey(objectID string) string {
	return objectPrefix + objectID
}

// FileEntry is the unit of snapshot content: a path as of the snapshot that
// recorded it, the hex digest of its bytes (empty for a tombstone), and the
// id of the remote blob holding those bytes.
type FileEntry struct {
	FileID string `json:"file_id"`
	Path   string `json:"path"`
	Digest string `json:"md5"`
}

// IsTombstone reports whether e marks path as deleted.
func (e FileEntry) IsTombstone() bool {
	return e.Digest == ""
}

// wireSnapshot mirrors the normative on-disk schema. Field names are fixed
// for backward compatibility with existing archives.
type wireSnapshot struct {
	SnapshotID     string      `json:"snapshot_id"`
	BackupTime     float64     `json:"backup_time"`
	PrevSnapshotID *string     `json:"prev_snapshot_id"`
	Files          []FileEntry `json:"files"`
}

// nowFunc is overridable in tests so chain ordering can be asserted without
// depending on wall-clock resolution.
var nowFunc = func() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Index owns the snapshot chain for one remote location: the logical view,
// the content-to-object index, and the pending (unflushed) delta.
type Index struct {
	st  store.Store
	loc store.Location

	loaded  bool
	chain   []wireSnapshot
	lastID  string
	hasLast bool

	logicalView  map[string]FileEntry
	contentIndex map[string]FileEntry

	pending []FileEntry
}

// New creates an Index against st, scoped to loc. Nothing is read until the
// first call that needs the chain.
func New(st store.Store, loc store.Location) *Index {
	return &Index{
		st:           st,
		loc:          loc,
		logicalView:  make(map[string]FileEntry),
		contentIndex: make(map[string]FileEntry),
	}
}

// load reads and replays the chain on first use. A missing index key starts
// an empty chain. A prev_snapshot_id mismatch during replay is a hard,
// fatal error: the chain refuses to silently fork.
func (idx *Index) load(ctx context.Context) error {
	if idx.loaded {
		return nil
	}
	idx.loaded = true

	raw, ok, err := idx.st.ReadBlob(ctx, idx.loc.Key(indexKey))
	if err != nil {
		return fmt.Errorf("read snapshot index: %w", err)
	}
	if !ok {
		return nil
	}

	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decompress snapshot index: %w", err)
	}
	defer gr.Close()

	var chain []wireSnapshot
	if err := json.NewDecoder(gr).Decode(&chain); err != nil {
		return fmt.Errorf("parse snapshot index: %w", err)
	}

	for _, snap := range chain {
		if err := idx.replay(snap); err != nil {
			return err
		}
	}
	idx.chain = chain
	return nil
}

// replay folds one snapshot's deltas into the logical view and content
// index, and asserts chain linkage.
func (idx *Index) replay(snap wireSnapshot) error {
	switch {
	case !idx.hasLast && snap.PrevSnapshotID != nil:
		return fmt.Errorf("corrupt chain: snapshot %s has a predecessor but none was expected", snap.SnapshotID)
	case idx.hasLast && (snap.PrevSnapshotID == nil || *snap.PrevSnapshotID != idx.lastID):
		return fmt.Errorf("corrupt chain: snapshot %s does not follow %s", snap.SnapshotID, idx.lastID)
	}
	idx.lastID = snap.SnapshotID
	idx.hasLast = true

	for _, f := range snap.Files {
		idx.logicalView[f.Path] = f
		if !f.IsTombstone() {
			idx.contentIndex[f.Digest] = f
		}
	}
	return nil
}

// Register records a registration for path with the given content digest
// (empty for a tombstone) and returns the object id to use and whether the
// caller must upload a blob for it.
//
// If digest is non-empty and already present in the content index, the new
// entry reuses the existing object id and no upload is required. Otherwise
// a fresh object id is minted. In either case the new entry becomes the
// current logical-view entry for path.
//
// A tombstone overwrites the content index at the digest the path
// previously held (not at the empty-string key): once a path is removed, a
// later registration on this Index with the same bytes is treated as unseen
// and gets a fresh object id and upload. Replay on load indexes only
// non-empty digests, so an Index loaded afterwards dedups that content
// against the last live entry that carried it.
func (idx *Index) Register(ctx context.Context, path, digest string) (objectID string, mustUpload bool, err error) {
	if err := idx.load(ctx); err != nil {
		return "", false, err
	}

	prevDigest, hadPrev := "", false
	if prev, ok := idx.logicalView[path]; ok {
		prevDigest, hadPrev = prev.Digest, true
	}

	var entry FileEntry
	if digest != "" {
		if existing, ok := idx.contentIndex[digest]; ok && !existing.IsTombstone() {
			entry = FileEntry{FileID: existing.FileID, Path: path, Digest: digest}
			idx.commit(entry, digest)
			return entry.FileID, false, nil
		}
	}

	entry = FileEntry{FileID: uuid.NewString(), Path: path, Digest: digest}
	key := digest
	if digest == "" && hadPrev && prevDigest != "" {
		key = prevDigest
	}
	idx.commit(entry, key)
	return entry.FileID, digest != "", nil
}

// commit appends entry to the pending delta, updates the logical view, and
// (when keyDigest is non-empty) points the content index at entry.
func (idx *Index) commit(entry FileEntry, keyDigest string) {
	idx.pending = append(idx.pending, entry)
	idx.logicalView[entry.Path] = entry
	if keyDigest != "" {
		idx.contentIndex[keyDigest] = entry
	}
}

// Flush wraps the pending entries in a new Snapshot, appends it to the
// chain, and rewrites the remote index. A flush with no pending entries
// still produces a snapshot if called; Commands avoids calling it in that
// case.
func (idx *Index) Flush(ctx context.Context) error {
	if err := idx.load(ctx); err != nil {
		return err
	}

	var prev *string
	if idx.hasLast {
		id := idx.lastID
		prev = &id
	}

	snap := wireSnapshot{
		SnapshotID:     uuid.NewString(),
		BackupTime:     nowFunc(),
		PrevSnapshotID: prev,
		Files:          idx.pending,
	}
	idx.pending = nil
	idx.chain = append(idx.chain, snap)
	idx.lastID = snap.SnapshotID
	idx.hasLast = true

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gw).Encode(idx.chain); err != nil {
		return fmt.Errorf("encode snapshot index: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("compress snapshot index: %w", err)
	}

	if err := idx.st.StreamWrite(ctx, idx.loc.Key(indexKey), bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("write snapshot index: %w", err)
	}
	return nil
}

// List returns the logical-view entries whose path matches glob, excluding
// tombstones, in logical-view insertion order.
func (idx *Index) List(ctx context.Context, glob string) ([]FileEntry, error) {
	if err := idx.load(ctx); err != nil {
		return nil, err
	}

	g := pathfilter.Compile(glob)
	var out []FileEntry
	for _, path := range idx.pathOrder() {
		e := idx.logicalView[path]
		if e.IsTombstone() || !g.Match(e.Path) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// pathOrder returns every path ever seen in the chain, in first-seen
// (insertion) order, so List observes a stable iteration order rather than
// Go's randomized map order.
func (idx *Index) pathOrder() []string {
	seen := make(map[string]bool, len(idx.logicalView))
	var order []string
	for _, snap := range idx.chain {
		for _, f := range snap.Files {
			if !seen[f.Path] {
				seen[f.Path] = true
				order = append(order, f.Path)
			}
		}
	}
	for _, f := range idx.pending {
		if !seen[f.Path] {
			seen[f.Path] = true
			order = append(order, f.Path)
		}
	}
	return order
}

// ReadObject streams the blob for objectID from the remote store into w.
func ReadObject(ctx context.Context, st store.Store, loc store.Location, objectID string, w io.Writer) (bool, error) {
	return st.StreamRead(ctx, loc.Key(ObjectKey(objectID)), w)
}

// WriteObject streams r as the blob for objectID to the remote store.
func WriteObject(ctx context.Context, st store.Store, loc store.Location, objectID string, r io.Reader) error {
	return st.StreamWrite(ctx, loc.Key(ObjectKey(objectID)), r)
}
