// Package store provides the remote object store capability: reading and
// writing named blobs under a configured key prefix. It has no atomic
// rename and no conditional put; callers must tolerate a crash mid-write.
package store

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Store reads and writes blobs keyed under a prefix. A missing key is a
// first-class outcome (ReadBlob's ok==false / StreamRead's ok==false), not
// an error; any other I/O failure is returned as a transport error.
type Store interface {
	ReadBlob(ctx context.Context, key string) (data []byte, ok bool, err error)
	StreamRead(ctx context.Context, key string, w io.Writer) (ok bool, err error)
	StreamWrite(ctx context.Context, key string, r io.Reader) error
}

// Location is a parsed remote URI: a bucket segment and an optional key
// prefix segment, separated by "/".
type Location struct {
	Bucket string
	Prefix string
}

// ParseLocation parses a remote URI of the form "bucket" or
// "bucket/prefix/path".
func ParseLocation(uri string) (Location, error) {
	uri = strings.Trim(uri, "/")
	if uri == "" {
		return Location{}, fmt.Errorf("remote URI must not be empty")
	}

	parts := strings.SplitN(uri, "/", 2)
	loc := Location{Bucket: parts[0]}
	if len(parts) == 2 {
		loc.Prefix = parts[1]
	}
	if loc.Bucket == "" {
		return Location{}, fmt.Errorf("remote URI %q has an empty bucket segment", uri)
	}
	return loc, nil
}

// Key joins the location's prefix with name to form a full object key.
func (l Location) Key(name string) string {
	if l.Prefix == "" {
		return name
	}
	return l.Prefix + "/" + name
}
