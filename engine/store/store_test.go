package store

import (
	"bytes"
	"context"
	"testing"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"mybucket", "mybucket", "", false},
		{"mybucket/backups/prod", "mybucket", "backups/prod", false},
		{"/mybucket/", "mybucket", "", false},
		{"", "", "", true},
		{"/", "", "", true},
	}

	for _, tt := range tests {
		loc, err := ParseLocation(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLocation(%q) expected error", tt.uri)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLocation(%q): %v", tt.uri, err)
		}
		if loc.Bucket != tt.wantBucket || loc.Prefix != tt.wantPrefix {
			t.Errorf("ParseLocation(%q) = %+v, want bucket=%q prefix=%q", tt.uri, loc, tt.wantBucket, tt.wantPrefix)
		}
	}
}

func TestLocationKey(t *testing.T) {
	loc := Location{Bucket: "b", Prefix: "p/q"}
	if got := loc.Key("snapshot.json.gz"); got != "p/q/snapshot.json.gz" {
		t.Errorf("Key() = %q, want %q", got, "p/q/snapshot.json.gz")
	}

	loc2 := Location{Bucket: "b"}
	if got := loc2.Key("snapshot.json.gz"); got != "snapshot.json.gz" {
		t.Errorf("Key() with no prefix = %q, want %q", got, "snapshot.json.gz")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if _, ok, err := m.ReadBlob(ctx, "missing"); ok || err != nil {
		t.Fatalf("ReadBlob(missing) = (_, %v, %v), want (_, false, nil)", ok, err)
	}

	if err := m.StreamWrite(ctx, "obj/1", bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatalf("StreamWrite: %v", err)
	}
	data, ok, err := m.ReadBlob(ctx, "obj/1")
	if err != nil || !ok || string(data) != "hello" {
		t.Fatalf("ReadBlob(obj/1) = (%q, %v, %v)", data, ok, err)
	}
}
