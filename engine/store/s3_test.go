package store

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3API records the bucket/key of its last call and serves objects from
// an in-memory map, so S3Store's key construction can be checked without a
// network round-trip.
type fakeS3API struct {
	objects map[string][]byte

	gotBucket string
	gotKey    string
}

func newFakeS3API() *fakeS3API {
	return &fakeS3API{objects: make(map[string][]byte)}
}

func (f *fakeS3API) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotBucket, f.gotKey = *in.Bucket, *in.Key
	data, ok := f.objects[f.gotKey]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3API) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.gotBucket, f.gotKey = *in.Bucket, *in.Key
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[f.gotKey] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreWritesExactPrefixedKeyOnce(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3API()
	st := &S3Store{client: fake, loc: Location{Bucket: "mybucket", Prefix: "backups/prod"}}

	loc := st.loc
	key := loc.Key("snapshot.json.gz")
	if err := st.StreamWrite(ctx, key, bytes.NewReader([]byte("chain"))); err != nil {
		t.Fatalf("StreamWrite: %v", err)
	}

	if fake.gotBucket != "mybucket" {
		t.Errorf("PutObject bucket = %q, want %q", fake.gotBucket, "mybucket")
	}
	if fake.gotKey != "backups/prod/snapshot.json.gz" {
		t.Errorf("PutObject key = %q, want %q (no double prefix)", fake.gotKey, "backups/prod/snapshot.json.gz")
	}
}

func TestS3StoreReadsExactPrefixedKeyOnce(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3API()
	fake.objects["backups/prod/obj/abc-123"] = []byte("payload")
	st := &S3Store{client: fake, loc: Location{Bucket: "mybucket", Prefix: "backups/prod"}}

	var buf bytes.Buffer
	key := st.loc.Key("obj/abc-123")
	ok, err := st.StreamRead(ctx, key, &buf)
	if err != nil || !ok {
		t.Fatalf("StreamRead = (%v, %v), want (true, nil)", ok, err)
	}
	if buf.String() != "payload" {
		t.Errorf("StreamRead body = %q, want %q", buf.String(), "payload")
	}
	if fake.gotKey != "backups/prod/obj/abc-123" {
		t.Errorf("GetObject key = %q, want %q (no double prefix)", fake.gotKey, "backups/prod/obj/abc-123")
	}
}

func TestS3StoreStreamReadMissingKeyIsNotError(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3API()
	st := &S3Store{client: fake, loc: Location{Bucket: "mybucket", Prefix: "backups/prod"}}

	var buf bytes.Buffer
	ok, err := st.StreamRead(ctx, st.loc.Key("obj/missing"), &buf)
	if err != nil || ok {
		t.Fatalf("StreamRead(missing) = (%v, %v), want (false, nil)", ok, err)
	}
}
