package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the subset of *s3.Client used here, defined as an interface for
// testability (a fake can be substituted without a network round-trip).
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store is the production Store backend: an S3 (or S3-compatible) bucket
// addressed by a region/profile-scoped client.
type S3Store struct {
	client s3API
	loc    Location
}

// NewS3Store creates an S3Store for the given remote URI, loading AWS
// credentials via aws-sdk-go-v2/config with the given region and
// (optional) shared-config profile.
func NewS3Store(ctx context.Context, uri, region, profile string) (*S3Store, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &S3Store{client: s3.NewFromConfig(awsCfg), loc: loc}, nil
}

// ReadBlob reads the entire object at key into memory.
func (s *S3Store) ReadBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var buf bytes.Buffer
	ok, err := s.StreamRead(ctx, key, &buf)
	if err != nil || !ok {
		return nil, ok, err
	}
	return buf.Bytes(), true, nil
}

// StreamRead streams the object at key into w. ok is false, err is nil if
// the key does not exist.
func (s *S3Store) StreamRead(ctx context.Context, key string, w io.Writer) (bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.loc.Bucket,
		Key:    awsString(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return false, nil
		}
		return false, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return false, fmt.Errorf("read object %s: %w", key, err)
	}
	return true, nil
}

// StreamWrite uploads r as the object at key, overwriting any existing
// object. There is no conditional put: a concurrent writer to the same
// key is not detected.
func (s *S3Store) StreamWrite(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.loc.Bucket,
		Key:    awsString(key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func awsString(s string) *string { return &s }
