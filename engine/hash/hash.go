// Package hash computes the content digest used for object identity
// throughout the backup engine. It is not used for any security purpose.
package hash

import (
	"crypto/md5" //nolint:gosec // content identity only, not security
	"encoding/hex"
	"fmt"
	"io"
)

// chunkSize is the minimum read buffer used while hashing a stream.
const chunkSize = 64 * 1024

// Reader computes the hex MD5 digest of everything read from r, consuming
// it in chunks of at least chunkSize bytes.
func Reader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
