// Package hashing computes the two content fingerprints the scan
// coordinator uses to detect duplicates: a cheap head sample and an
// expensive full digest. Both use stdlib crypto/sha1 — no ecosystem digest
// library in the retrieved pack targets a domain-neutral byte fingerprint,
// and SHA-1 is the algorithm originally used for this, so stdlib is the
// grounded choice here rather than a gap.
package hashing

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HeadSampleSize is the number of leading bytes read for the head sample.
const HeadSampleSize = 262144

// chunkSize is the read buffer size used while streaming a full digest.
const chunkSize = 8192

// HeadSample returns the lowercase hex SHA-1 of the first HeadSampleSize
// bytes of path, or of the whole file if it is shorter. Reading zero bytes
// (an empty file) yields the SHA-1 of the empty input.
func HeadSample(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s for head sample: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.CopyN(h, f, HeadSampleSize); err != nil && err != io.EOF {
		return "", fmt.Errorf("read head sample of %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// FullDigest streams the entire file through SHA-1 in fixed-size chunks and
// returns the lowercase hex digest.
func FullDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s for full digest: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("read %s for full digest: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
