package uploadkit

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ChecksumAlgorithm names a content digest a FileRecord can be summed with.
type ChecksumAlgorithm string

const (
	// ChecksumXXHash is the 64-bit xxHash used for FileRecord.Checksum
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
	// ChecksumCRC32 is the IEEE CRC32 checksum
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumSHA256 is SHA-256, for callers that need a collision-resistant digest
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumSHA512 is SHA-512
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
)

// NewHasher creates a new hash.Hash for the given algorithm.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case ChecksumXXHash:
		return xxhash.New(), nil
	case ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported checksum algorithm %q", ErrInvalidInput, algorithm)
	}
}

// CalculateChecksum reads r to the end and returns the hex digest.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumWith digests the record's buffer with an algorithm other than the
// default one stored in Checksum.
func (r *FileRecord) ChecksumWith(algorithm ChecksumAlgorithm) (string, error) {
	return CalculateChecksum(bytes.NewReader(r.Buffer), algorithm)
}

// fingerprint is the zero-padded hex xxhash64 stored on every FileRecord.
func fingerprint(buf []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(buf))
}
