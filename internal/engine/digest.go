package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Digest returns the lowercase hex SHA-256 digest of content.
// Deterministic: identical input always yields the identical 64-char string.
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NewCitation builds a Citation from an already-computed digest, stamping
// the current UTC time. Returns ErrEmptyContentHash if the digest is empty.
func NewCitation(sourceID, contentHash, method string) (Citation, error) {
	if contentHash == "" {
		return Citation{}, ErrEmptyContentHash
	}
	if method == "" {
		method = DefaultMethod
	}
	return Citation{
		SourceID:    sourceID,
		ContentHash: contentHash,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Method:      method,
	}, nil
}

// CreateCitation digests content and builds a Citation with the default method.
func CreateCitation(sourceID, content string) (Citation, error) {
	return CreateCitationWithMethod(sourceID, content, DefaultMethod)
}

// CreateCitationWithMethod digests content and builds a Citation with the
// given method name. The method labels the digest; the digest itself is
// always SHA-256.
func CreateCitationWithMethod(sourceID, content, method string) (Citation, error) {
	return NewCitation(sourceID, Digest(content), method)
}
