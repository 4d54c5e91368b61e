// Package snapshot persists trained model state as versioned, checksummed,
// gzip-compressed JSON envelopes. A missing snapshot is reported as
// ErrNotFound so callers can fall back instead of failing.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

// FormatVersion is written into every envelope; Decode rejects other versions.
const FormatVersion = 1

var (
	// ErrNotFound reports that no snapshot exists under the requested name.
	ErrNotFound = errors.New("snapshot not found")
	// ErrCorrupt reports a snapshot whose checksum or format does not match.
	ErrCorrupt = errors.New("snapshot corrupt")
)

// Store saves and loads named snapshots.
type Store interface {
	Save(ctx context.Context, name string, v any) error
	Load(ctx context.Context, name string, v any) error
}

// Envelope wraps a payload with integrity metadata.
type Envelope struct {
	FormatVersion int             `json:"format_version"`
	Name          string          `json:"name"`
	SavedAt       time.Time       `json:"saved_at"`
	Checksum      string          `json:"checksum"`
	Payload       json.RawMessage `json:"payload"`
}

// Encode serialises v into a compressed envelope.
func Encode(name string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	sum := sha256.Sum256(payload)
	env := Envelope{
		FormatVersion: FormatVersion,
		Name:          name,
		SavedAt:       time.Now().UTC(),
		Checksum:      hex.EncodeToString(sum[:]),
		Payload:       payload,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode verifies a compressed envelope and unmarshals its payload into v.
func Decode(data []byte, v any) (*Envelope, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrCorrupt, env.FormatVersion)
	}
	sum := sha256.Sum256(env.Payload)
	if hex.EncodeToString(sum[:]) != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &env, nil
}
