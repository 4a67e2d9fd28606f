// Package cache provides pluggable byte caching for pipeline stages.
//
// Three backends are available:
//   - FileCache: directory-backed cache for CLI usage (XDG cache dir)
//   - RedisCache: shared cache for multi-instance server deployments
//   - NullCache: no-op cache for tests or when caching is disabled
//
// Keys are derived from content hashes via a Keyer so that identical prompts
// and identical render settings reuse earlier work.
package cache

import (
	"context"
	"time"
)

// TTLs per cached artifact kind. Generated documents are model output and go
// stale in a day; rendered artifacts are deterministic given their inputs and
// can live longer.
const (
	TTLDocument = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the minimal byte-cache interface used by the pipeline.
type Cache interface {
	// Get retrieves a value. The second return reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the render settings that affect artifact identity.
type ArtifactKeyOpts struct {
	Format    string
	Width     int
	Height    int
	WrapWidth float64
	HSpacing  float64
	VSpacing  float64
	MaxDepth  int
}

// Keyer derives cache keys for pipeline stages.
type Keyer interface {
	// DocumentKey identifies a generated document by model and prompt.
	DocumentKey(model, prompt string) string

	// ArtifactKey identifies a rendered artifact by document content hash
	// and render settings.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DocumentKey implements Keyer.
func (DefaultKeyer) DocumentKey(model, prompt string) string {
	return hashKey("doc", model, prompt)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("art", docHash, opts)
}
