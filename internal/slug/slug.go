// Package slug allocates URL-safe identifiers. Normalization is pure;
// allocation probes a taken-checker and appends a numeric suffix on
// collision. The database unique constraint remains the source of truth,
// the probe only minimizes retries under concurrency.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrExhausted reports that the allocator gave up after the configured
// number of candidates.
var ErrExhausted = errors.New("slug: candidate space exhausted")

// DefaultMaxAttempts bounds the probe loop when no explicit cap is
// configured.
const DefaultMaxAttempts = 100

// TakenFunc reports whether a candidate slug is already in use within the
// caller's uniqueness scope (global for accounts, per-account for
// workspaces, per-workspace for teams).
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// Normalize converts an arbitrary display name into slug form: lowercase
// alphanumerics and single hyphens, trimmed at both ends. Names that
// normalize to nothing fall back to a short random identifier so every
// record gets a usable slug.
func Normalize(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	lastHyphen := true

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)

			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')

				lastHyphen = true
			}
		}
	}

	normalized := strings.Trim(b.String(), "-")
	if normalized == "" {
		return "item-" + uuid.NewString()[:8]
	}

	return normalized
}

// Allocator resolves slug collisions by suffixing a counter.
type Allocator struct {
	maxAttempts int
}

func NewAllocator(maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Allocator{maxAttempts: maxAttempts}
}

// Allocate normalizes name and probes base, base-1, base-2, ... until taken
// reports a free candidate. The loop is capped; beyond the cap the caller
// gets ErrExhausted rather than an unbounded scan.
func (a *Allocator) Allocate(ctx context.Context, name string, taken TakenFunc) (string, error) {
	base := Normalize(name)

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}

		inUse, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug: probe %q: %w", candidate, err)
		}

		if !inUse {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: base %q after %d attempts", ErrExhausted, base, a.maxAttempts)
}
