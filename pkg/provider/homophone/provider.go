// Package homophone defines the Provider interface for homophone lookup
// backends.
//
// A homophone provider answers "which words sound like this one?" for a
// single lowercase word. Backends range from a local dictionary (see the
// dictionary subpackage) to a remote word-relation API (see datamuse). The
// noising engine treats a failed lookup and an empty result identically, so
// providers should prefer returning [ErrNoHomophones] over inventing
// candidates.
//
// Implementations must be safe for concurrent use.
package homophone

import (
	"context"
	"errors"
)

// ErrNoHomophones is returned when the provider knows the word but has no
// homophone for it, or does not know the word at all.
var ErrNoHomophones = errors.New("homophone: no homophones found")

// Provider is the abstraction over any homophone lookup backend.
type Provider interface {
	// Homophones returns the known homophones of word, excluding word itself.
	// The order of the result must be stable for a given provider state so a
	// seeded caller can reproduce its choice.
	//
	// Returns [ErrNoHomophones] (possibly wrapped) when nothing is found, or
	// another error if the lookup failed or ctx was cancelled.
	Homophones(ctx context.Context, word string) ([]string, error)
}

// ProviderFunc adapts an ordinary function to the [Provider] interface.
type ProviderFunc func(ctx context.Context, word string) ([]string, error)

// Homophones calls f(ctx, word).
func (f ProviderFunc) Homophones(ctx context.Context, word string) ([]string, error) {
	return f(ctx, word)
}
