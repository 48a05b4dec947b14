// Package mock provides a test double for the homophone.Provider interface.
//
// Use Provider to return canned homophones per word without a dictionary or
// network backend, and to verify which words the engine asked about.
//
// Example:
//
//	p := &mock.Provider{
//	    Results: map[string][]string{"sent": {"scent", "cent"}},
//	}
//	words, _ := p.Homophones(ctx, "sent")
package mock

import (
	"context"
	"sync"

	"github.com/rcoulter13/phonoise/pkg/provider/homophone"
)

var _ homophone.Provider = (*Provider)(nil)

// Call records a single invocation of Homophones.
type Call struct {
	// Ctx is the context passed to Homophones.
	Ctx context.Context
	// Word is the word passed to Homophones.
	Word string
}

// Provider is a mock implementation of homophone.Provider.
type Provider struct {
	mu sync.Mutex

	// Results maps a word to the homophones returned for it. Words absent
	// from the map yield homophone.ErrNoHomophones.
	Results map[string][]string

	// Err, if non-nil, is returned for every call instead of Results.
	Err error

	// Block, if true, makes Homophones wait for ctx to be done and return
	// ctx.Err(). Useful for exercising timeouts.
	Block bool

	// Calls records every call to Homophones in order.
	Calls []Call
}

// Homophones records the call and returns the configured result.
func (p *Provider) Homophones(ctx context.Context, word string) ([]string, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, Word: word})
	block, err, found := p.Block, p.Err, p.Results[word]
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, homophone.ErrNoHomophones
	}
	out := make([]string, len(found))
	copy(out, found)
	return out, nil
}

// CallCount returns the number of recorded calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}
