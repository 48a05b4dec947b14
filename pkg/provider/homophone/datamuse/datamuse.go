// Package datamuse provides a homophone provider backed by the Datamuse word
// API (https://www.datamuse.com/api/).
//
// Homophones are fetched with the "rel_hom" relation:
//
//	GET /words?rel_hom=sent&max=10
//	[{"word":"cent","score":1234},{"word":"scent","score":987}]
//
// Example usage:
//
//	p, err := datamuse.New("", datamuse.WithMaxResults(5))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	words, err := p.Homophones(ctx, "sent")
//
// The provider is a plain HTTP client; timeouts and failover are layered on
// top by the caller (see internal/resilience).
package datamuse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/rcoulter13/phonoise/pkg/provider/homophone"
)

// DefaultBaseURL is the public Datamuse endpoint.
const DefaultBaseURL = "https://api.datamuse.com"

const (
	defaultMaxResults = 10

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 1 << 20
)

var _ homophone.Provider = (*Provider)(nil)

// Provider implements homophone.Provider against the Datamuse API.
// Provider is safe for concurrent use.
type Provider struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithMaxResults sets the "max" query parameter. Default: 10.
func WithMaxResults(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxResults = n
		}
	}
}

// WithHTTPClient replaces the HTTP client. Useful for tests and proxies.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithTimeout sets a client-level request timeout. Per-call deadlines from
// the context still apply.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.httpClient.Timeout = d
		}
	}
}

// New constructs a Provider. baseURL defaults to [DefaultBaseURL]; a
// trailing slash is stripped.
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("datamuse: parse base url: %w", err)
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: defaultMaxResults,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// wordResult is one element of the /words response array.
type wordResult struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// Homophones implements homophone.Provider. Results keep the API's ranking
// order, which is stable for a given word.
func (p *Provider) Homophones(ctx context.Context, word string) ([]string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, homophone.ErrNoHomophones
	}

	q := url.Values{}
	q.Set("rel_hom", word)
	q.Set("max", strconv.Itoa(p.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/words?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("datamuse: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datamuse: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("datamuse: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("datamuse: read response: %w", err)
	}
	var results []wordResult
	if err := sonic.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("datamuse: decode response: %w", err)
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.Word != "" && r.Word != word {
			out = append(out, r.Word)
		}
	}
	if len(out) == 0 {
		return nil, homophone.ErrNoHomophones
	}
	return out, nil
}
