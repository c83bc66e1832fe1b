// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond is the sustained page fetch rate.
	DefaultRequestsPerSecond = 2.0
	// DefaultBurst is the number of fetches allowed back to back.
	DefaultBurst = 2

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "archivist/1.0"
	maxPageBytes     = 16 << 20
)

// Fetcher retrieves the raw body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages over HTTP, waiting on a token bucket before each
// request. It is safe for concurrent use.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithRateLimit sets the sustained request rate and burst size.
// A non-positive rate disables limiting.
func WithRateLimit(requestsPerSecond float64, burst int) FetcherOption {
	return func(f *HTTPFetcher) {
		if burst < 1 {
			burst = 1
		}
		if requestsPerSecond <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, burst)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(userAgent string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = userAgent
	}
}

// NewHTTPFetcher creates a rate limited HTTP fetcher.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: defaultTimeout},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves url. Transport errors and non-2xx responses are reported as
// core.ErrFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fetchError(url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fetchError(url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fetchError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return nil, fetchError(url, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fetchError(url, err)
	}

	return body, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
