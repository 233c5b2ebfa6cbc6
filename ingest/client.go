// Package ingest loads the HGNC complete set into a record store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/moontrade/hgncd/logger"
	"github.com/moontrade/hgncd/store"
)

const (
	// DefaultURL is the EBI copy of the HGNC complete set.
	DefaultURL = "https://ftp.ebi.ac.uk/pub/databases/genenames/hgnc/json/hgnc_complete_set.json"

	DefaultTimeout = 60 * time.Second
	DefaultMaxBody = 512 << 20

	// DocsPath locates the document array in the upstream body.
	DocsPath = "response.docs"
	// IDField is the document field used as the record key.
	IDField = "hgnc_id"
)

// ErrMalformed is wrapped by an UpstreamError when the body is not JSON or
// has no document array.
var ErrMalformed = errors.New("malformed upstream body")

// UpstreamError is returned for every failure to obtain documents from the
// upstream dataset.
type UpstreamError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The fetch timeout still applies
// through the request context.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout bounds a whole fetch, body included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBody limits how many body bytes are read.
func WithMaxBody(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// Client fetches the upstream dataset. It makes exactly one attempt per
// call.
type Client struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	maxBody    int64
}

// NewClient creates a Client for url. An empty url is DefaultURL.
func NewClient(url string, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("ingest: invalid upstream URL %q", url)
	}
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		maxBody:    DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the upstream URL.
func (c *Client) URL() string { return c.url }

// Fetch downloads the dataset and returns its documents. Elements without a
// string hgnc_id are skipped and counted.
func (c *Client) Fetch(ctx context.Context) (docs []store.Document, skipped int, err error) {
	body, err := c.get(ctx)
	if err != nil {
		return nil, 0, err
	}
	docs, skipped, err = Parse(body)
	if err != nil {
		return nil, 0, &UpstreamError{URL: c.url, Err: err}
	}
	return docs, skipped, nil
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &UpstreamError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &UpstreamError{URL: c.url, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &UpstreamError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body exceeds %d bytes", c.maxBody),
		}
	}
	return body, nil
}

// Parse extracts the documents under response.docs. When an id repeats, the
// last document wins and the earlier ones count as skipped, so len(docs) is
// the number of keys a load writes.
func Parse(body []byte) (docs []store.Document, skipped int, err error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	arr := gjson.GetBytes(body, DocsPath)
	if !arr.IsArray() {
		return nil, 0, fmt.Errorf("%w: %s is not an array", ErrMalformed, DocsPath)
	}
	seen := make(map[string]int)
	arr.ForEach(func(_, doc gjson.Result) bool {
		if !doc.IsObject() {
			skipped++
			return true
		}
		id := doc.Get(IDField)
		if id.Type != gjson.String || id.Str == "" {
			skipped++
			return true
		}
		d := store.Document{ID: id.Str, Raw: []byte(doc.Raw)}
		if i, ok := seen[d.ID]; ok {
			docs[i] = d
			skipped++
			return true
		}
		seen[d.ID] = len(docs)
		docs = append(docs, d)
		return true
	})
	return docs, skipped, nil
}

// Result summarizes a Load.
type Result struct {
	Loaded  int
	Skipped int
	Elapsed time.Duration
}

// Load fetches the dataset and writes every document to s. Nothing is
// written when the fetch fails.
func (c *Client) Load(ctx context.Context, s store.RecordStore) (Result, error) {
	start := time.Now()
	docs, skipped, err := c.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := s.PutMany(ctx, docs); err != nil {
		return Result{}, fmt.Errorf("ingest: store: %w", err)
	}
	res := Result{Loaded: len(docs), Skipped: skipped, Elapsed: time.Since(start)}
	logger.Info("url", c.url, "loaded", res.Loaded, "skipped", res.Skipped, "elapsed", res.Elapsed, "upstream ingested")
	return res, nil
}
