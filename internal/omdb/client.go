package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"marquee/internal/logging"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultNegativeTTL = time.Hour
	maxImageBytes      = 10 << 20
	notAvailable       = "N/A"
)

// Checker reports whether the network is currently reachable.
type Checker interface {
	Online() bool
}

// Metadata is the normalized OMDb record for one title. Fields OMDb reports as
// "N/A" are empty.
type Metadata struct {
	Title     string
	Year      string
	Plot      string
	Director  string
	Actors    string
	Rating    string
	Runtime   string
	Genre     string
	Awards    string
	BoxOffice string
	PosterURL string
}

// Image is a downloaded poster.
type Image struct {
	Data        []byte
	ContentType string
}

type lookupResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Poster     string `json:"Poster"`
	Plot       string `json:"Plot"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	IMDBRating string `json:"imdbRating"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Awards     string `json:"Awards"`
	BoxOffice  string `json:"BoxOffice"`
}

// Client provides access to the OMDb API and poster hosts.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	checker     Checker
	logger      *slog.Logger
	negativeTTL time.Duration
	negative    *cache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithChecker installs the connectivity checker consulted before each request.
func WithChecker(checker Checker) Option {
	return func(c *Client) {
		c.checker = checker
	}
}

// WithLogger sets the logger used by FetchMetadata and FetchImage.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNegativeCacheTTL controls how long a not-found answer is remembered.
// Zero disables the negative cache.
func WithNegativeCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.negativeTTL = ttl
	}
}

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse omdb base url: %w", err)
	}
	client := &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      logging.NewNop(),
		negativeTTL: defaultNegativeTTL,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.negativeTTL > 0 {
		client.negative = cache.New(client.negativeTTL, client.negativeTTL*2)
	}
	return client, nil
}

func (c *Client) online() bool {
	return c.checker == nil || c.checker.Online()
}

func negativeKey(title, year string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.TrimSpace(year)
}

// Lookup queries OMDb by exact title, adding the year filter when present.
func (c *Client) Lookup(ctx context.Context, title, year string) (*Metadata, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	if !c.online() {
		return nil, ErrOffline
	}
	key := negativeKey(title, year)
	if c.negative != nil {
		if _, found := c.negative.Get(key); found {
			return nil, ErrNotFound
		}
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	if year = strings.TrimSpace(year); year != "" {
		params.Set("y", year)
	}
	endpoint.RawQuery = params.Encode()
	redacted := redactURL(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, &TransportError{Op: "lookup", URL: redacted, Latency: latency, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{Op: "lookup", URL: redacted, StatusCode: resp.StatusCode, Latency: latency}
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransportError{Op: "lookup", URL: redacted, Latency: latency, Err: fmt.Errorf("decode omdb response: %w", err)}
	}
	if !strings.EqualFold(payload.Response, "True") {
		if c.negative != nil && notFoundAnswer(payload.Error) {
			c.negative.Set(key, struct{}{}, cache.DefaultExpiration)
		}
		if payload.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, payload.Error)
		}
		return nil, ErrNotFound
	}

	return &Metadata{
		Title:     clean(payload.Title),
		Year:      clean(payload.Year),
		Plot:      clean(payload.Plot),
		Director:  clean(payload.Director),
		Actors:    clean(payload.Actors),
		Rating:    clean(payload.IMDBRating),
		Runtime:   clean(payload.Runtime),
		Genre:     clean(payload.Genre),
		Awards:    clean(payload.Awards),
		BoxOffice: clean(payload.BoxOffice),
		PosterURL: clean(payload.Poster),
	}, nil
}

// DownloadImage fetches raw poster bytes, preserving the Content-Type header.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) (Image, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || imageURL == notAvailable {
		return Image{}, errors.New("image url must not be empty")
	}
	if !c.online() {
		return Image{}, ErrOffline
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Image{}, &TransportError{Op: "image", URL: imageURL, Latency: latency, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Image{}, &TransportError{Op: "image", URL: imageURL, StatusCode: resp.StatusCode, Latency: latency}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, &TransportError{Op: "image", URL: imageURL, Latency: time.Since(requestStart), Err: err}
	}
	if len(data) > maxImageBytes {
		return Image{}, &TransportError{Op: "image", URL: imageURL, Latency: time.Since(requestStart), Err: fmt.Errorf("image exceeds %d bytes", maxImageBytes)}
	}
	if len(data) == 0 {
		return Image{}, &TransportError{Op: "image", URL: imageURL, Latency: time.Since(requestStart), Err: errors.New("empty image body")}
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Image{Data: data, ContentType: contentType}, nil
}

// FetchMetadata wraps Lookup, reporting false for any failure. Transport
// problems are logged at warn; not-found and offline at debug.
func (c *Client) FetchMetadata(ctx context.Context, title, year string) (*Metadata, bool) {
	meta, err := c.Lookup(ctx, title, year)
	if err != nil {
		c.logFailure(ctx, "metadata lookup", err, logging.String("title", title), logging.String("year", year))
		return nil, false
	}
	return meta, true
}

// FetchImage wraps DownloadImage, reporting false for any failure.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (Image, bool) {
	img, err := c.DownloadImage(ctx, imageURL)
	if err != nil {
		c.logFailure(ctx, "poster download", err, logging.String("url", imageURL))
		return Image{}, false
	}
	return img, true
}

func (c *Client) logFailure(ctx context.Context, what string, err error, attrs ...logging.Attr) {
	logger := logging.WithContext(ctx, c.logger)
	var transport *TransportError
	switch {
	case errors.Is(err, ErrOffline):
		logger.Debug(what+" skipped while offline", logging.Args(append(attrs, logging.String(logging.FieldEventType, "omdb_offline_skip"))...)...)
	case errors.Is(err, ErrNotFound):
		logger.Debug(what+" found nothing", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "omdb_not_found"),
			logging.Error(err),
		)...)...)
	case ctx.Err() != nil:
		logger.Debug(what+" cancelled", logging.Args(append(attrs, logging.Error(err))...)...)
	case errors.As(err, &transport):
		logging.WarnWithContext(logger, what+" failed; continuing without it", "omdb_transport_error", append(attrs,
			logging.Error(err),
			logging.Int("status", transport.StatusCode),
			logging.Duration("latency", transport.Latency),
			logging.String(logging.FieldErrorHint, "check network access and omdb.api_key"),
			logging.String(logging.FieldImpact, "movie shown without this data until the next run"),
		)...)
	default:
		logging.WarnWithContext(logger, what+" failed", "omdb_request_error", append(attrs, logging.Error(err))...)
	}
}

// notFoundAnswer reports whether a Response:"False" error names a missing
// title. Quota and key errors are transient and stay uncached.
func notFoundAnswer(msg string) bool {
	msg = strings.ToLower(strings.TrimSpace(msg))
	return msg == "" || strings.Contains(msg, "not found")
}

func clean(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, notAvailable) {
		return ""
	}
	return value
}

func redactURL(u *url.URL) string {
	copied := *u
	copied.RawQuery = ""
	return copied.String()
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
