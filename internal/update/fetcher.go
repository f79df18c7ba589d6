package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "relwatch/internal/errors"
)

// Default configuration values.
const (
	DefaultAPIURL    = "https://api.github.com"
	DefaultUserAgent = "relwatch-update-checker"
	DefaultTimeout   = 2000 * time.Millisecond
)

// maxBodyBytes bounds how much of a release response is read.
const maxBodyBytes = 4 << 20

// FetchResult is the raw outcome of one release request.
type FetchResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ReleaseInfo contains the fields of a release that relwatch cares about.
// Version is derived from TagName and is not part of the wire format.
type ReleaseInfo struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`

	Version Version `json:"-"`
}

// ReleaseSource reports the latest published release.
type ReleaseSource interface {
	FetchLatest(ctx context.Context) (*ReleaseInfo, error)
}

// Fetcher queries a GitHub-compatible releases API for the latest release.
type Fetcher struct {
	owner      string
	repo       string
	apiURL     string
	userAgent  string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client for the fetcher.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithTimeout bounds each release request. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithAPIURL points the fetcher at a different API root (GitHub Enterprise, tests).
func WithAPIURL(apiURL string) FetcherOption {
	return func(f *Fetcher) {
		if apiURL != "" {
			f.apiURL = strings.TrimRight(apiURL, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header sent with each request.
func WithUserAgent(userAgent string) FetcherOption {
	return func(f *Fetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// WithToken authenticates requests with a bearer token.
// If token is empty, requests are unauthenticated (subject to rate limits).
func WithToken(token string) FetcherOption {
	return func(f *Fetcher) {
		f.token = token
	}
}

// NewFetcher creates a release fetcher for the specified repository.
func NewFetcher(owner, repo string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		owner:      owner,
		repo:       repo,
		apiURL:     DefaultAPIURL,
		userAgent:  DefaultUserAgent,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.token != "" {
		f.httpClient = withStaticToken(f.httpClient, f.token)
	}
	return f
}

// withStaticToken returns a copy of client whose transport adds the token.
func withStaticToken(client *http.Client, token string) *http.Client {
	authed := *client
	authed.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   client.Transport,
	}
	return &authed
}

// URL returns the release endpoint queried by Fetch.
func (f *Fetcher) URL() string {
	return fmt.Sprintf("%s/repos/%s/%s/releases/latest", f.apiURL, f.owner, f.repo)
}

// Fetch performs one bounded GET against the release endpoint.
// The connection is released before Fetch returns regardless of outcome.
// Only transport failures are errors; any HTTP status is a valid result.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(), nil)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeTransportFailed, "create request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeTransportFailed, "fetch latest release",
			fmt.Errorf("%w: %v", ErrNetworkFailure, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.New(apperrors.CodeTransportFailed, "read release response",
			fmt.Errorf("%w: %v", ErrNetworkFailure, err))
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// FetchLatest fetches the latest release and parses its tag.
// A non-200 status, an undecodable body and a malformed tag are all errors,
// so a nil error always carries a real version.
func (f *Fetcher) FetchLatest(ctx context.Context) (*ReleaseInfo, error) {
	result, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return ParseRelease(result)
}

// ParseRelease interprets a FetchResult as a latest-release response.
func ParseRelease(result *FetchResult) (*ReleaseInfo, error) {
	if result.StatusCode != http.StatusOK {
		return nil, statusError(result)
	}

	var release ReleaseInfo
	if err := json.Unmarshal(result.Body, &release); err != nil {
		return nil, apperrors.New(apperrors.CodeDecodeFailed, "decode release",
			fmt.Errorf("%w: %v", ErrDecode, err))
	}

	v, err := ParseVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("release tag: %w", err)
	}
	release.Version = v
	return &release, nil
}

func statusError(result *FetchResult) error {
	msg := fmt.Sprintf("release endpoint returned status %d", result.StatusCode)
	limited := (result.StatusCode == http.StatusForbidden || result.StatusCode == http.StatusTooManyRequests) &&
		result.Header.Get("X-RateLimit-Remaining") == "0"
	if limited {
		if reset := result.Header.Get("X-RateLimit-Reset"); reset != "" {
			msg += " (rate limit resets at " + reset + ")"
		}
		return apperrors.New(apperrors.CodeUnexpectedStatus, msg, ErrRateLimited)
	}
	return apperrors.New(apperrors.CodeUnexpectedStatus, msg, ErrUnexpectedStatus)
}
