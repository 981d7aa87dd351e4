// Package updater checks GitHub Releases for a newer lmtray version.
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lmtray/lmtray/internal/buildinfo"
	"github.com/lmtray/lmtray/internal/models"
)

// Errors reported by CheckNow.
var (
	ErrInvalidURL = errors.New("invalid update URL")
	ErrNoTag      = errors.New("no tag found")
)

// HTTPError is a non-200 response from the release feed.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// RateLimited reports whether the feed refused the request for quota reasons.
func (e *HTTPError) RateLimited() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

// ReleaseInfo contains information about a GitHub release.
type ReleaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker compares the running version with the latest release and keeps
// the last known result. A failed check leaves the previous result in
// place, marked stale.
type Checker struct {
	client  *http.Client
	url     string
	current string
	now     func() time.Time

	mu   sync.RWMutex
	info models.UpdateInfo
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) { ch.client = c }
}

// WithCurrentVersion overrides the running version (defaults to buildinfo).
func WithCurrentVersion(v string) Option {
	return func(ch *Checker) { ch.current = v }
}

// NewChecker creates a Checker for the given release feed URL.
func NewChecker(releaseURL string, opts ...Option) *Checker {
	c := &Checker{
		client:  &http.Client{Timeout: 15 * time.Second},
		url:     releaseURL,
		current: buildinfo.Version,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.info = models.UpdateInfo{
		CurrentVersion: c.current,
		DevBuild:       isDevBuild(c.current),
	}
	return c
}

// Info returns the last known result.
func (c *Checker) Info() models.UpdateInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// CheckNow queries the release feed. On failure it returns the previous
// info marked stale together with the error.
func (c *Checker) CheckNow(ctx context.Context) (models.UpdateInfo, error) {
	release, err := c.fetch(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.info.Stale = true
		c.info.LastError = err.Error()
		return c.info, err
	}

	info := models.UpdateInfo{
		CurrentVersion: c.current,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		ReleaseURL:     release.HTMLURL,
		CheckedAt:      c.now(),
		DevBuild:       isDevBuild(c.current),
	}
	if !info.DevBuild {
		info.Available = isNewer(c.current, release.TagName)
	}

	c.mu.Lock()
	c.info = info
	c.mu.Unlock()
	return info, nil
}

func (c *Checker) fetch(ctx context.Context) (*ReleaseInfo, error) {
	u, err := url.Parse(c.url)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, ErrInvalidURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if strings.TrimSpace(release.TagName) == "" {
		return nil, ErrNoTag
	}
	return &release, nil
}

// isNewer reports whether latest outranks current. Unparseable versions
// never count as newer.
func isNewer(current, latest string) bool {
	cur, err := ParseSemver(current)
	if err != nil {
		return false
	}
	lat, err := ParseSemver(latest)
	if err != nil {
		return false
	}
	return cur.LessThan(lat)
}

func isDevBuild(v string) bool {
	if v == "" || strings.EqualFold(v, "dev") {
		return true
	}
	_, err := ParseSemver(v)
	return err != nil
}
