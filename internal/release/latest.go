// Package release looks up the newest published release of a starter repo.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/conn-castle/scaffold/internal/messages"
)

// DefaultAPIURL is the GitHub REST API base URL.
const DefaultAPIURL = "https://api.github.com"

const (
	defaultRetries = 1
	retryDelay     = 250 * time.Millisecond
)

// RateLimitError indicates GitHub's API rate limit was hit.
type RateLimitError struct {
	StatusCode int
	Status     string
	Remaining  *int
}

func (e *RateLimitError) Error() string {
	remainingText := "unknown"
	if e.Remaining != nil {
		remainingText = strconv.Itoa(*e.Remaining)
	}
	return fmt.Sprintf(messages.ReleaseRateLimitFmt, e.Status, remainingText)
}

// IsRateLimitError reports whether err represents a GitHub API rate-limit condition.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	// APIURL overrides DefaultAPIURL, for GitHub Enterprise or tests.
	APIURL     string
	Sleep      func(time.Duration)
}

// Client queries the releases API.
type Client struct {
	http   *http.Client
	apiURL string
	sleep  func(time.Duration)
}

// New returns a Client with defaults applied to unset options.
func New(opts Options) *Client {
	c := &Client{http: opts.HTTPClient, apiURL: strings.TrimRight(opts.APIURL, "/"), sleep: opts.Sleep}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	return c
}

type latestReleaseResponse struct {
	TagName string `json:"tag_name"`
}

// Latest returns the normalized X.Y.Z version of owner/repo's latest release.
func (c *Client) Latest(ctx context.Context, owner string, repo string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiURL, url.PathEscape(owner), url.PathEscape(repo))
	for attempt := 0; attempt <= defaultRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", fmt.Errorf(messages.ReleaseCreateRequestErrFmt, err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("User-Agent", "scaffold")

		resp, err := c.http.Do(req)
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				c.sleep(retryDelay)
				continue
			}
			return "", fmt.Errorf(messages.ReleaseFetchLatestErrFmt, owner, repo, err)
		}

		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			return "", fmt.Errorf(messages.ReleaseNoneFmt, owner, repo)
		}
		if resp.StatusCode != http.StatusOK {
			if rateLimitErr := rateLimitErrorFromResponse(resp); rateLimitErr != nil {
				_ = resp.Body.Close()
				return "", rateLimitErr
			}
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if shouldRetry(nil, status, attempt) {
				c.sleep(retryDelay)
				continue
			}
			return "", fmt.Errorf(messages.ReleaseFetchLatestStatusFmt, owner, repo, statusText)
		}

		var payload latestReleaseResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			_ = resp.Body.Close()
			return "", fmt.Errorf(messages.ReleaseDecodeErrFmt, err)
		}
		_ = resp.Body.Close()
		if strings.TrimSpace(payload.TagName) == "" {
			return "", errors.New(messages.ReleaseMissingTag)
		}
		// Tags resolve to refs/tags/v<version>, so coercing "v1.2" to 1.2.0 would name a missing tag.
		version, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(payload.TagName), "v"))
		if err != nil {
			return "", fmt.Errorf(messages.ReleaseInvalidTagFmt, payload.TagName, err)
		}
		return version.String(), nil
	}

	return "", fmt.Errorf(messages.ReleaseFetchLatestErrFmt, owner, repo, errors.New(messages.FetchRetryBudgetExhausted))
}

func rateLimitErrorFromResponse(resp *http.Response) *RateLimitError {
	if resp == nil {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	// GitHub returns 403 Forbidden for unauthenticated exhaustion; confirm with rate-limit headers.
	if resp.StatusCode == http.StatusForbidden {
		remainingStr := strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining"))
		if remainingStr == "" {
			return nil
		}
		remaining, err := strconv.Atoi(remainingStr)
		if err != nil {
			return nil //nolint:nilerr // Malformed header means we cannot confirm rate limiting.
		}
		if remaining == 0 {
			return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Remaining: &remaining}
		}
	}
	return nil
}

func shouldRetry(err error, statusCode int, attempt int) bool {
	if attempt >= defaultRetries {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}
