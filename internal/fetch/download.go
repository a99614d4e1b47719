package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/conn-castle/scaffold/internal/catalog"
	"github.com/conn-castle/scaffold/internal/messages"
)

// download fetches tmpl.URL into dest, retrying network errors and 5xx.
func (c *Client) download(ctx context.Context, tmpl catalog.Template, dest *os.File) error {
	url := tmpl.URL
	for attempt := 0; attempt <= c.retries; attempt++ {
		c.logger.Debug(messages.FetchDownloadingDebug, "template", tmpl.String(), "url", url, "attempt", attempt)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf(messages.FetchCreateRequestErrFmt, url, err)
		}
		req.Header.Set("User-Agent", "scaffold")

		resp, err := c.http.Do(req)
		if err != nil {
			if c.shouldRetry(ctx, attempt, err, 0) {
				c.sleep(retryBackoff)
				continue
			}
			if errors.Is(err, context.DeadlineExceeded) || isTimeoutError(err) {
				return context.DeadlineExceeded
			}
			return fmt.Errorf(messages.FetchDownloadFailedFmt, url, err)
		}

		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			return fmt.Errorf(messages.FetchTemplateNotFoundFmt, tmpl.String(), url)
		}
		if resp.StatusCode != http.StatusOK {
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if c.shouldRetry(ctx, attempt, nil, status) {
				c.sleep(retryBackoff)
				continue
			}
			return fmt.Errorf(messages.FetchDownloadStatusFmt, url, statusText)
		}

		if err := dest.Truncate(0); err != nil {
			_ = resp.Body.Close()
			return fmt.Errorf(messages.FetchDownloadFailedFmt, url, err)
		}
		if _, err := dest.Seek(0, io.SeekStart); err != nil {
			_ = resp.Body.Close()
			return fmt.Errorf(messages.FetchDownloadFailedFmt, url, err)
		}

		n, copyErr := io.Copy(dest, io.LimitReader(resp.Body, c.maxBytes+1))
		_ = resp.Body.Close()
		if copyErr != nil {
			if c.shouldRetry(ctx, attempt, copyErr, 0) {
				c.sleep(retryBackoff)
				continue
			}
			if errors.Is(copyErr, context.DeadlineExceeded) || isTimeoutError(copyErr) {
				return context.DeadlineExceeded
			}
			return fmt.Errorf(messages.FetchDownloadFailedFmt, url, copyErr)
		}
		if n > c.maxBytes {
			return fmt.Errorf(messages.FetchDownloadTooLargeFmt, url, c.maxBytes)
		}
		return nil
	}
	return fmt.Errorf(messages.FetchDownloadFailedFmt, url, errors.New(messages.FetchRetryBudgetExhausted))
}

func (c *Client) shouldRetry(ctx context.Context, attempt int, err error, statusCode int) bool {
	if attempt >= c.retries || ctx.Err() != nil {
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

// isTimeoutError reports whether err is a network timeout.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
