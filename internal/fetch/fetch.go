// Package fetch downloads template archives and unpacks them into a directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/conn-castle/scaffold/internal/catalog"
	"github.com/conn-castle/scaffold/internal/messages"
)

const (
	defaultMaxBytes       = int64(100 * 1024 * 1024) // 100 MiB
	retryBackoff          = 250 * time.Millisecond
	responseHeaderTimeout = 30 * time.Second
	// extractFactor bounds the unpacked size relative to MaxBytes.
	extractFactor = 8
)

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	// Timeout bounds one whole FetchAndExtract call. Zero disables it.
	Timeout  time.Duration
	MaxBytes int64
	Retries  int
	// CacheDir enables the archive cache for pinned templates when non-empty.
	CacheDir string
	Logger   *slog.Logger
	Sleep    func(time.Duration)
}

// Client fetches template archives over HTTP.
type Client struct {
	http     *http.Client
	timeout  time.Duration
	maxBytes int64
	retries  int
	cacheDir string
	logger   *slog.Logger
	sleep    func(time.Duration)
}

// New returns a Client with defaults applied to unset options.
func New(opts Options) *Client {
	c := &Client{
		http:     opts.HTTPClient,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		retries:  opts.Retries,
		cacheDir: opts.CacheDir,
		logger:   opts.Logger,
		sleep:    opts.Sleep,
	}
	if c.http == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = responseHeaderTimeout
		c.http = &http.Client{Transport: transport}
	}
	if c.maxBytes <= 0 {
		c.maxBytes = defaultMaxBytes
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	return c
}

// FetchAndExtract downloads tmpl's archive and unpacks it into dest, which
// must already exist. A single top-level directory in the archive is stripped.
func (c *Client) FetchAndExtract(ctx context.Context, tmpl catalog.Template, dest string) error {
	if dest == "" {
		return errors.New(messages.FetchDestinationRequired)
	}
	format, err := detectFormat(tmpl.URL)
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	archivePath, release, err := c.obtainArchive(ctx, tmpl)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf(messages.FetchDownloadTimeoutFmt, tmpl.URL)
		}
		return err
	}
	defer release()

	return extract(archivePath, format, dest, c.maxBytes*extractFactor)
}

// obtainArchive returns a local archive path and a release func for it.
func (c *Client) obtainArchive(ctx context.Context, tmpl catalog.Template) (string, func(), error) {
	if c.cacheDir != "" && tmpl.Pinned() {
		path, err := c.cachedArchive(ctx, tmpl)
		return path, func() {}, err
	}

	tmp, err := os.CreateTemp("", "scaffold-archive-*")
	if err != nil {
		return "", func() {}, fmt.Errorf(messages.FetchCreateTempFileFmt, err)
	}
	release := func() { _ = os.Remove(tmp.Name()) }
	if err := c.download(ctx, tmpl, tmp); err != nil {
		_ = tmp.Close()
		release()
		return "", func() {}, err
	}
	if err := tmp.Close(); err != nil {
		release()
		return "", func() {}, fmt.Errorf(messages.FetchCloseTempFileFmt, err)
	}
	return tmp.Name(), release, nil
}
