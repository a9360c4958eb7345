package binary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

const (
	// DefaultTimeout bounds a whole request, body included
	DefaultTimeout = 30 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "clang-toolbox/1.0"
	// maxSmallObject caps signatures, checksums and keys
	maxSmallObject = 1 << 20
)

// Downloader performs HTTP GET requests. Failures are reported once,
// there are no retries.
type Downloader struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	// Progress, when set, receives a progress bar for archive downloads.
	Progress io.Writer
}

// NewDownloader creates a new downloader. A nil client uses a client with
// DefaultTimeout.
func NewDownloader(client *http.Client, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Release downloads redirect to object storage
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	return &Downloader{
		client:    client,
		userAgent: DefaultUserAgent,
		logger:    orDiscard(logger),
	}
}

// Open issues the request and returns the response body and its declared
// length, -1 when unknown. The caller must close the body.
func (d *Downloader) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fault.Network.Wrap(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", d.userAgent)

	d.logger.Debug("GET", "url", url)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, fault.Network.Wrap(fmt.Errorf("get %s: %w", url, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fault.Network.New("get %s: unexpected status %s", url, resp.Status)
	}

	return resp.Body, resp.ContentLength, nil
}

// Fetch downloads a small object into memory.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, err := d.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(body, maxSmallObject+1)); err != nil {
		return nil, fault.Network.Wrap(fmt.Errorf("read %s: %w", url, err))
	}
	if buf.Len() > maxSmallObject {
		return nil, fault.Network.New("read %s: response exceeds %s", url, humanize.IBytes(maxSmallObject))
	}
	return buf.Bytes(), nil
}

// CopyTo downloads url into w and returns the number of bytes written.
func (d *Downloader) CopyTo(ctx context.Context, url string, w io.Writer) (int64, error) {
	body, size, err := d.Open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	r, done := d.progress(body, size, path.Base(url))
	n, err := io.Copy(w, r)
	done()
	if err != nil {
		return n, fault.Network.Wrap(fmt.Errorf("download %s: %w", url, err))
	}

	d.logger.Debug("Downloaded", "url", url, "size", humanize.IBytes(uint64(n)))
	return n, nil
}

const unknownSizeTemplate pb.ProgressBarTemplate = `{{string . "prefix"}}{{counters . }} {{speed . }}`

// progress wraps r in a progress bar when d.Progress is set.
func (d *Downloader) progress(r io.Reader, size int64, name string) (io.Reader, func()) {
	if d.Progress == nil {
		return r, func() {}
	}

	template := pb.Full
	if size <= 0 {
		// Length unknown, show only what has been read
		template = unknownSizeTemplate
		size = 0
	}

	bar := pb.New64(size).
		SetTemplate(template).
		SetWriter(d.Progress).
		SetRefreshRate(time.Second / 10).
		Set(pb.Bytes, true).
		Set("prefix", name+" ")
	bar.Start()

	return bar.NewProxyReader(r), func() { bar.Finish() }
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
