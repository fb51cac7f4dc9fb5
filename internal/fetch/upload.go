package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/logging"
)

// Uploader stores generated thumbnails in a remote store with HTTP PUT.
type Uploader struct {
	http     *http.Client
	template string
	timeout  time.Duration
	log      *logging.Logger
}

// DefaultUploadTimeout bounds one background upload.
const DefaultUploadTimeout = 30 * time.Second

// NewUploader creates an uploader for a URL template in which %s is
// replaced by the path-escaped item id. An empty template disables uploads.
func NewUploader(httpClient *http.Client, template string) *Uploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Uploader{http: httpClient, template: template, timeout: DefaultUploadTimeout, log: logging.For("upload")}
}

// Enabled reports whether a template is configured.
func (u *Uploader) Enabled() bool {
	return u != nil && u.template != ""
}

// URLFor expands the template for id.
func (u *Uploader) URLFor(id string) string {
	return ExpandTemplate(u.template, id)
}

// Upload PUTs data to the remote store.
func (u *Uploader) Upload(ctx context.Context, id string, data []byte) error {
	if !u.Enabled() {
		return nil
	}
	target := u.URLFor(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := u.http.Do(req)
	if err != nil {
		return &asset.FetchError{URL: target, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &asset.FetchError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("upload rejected: %s", resp.Status)}
	}
	return nil
}

// ExpandTemplate replaces %s in template with the path-escaped id. A
// template without %s gets the id appended.
func ExpandTemplate(template, id string) string {
	escaped := url.PathEscape(id)
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", escaped, 1)
	}
	return strings.TrimRight(template, "/") + "/" + escaped
}

// UploadBestEffort uploads in the background. Failures are logged and
// otherwise ignored.
func (u *Uploader) UploadBestEffort(id string, data []byte) {
	if !u.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
		defer cancel()
		if err := u.Upload(ctx, id, data); err != nil {
			u.log.Warn("best-effort upload of %s failed: %v", id, err)
			observeUpload(err)
			return
		}
		observeUpload(nil)
	}()
}
