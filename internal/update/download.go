package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

const downloadUserAgent = "nextui-updater"

// ProgressFunc receives byte counts as a download proceeds. total is -1
// when the server did not announce a length.
type ProgressFunc func(done, total int64)

// countingWriter reports every write to a ProgressFunc.
type countingWriter struct {
	w        io.Writer
	done     int64
	total    int64
	progress ProgressFunc
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.done += int64(n)
	if c.progress != nil {
		c.progress(c.done, c.total)
	}
	return n, err
}

// Download fetches url into w. Any transport error, non-200 status or short
// body is an error; there is no resume and no retry.
func Download(ctx context.Context, client *http.Client, url string, w io.Writer, progress ProgressFunc) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", downloadUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	cw := &countingWriter{w: w, total: resp.ContentLength, progress: progress}
	if progress != nil {
		progress(0, cw.total)
	}
	//nolint:gosec // G110: release assets come from the configured repository
	n, err := io.Copy(cw, resp.Body)
	if err != nil {
		return n, err
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, n, resp.ContentLength)
	}
	return n, nil
}

// DownloadFile fetches url into a new file at path. The file is removed when
// the download fails.
func DownloadFile(ctx context.Context, client *http.Client, url, path string, progress ProgressFunc) (int64, error) {
	//nolint:gosec // G304: path is inside the attempt's temp directory
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, err := Download(ctx, client, url, f, progress)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return n, err
	}
	return n, nil
}
