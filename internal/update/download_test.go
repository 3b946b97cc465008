package update

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestDownloadReportsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != downloadUserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	var (
		buf       bytes.Buffer
		lastDone  int64
		lastTotal int64
		calls     int
	)
	n, err := Download(context.Background(), server.Client(), server.URL, &buf, func(done, total int64) {
		if done < lastDone {
			t.Errorf("progress went backwards: %d after %d", done, lastDone)
		}
		lastDone, lastTotal = done, total
		calls++
	})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if n != int64(len(payload)) || buf.Len() != len(payload) {
		t.Errorf("downloaded %d bytes, want %d", n, len(payload))
	}
	if lastTotal != int64(len(payload)) || lastDone != lastTotal {
		t.Errorf("final progress = %d/%d, want %d/%d", lastDone, lastTotal, len(payload), len(payload))
	}
	if calls < 2 {
		t.Errorf("progress called %d times, want at least 2", calls)
	}
}

func TestDownloadErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"truncated body", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "1000")
			_, _ = w.Write([]byte("short"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			if _, err := Download(context.Background(), server.Client(), server.URL, io.Discard, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDownloadFileRemovesPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("short"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "pkg.zip")
	if _, err := DownloadFile(context.Background(), server.Client(), server.URL, path, nil); err == nil {
		t.Fatal("expected error for truncated body")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("partial file should be removed, stat err = %v", err)
	}
}
