package source

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const samplePlaylist = "#EXTM3U\n#EXTINF:-1,Channel One\nhttp://example.com/one.m3u8\n"

func testFetcherConfig() FetcherConfig {
	config := DefaultFetcherConfig()
	config.Timeout = 5 * time.Second
	config.Rate = 0
	config.Retry = RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
	return config
}

// =============================================================================
// HTTP Fetcher Tests
// =============================================================================

func TestFetchTextSuccess(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "audio/x-mpegurl")
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig(), srv.Client())
	text, err := f.FetchText(context.Background(), srv.URL+"/all.m3u")
	if err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	if text != samplePlaylist {
		t.Errorf("Unexpected body: %q", text)
	}
	if userAgent != "ChannelViewer/1.0" {
		t.Errorf("Expected User-Agent ChannelViewer/1.0, got %q", userAgent)
	}
}

func TestFetchTextRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig(), srv.Client())
	text, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if text != samplePlaylist {
		t.Errorf("Unexpected body: %q", text)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestFetchTextGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig(), srv.Client())
	_, err := f.FetchText(context.Background(), srv.URL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("Expected StatusError 502, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 1 attempt + 2 retries, got %d", got)
	}
}

func TestFetchTextDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig(), srv.Client())
	_, err := f.FetchText(context.Background(), srv.URL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected StatusError 404, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected a single attempt, got %d", got)
	}
}

func TestFetchTextSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	config := testFetcherConfig()
	config.MaxBytes = 1024
	f := NewHTTPFetcher(config, srv.Client())

	if _, err := f.FetchText(context.Background(), srv.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestFetchTextDecodesCharset(t *testing.T) {
	latin1 := []byte("#EXTINF:-1,Caf\xe9 TV\nhttp://example.com/cafe\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write(latin1)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig(), srv.Client())
	text, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	if !strings.Contains(text, "Café TV") {
		t.Errorf("Expected decoded UTF-8 name, got %q", text)
	}
}

func TestFetchTextInvalidURL(t *testing.T) {
	f := NewHTTPFetcher(testFetcherConfig(), nil)

	for _, raw := range []string{"", "ftp://example.com/a.m3u", "/relative.m3u", "http://"} {
		if _, err := f.FetchText(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("FetchText(%q): expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestFetchTextCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(testFetcherConfig(), srv.Client())
	if _, err := f.FetchText(ctx, srv.URL); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

// =============================================================================
// Retry Classification Tests
// =============================================================================

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"Canceled", context.Canceled, false},
		{"Deadline", context.DeadlineExceeded, false},
		{"500", &StatusError{StatusCode: 500}, true},
		{"503", &StatusError{StatusCode: 503}, true},
		{"429", &StatusError{StatusCode: 429}, true},
		{"404", &StatusError{StatusCode: 404}, false},
		{"Too large", ErrTooLarge, false},
		{"Other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Decode Tests
// =============================================================================

func TestDecodeTextStripsBOM(t *testing.T) {
	text, err := DecodeText([]byte("\xef\xbb\xbf#EXTM3U\n"), "")
	if err != nil {
		t.Fatalf("DecodeText failed: %v", err)
	}
	if text != "#EXTM3U\n" {
		t.Errorf("Expected BOM stripped, got %q", text)
	}
}

func TestDecodeTextKeepsLateUTF8(t *testing.T) {
	data := strings.Repeat("#\n", 1024) + "#EXTINF:-1,Ünïcode\n"

	text, err := DecodeText([]byte(data), "")
	if err != nil {
		t.Fatalf("DecodeText failed: %v", err)
	}
	if text != data {
		t.Error("Expected valid UTF-8 to pass through unchanged")
	}
}

func TestDecodeTextSniffsLegacyEncoding(t *testing.T) {
	text, err := DecodeText([]byte("Caf\xe9"), "")
	if err != nil {
		t.Fatalf("DecodeText failed: %v", err)
	}
	if text != "Café" {
		t.Errorf("Expected windows-1252 fallback, got %q", text)
	}
}

// =============================================================================
// Upload Tests
// =============================================================================

func buildUpload(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm failed: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

func TestReadUpload(t *testing.T) {
	fh := buildUpload(t, "channels.M3U", []byte(samplePlaylist))

	text, err := ReadUpload(fh, 1<<20)
	if err != nil {
		t.Fatalf("ReadUpload failed: %v", err)
	}
	if text != samplePlaylist {
		t.Errorf("Unexpected upload text: %q", text)
	}
}

func TestReadUploadRejectsExtension(t *testing.T) {
	for _, name := range []string{"channels.m3u8", "channels.txt", "m3u", "channels"} {
		fh := buildUpload(t, name, []byte(samplePlaylist))
		if _, err := ReadUpload(fh, 1<<20); !errors.Is(err, ErrUnsupportedExtension) {
			t.Errorf("ReadUpload(%q): expected ErrUnsupportedExtension, got %v", name, err)
		}
	}
}

func TestReadUploadTooLarge(t *testing.T) {
	fh := buildUpload(t, "big.m3u", bytes.Repeat([]byte("x"), 4096))

	if _, err := ReadUpload(fh, 1024); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestHasPlaylistExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"list.m3u", true},
		{"LIST.M3U", true},
		{"dir.m3u/list.txt", false},
		{"list.m3u8", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := HasPlaylistExtension(tt.name); got != tt.want {
			t.Errorf("HasPlaylistExtension(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// =============================================================================
// Preset Tests
// =============================================================================

func TestPresets(t *testing.T) {
	presets := NewPresets("https://example.com/tv.m3u", "https://example.com/movies.m3u")

	if len(presets) != 2 {
		t.Fatalf("Expected 2 presets, got %d", len(presets))
	}

	p, ok := FindPreset(presets, "movies")
	if !ok || p.URL != "https://example.com/movies.m3u" || p.Label != "Movies" {
		t.Errorf("Unexpected movies preset: %+v (ok=%v)", p, ok)
	}
	if _, ok := FindPreset(presets, "radio"); ok {
		t.Error("Expected unknown preset lookup to fail")
	}
}
