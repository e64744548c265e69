package citation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrFetch wraps network and HTTP status failures.
	ErrFetch = errors.New("dataset fetch failed")
	// ErrNotText is returned when the dataset is served with a non-text content type.
	ErrNotText = errors.New("dataset is not text")
)

// Source opens the raw dataset.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// HTTPSource fetches the dataset over HTTP(S). It performs exactly one
// request per Open and does not retry.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a source for url using client (http.DefaultClient when nil).
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{URL: url, Client: client}
}

// Name returns the dataset URL.
func (s *HTTPSource) Name() string { return s.URL }

// Open issues the GET request and returns the response body.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, s.URL, resp.StatusCode)
	}
	if !isText(resp.Header.Get("Content-Type")) {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: content type %q", ErrNotText, resp.Header.Get("Content-Type"))
	}
	return resp.Body, nil
}

// isText accepts an absent content type, any text/* type, and the
// application types static hosts commonly use for .csv files.
func isText(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/csv", "application/octet-stream", "application/vnd.ms-excel":
		return true
	}
	return false
}

// FileSource reads the dataset from a directory of static site files.
type FileSource struct {
	Root string
	Path string
}

// NewFileSource creates a source for path resolved inside root.
func NewFileSource(root, path string) *FileSource {
	return &FileSource{Root: root, Path: path}
}

// Name returns the resolved file path.
func (s *FileSource) Name() string { return s.resolve() }

// Open opens the dataset file.
func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.resolve())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return f, nil
}

// resolve keeps the site path inside Root, the way a static host would.
func (s *FileSource) resolve() string {
	clean := filepath.Clean("/" + filepath.FromSlash(s.Path))
	return filepath.Join(s.Root, clean)
}

// Load opens src and aggregates its contents.
func Load(ctx context.Context, src Source) (*Aggregator, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Aggregate(rc)
}
