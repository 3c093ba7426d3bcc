package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxBody caps a dictionary response.
const maxBody = 16 << 20

// Source produces the raw dictionary document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// HTTPSource fetches the dictionary with a cache-busting query parameter.
type HTTPSource struct {
	URL    string
	Client *http.Client
	Now    func() time.Time
}

func (s *HTTPSource) String() string { return s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrNetwork, s.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return body, nil
}

// FileSource reads the dictionary from a local file.
type FileSource struct {
	Path string
}

func (s *FileSource) String() string { return s.Path }

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return data, nil
}

// FSSource reads the dictionary bundled in an fs.FS, typically the embedded
// static assets.
type FSSource struct {
	FS   fs.FS
	Name string
}

func (s *FSSource) String() string { return "embedded:" + s.Name }

func (s *FSSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := fs.ReadFile(s.FS, s.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return data, nil
}

// NewSource picks a source for location: http(s) URLs are fetched over the
// network, file:// URLs and bare paths are read from disk, and an empty
// location falls back to name inside fsys.
func NewSource(location string, client *http.Client, fsys fs.FS, name string) (Source, error) {
	switch {
	case location == "":
		if fsys == nil {
			return nil, errors.New("no dictionary location and no bundled dictionary")
		}
		return &FSSource{FS: fsys, Name: name}, nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return &HTTPSource{URL: location, Client: client}, nil
	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse dictionary url: %w", err)
		}
		return &FileSource{Path: u.Path}, nil
	default:
		return &FileSource{Path: location}, nil
	}
}
