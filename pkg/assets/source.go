// Package assets opens model and texture files by name and turns them into
// scene nodes and textures.
package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
)

// Source resolves asset names to readable streams.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource serves assets from a file system, usually a local directory.
type DirSource struct {
	FS fs.FS
}

// NewDirSource serves assets from dir.
func NewDirSource(dir string) DirSource {
	return DirSource{FS: os.DirFS(dir)}
}

// Open implements Source. The context is only checked before opening.
func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.FS.Open(path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// HTTPSource fetches assets relative to a base URL.
type HTTPSource struct {
	Base   *url.URL
	Client *http.Client
}

// NewHTTPSource parses base and returns a source using http.DefaultClient.
func NewHTTPSource(base string) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", base)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	return &HTTPSource{Base: u, Client: http.DefaultClient}, nil
}

// Open implements Source with a single GET request.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("asset name %q: %w", name, err)
	}
	target := s.Base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", target, resp.Status)
	}
	return resp.Body, nil
}
