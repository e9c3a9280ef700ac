package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source is a byte-source reference for a volume. Implementations decide how the bytes are fetched.
type Source interface {
	// Open starts reading the source.
	//
	// Parameters:
	//   - ctx: cancels the transfer when done
	//
	// Returns:
	//   - io.ReadCloser: the byte stream, closed by the loader
	//   - int64: the expected length, or -1 if unknown
	//   - error: error if the source cannot be opened
	Open(ctx context.Context) (io.ReadCloser, int64, error)

	// String returns the reference used in logs and results.
	String() string
}

// FileSource reads a volume from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, 0, err
	}
	size := int64(-1)
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	return f, size, nil
}

func (s FileSource) String() string {
	return s.Path
}

// HTTPSource fetches a volume over http or https.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, 0, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

func (s HTTPSource) String() string {
	return s.URL
}

// BytesSource serves a volume already held in memory.
type BytesSource struct {
	Name string
	Data []byte
}

func (s BytesSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return io.NopCloser(bytes.NewReader(s.Data)), int64(len(s.Data)), nil
}

func (s BytesSource) String() string {
	if s.Name == "" {
		return "memory"
	}
	return s.Name
}

// ParseSource picks the Source implementation for a reference string.
//
// Parameters:
//   - ref: a filesystem path or an http(s) URL
//   - client: the HTTP client for URL references, nil for http.DefaultClient
//
// Returns:
//   - Source: the resolved source
func ParseSource(ref string, client *http.Client) Source {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return HTTPSource{URL: ref, Client: client}
	}
	return FileSource{Path: strings.TrimPrefix(ref, "file://")}
}

// contextReader stops a copy once its context is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// progressReader counts bytes and reports each whole-percent advance.
type progressReader struct {
	r        io.Reader
	report   func(Progress)
	state    Progress
	lastStep int64
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.state.Loaded += int64(n)
		if p.report != nil {
			step := int64(p.state.Percent())
			if p.state.Total <= 0 || step > p.lastStep {
				p.lastStep = step
				p.report(p.state)
			}
		}
	}
	return n, err
}

// finish emits a final report once the stream is exhausted.
func (p *progressReader) finish() {
	if p.report == nil {
		return
	}
	if p.state.Total <= 0 {
		p.state.Total = p.state.Loaded
	}
	if p.lastStep < 100 {
		p.lastStep = 100
		p.report(p.state)
	}
}
