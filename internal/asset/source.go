package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/utafrali/configurator/pkg/httpclient"
)

// Fetcher downloads remote models. *httpclient.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// ErrModelTooLarge is returned when a model is larger than the loader's
// size limit.
var ErrModelTooLarge = errors.New("model exceeds size limit")

func isRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// open returns the content of a local path or an http(s) URL. With maxBytes
// above zero, reading past maxBytes fails with ErrModelTooLarge.
func open(ctx context.Context, fetcher Fetcher, src string, maxBytes int64) (io.ReadCloser, error) {
	if !isRemote(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open model: %w", err)
		}
		return limitBody(f, maxBytes), nil
	}

	if fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", src)
	}
	resp, err := fetcher.Get(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, httpclient.ParseResponseError(resp, "asset")
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %d bytes declared, limit %d", ErrModelTooLarge, resp.ContentLength, maxBytes)
	}
	return limitBody(resp.Body, maxBytes), nil
}

type limitedBody struct {
	r    io.Reader
	c    io.Closer
	max  int64
	read int64
}

func limitBody(rc io.ReadCloser, maxBytes int64) io.ReadCloser {
	if maxBytes <= 0 {
		return rc
	}
	return &limitedBody{r: io.LimitReader(rc, maxBytes+1), c: rc, max: maxBytes}
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.read += int64(n)
	if b.read > b.max {
		return n - int(b.read-b.max), fmt.Errorf("%w: limit %d bytes", ErrModelTooLarge, b.max)
	}
	return n, err
}

func (b *limitedBody) Close() error {
	return b.c.Close()
}

// extension returns the lower-cased extension of src without the dot. Query
// strings and fragments of URLs are ignored.
func extension(src string) string {
	p := src
	if isRemote(src) {
		if u, err := url.Parse(src); err == nil {
			p = u.Path
		}
		return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
}

// baseName names a root object after its source file.
func baseName(src string) string {
	if isRemote(src) {
		if u, err := url.Parse(src); err == nil {
			return path.Base(u.Path)
		}
	}
	return filepath.Base(src)
}
