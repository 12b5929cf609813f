package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollins476ad/mdlocal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngBody = "\x89PNG fake image data"

func newImageServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte(pngBody))
	})
	mux.HandleFunc("/docs/img/rel.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("relative"))
	})
	mux.HandleFunc("/logo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
		w.Write([]byte("<svg/>"))
	})
	mux.HandleFunc("/plain.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("<svg/>"))
	})
	mux.HandleFunc("/old.png", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/a.png", http.StatusFound)
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Success(t *testing.T) {
	srv := newImageServer(t)
	dir := filepath.Join(t.TempDir(), "images", "doc")
	s := NewStore(dir)

	p, err := s.Fetch(context.Background(), srv.URL+"/a.png", filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.png"), p)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, pngBody, string(b))
}

func TestFetch_FollowsRedirects(t *testing.T) {
	srv := newImageServer(t)
	dir := t.TempDir()

	p, err := NewStore(dir).Fetch(context.Background(), srv.URL+"/old.png", filepath.Join(dir, "old.png"))
	require.NoError(t, err)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, pngBody, string(b))
}

func TestFetch_NotFound(t *testing.T) {
	srv := newImageServer(t)
	dir := filepath.Join(t.TempDir(), "images")
	target := filepath.Join(dir, "missing.png")

	_, err := NewStore(dir).Fetch(context.Background(), srv.URL+"/missing.png", target)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Error(), "404")
	assert.NoFileExists(t, target)
}

func TestFetch_SVGContentType(t *testing.T) {
	srv := newImageServer(t)
	dir := t.TempDir()
	target := LocalPath(dir, srv.URL+"/logo", 0)

	p, err := NewStore(dir).Fetch(context.Background(), srv.URL+"/logo", target)
	require.NoError(t, err)

	assert.Equal(t, target+".svg", p)
	assert.True(t, strings.HasSuffix(p, ".svg"))
	assert.FileExists(t, p)
	assert.NoFileExists(t, target)
}

func TestFetch_SVGReferenceNotDoubled(t *testing.T) {
	srv := newImageServer(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "plain.svg")

	p, err := NewStore(dir).Fetch(context.Background(), srv.URL+"/plain.svg", target)
	require.NoError(t, err)
	assert.Equal(t, target, p)
}

func TestFetch_RelativeWithBase(t *testing.T) {
	srv := newImageServer(t)
	base, err := url.Parse(srv.URL + "/docs/")
	require.NoError(t, err)

	dir := t.TempDir()
	s := NewStore(dir, WithBaseURL(base))

	p, err := s.Fetch(context.Background(), "img/rel.png", filepath.Join(dir, "rel.png"))
	require.NoError(t, err)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "relative", string(b))
}

func TestFetch_RelativeWithoutBase(t *testing.T) {
	dir := t.TempDir()

	_, err := NewStore(dir).Fetch(context.Background(), "img/rel.png", filepath.Join(dir, "rel.png"))

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "img/rel.png", fetchErr.URL)
}

func TestFetch_Timeout(t *testing.T) {
	srv := newImageServer(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "slow.png")

	start := time.Now()
	_, err := NewStore(dir, WithTimeout(100*time.Millisecond)).Fetch(context.Background(), srv.URL+"/slow.png", target)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.NoFileExists(t, target)
}

func TestFetch_FilesystemError(t *testing.T) {
	srv := newImageServer(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "images")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0644))

	_, err := NewStore(blocker).Fetch(context.Background(), srv.URL+"/a.png", filepath.Join(blocker, "a.png"))

	var fsErr *fileutil.FilesystemError
	require.True(t, errors.As(err, &fsErr))
}

type mapResolver map[string]string

func (m mapResolver) Resolve(ctx context.Context, hc *http.Client, u string) (string, error) {
	return m[u], nil
}

func TestResolve(t *testing.T) {
	base, err := url.Parse("https://example.com/posts/2024/")
	require.NoError(t, err)

	s := NewStore("out",
		WithBaseURL(base),
		WithResolvers(mapResolver{"https://example.com/page": "https://cdn.example.com/page.jpg"}),
	)

	tests := []struct {
		ref  string
		want string
	}{
		{ref: "img/a.png", want: "https://example.com/posts/2024/img/a.png"},
		{ref: "/static/a.png", want: "https://example.com/static/a.png"},
		{ref: "../a.png", want: "https://example.com/posts/a.png"},
		{ref: "//cdn.example.com/a.png", want: "https://cdn.example.com/a.png"},
		{ref: "http://other.com/a.png", want: "http://other.com/a.png"},
		{ref: "/page", want: "https://cdn.example.com/page.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := s.Resolve(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAbsolute(t *testing.T) {
	assert.True(t, IsAbsolute("http://x.com/a.png"))
	assert.True(t, IsAbsolute("https://cdn.example.com/a/b.png?x=1"))
	assert.False(t, IsAbsolute("images/a.png"))
	assert.False(t, IsAbsolute("/images/a.png"))
	assert.False(t, IsAbsolute("//cdn.example.com/a.png"))
	assert.False(t, IsAbsolute("see http://x.com/a.png"))
}
