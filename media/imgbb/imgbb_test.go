package imgbb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imagePage = `<html><body>
<img src="/static/logo.svg">
<div class="image-viewer"><img src="https://i.ibb.co/abc123/photo.jpg" alt="photo"></div>
</body></html>`

const albumPage = `<html><body>
<img src="https://i.ibb.co/one/1.png"><img src="https://i.ibb.co/two/2.png">
</body></html>`

func withServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/abc123":
			fmt.Fprint(w, imagePage)
		case "/album/xyz":
			fmt.Fprint(w, albumPage)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	orig := PagePrefix
	PagePrefix = srv.URL + "/"
	t.Cleanup(func() { PagePrefix = orig })

	return srv
}

func TestResolve_ImagePage(t *testing.T) {
	srv := withServer(t)

	got, err := NewResolver().Resolve(context.Background(), srv.Client(), srv.URL+"/abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc123/photo.jpg", got)
}

func TestResolve_Album(t *testing.T) {
	srv := withServer(t)

	got, err := NewResolver().Resolve(context.Background(), srv.Client(), srv.URL+"/album/xyz")
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/one/1.png", got)
}

func TestResolve_AmbiguousPage(t *testing.T) {
	srv := withServer(t)

	// Not an album url, but the page embeds two images.
	PagePrefix = srv.URL + "/album/"
	_, err := NewResolver().Resolve(context.Background(), srv.Client(), srv.URL+"/album/xyz")
	assert.Error(t, err)
}

func TestResolve_PageMissing(t *testing.T) {
	srv := withServer(t)

	_, err := NewResolver().Resolve(context.Background(), srv.Client(), srv.URL+"/gone")
	assert.Error(t, err)
}

func TestResolve_OtherHost(t *testing.T) {
	got, err := NewResolver().Resolve(context.Background(), http.DefaultClient, "https://example.com/a.png")
	require.NoError(t, err)
	assert.Empty(t, got)
}
