package imgbb

import (
	"context"
	"net/http"
	"strings"

	"github.com/ccollins476ad/mdlocal/download"
	"github.com/ccollins476ad/mdlocal/web"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/html"
)

// PagePrefix is the url prefix of imgbb image and album pages.
var PagePrefix = "https://ibb.co/"

// Resolver maps imgbb page links to direct image links. It implements the
// download.Resolver interface.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve fetches the imgbb page at u and returns the url of the image it
// shows. For an album it returns the first image.
func (r *Resolver) Resolve(ctx context.Context, hc *http.Client, u string) (string, error) {
	if !strings.HasPrefix(u, PagePrefix) {
		return "", nil
	}

	body, _, err := download.GetBody(ctx, hc, u, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := html.Parse(download.NewContextReader(ctx, body))
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(u, PagePrefix+"album/") {
		return albumImage(doc)
	}
	return pageImage(doc)
}

// albumImage returns the first image of an imgbb album page.
func albumImage(doc *html.Node) (string, error) {
	urls := web.EmbeddedImageURLs(doc, "https://")
	if len(urls) == 0 {
		return "", errors.New("imgbb album contains 0 embedded image urls")
	}
	return urls[0], nil
}

// pageImage returns the image of an imgbb image page, which must embed
// exactly one.
func pageImage(doc *html.Node) (string, error) {
	var targetURL string
	for _, iu := range web.EmbeddedImageURLs(doc, "https://") {
		if targetURL != "" && iu != targetURL {
			return "", errors.Errorf("imgbb page contains multiple image links: first=%s second=%s", targetURL, iu)
		}
		targetURL = iu
	}
	if targetURL == "" {
		return "", errors.New("imgbb page lacks image link")
	}

	return targetURL, nil
}
