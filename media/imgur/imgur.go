package imgur

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ccollins476ad/mdlocal/download"
	"github.com/koffeinsource/go-imgur"
	log "github.com/sirupsen/logrus"
	"gitlab.com/tozd/go/errors"
)

const (
	clientID = "ab1802d70cb1deb"
)

// APIBase is the imgur api endpoint albums are looked up at.
var APIBase = "https://api.imgur.com/3"

var getHeader = http.Header{
	"Authorization": []string{"Client-ID " + clientID},
	"referer":       []string{"https://imgur.com/"},
	"origin":        []string{"https://imgur.com"},
	"content-type":  []string{"application/json"},
	"user-agent":    []string{"curl/7.84.0"},
}

type albumInfoDataWrapper struct {
	AI      *imgur.AlbumInfo `json:"data"`
	Success bool             `json:"success"`
	Status  int              `json:"status"`
}

// Resolver maps imgur page and album links to direct image links. It
// implements the download.Resolver interface.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve handles three url forms:
//
//	https://i.imgur.com/<id>.<ext>  already direct; not handled
//	https://imgur.com/a/<hash>      album; resolves to its first image
//	https://imgur.com/<id>          image page; resolves to the jpeg
func (r *Resolver) Resolve(ctx context.Context, hc *http.Client, u string) (string, error) {
	if strings.HasPrefix(u, "https://imgur.com/a/") {
		links, err := albumLinks(ctx, hc, u)
		if err != nil {
			return "", err
		}
		if len(links) == 0 {
			return "", errors.Errorf("imgur album contains no images: url=%s", u)
		}
		return links[0], nil
	}

	return imageLink(u), nil
}

// imageLink converts an imgur image page url to the url of the image itself.
// It returns the empty string for any other url.
func imageLink(u string) string {
	imageID, ok := strings.CutPrefix(u, "https://imgur.com/")
	if !ok || len(imageID) != 7 {
		return ""
	}
	return "https://i.imgur.com/" + imageID + ".jpeg"
}

// albumHash extracts the 7 character album hash from an album url. Titled
// album urls carry the hash at the end: /a/some-title-<hash>.
func albumHash(u string) (string, error) {
	trimmed := strings.TrimPrefix(u, "https://imgur.com/a/")
	if len(trimmed) < 7 {
		return "", errors.Errorf("imgur album hash length too short: have=%d want=7 hash=%s", len(trimmed), trimmed)
	}
	if len(trimmed) > 7 {
		hash := trimmed[len(trimmed)-7:]
		log.Debugf("removing imgur album prefix: %s --> %s", trimmed, hash)
		trimmed = hash
	}
	return trimmed, nil
}

// albumLinks reads the imgur album at the specified url and returns the urls
// of all its images.
func albumLinks(ctx context.Context, hc *http.Client, u string) ([]string, error) {
	log.Debugf("scanning imgur album: %s", u)

	hash, err := albumHash(u)
	if err != nil {
		return nil, err
	}

	b, err := download.Get(ctx, hc, APIBase+"/album/"+hash, getHeader)
	if err != nil {
		return nil, err
	}

	return decodeAlbumLinks(b)
}

func decodeAlbumLinks(b []byte) ([]string, error) {
	aidw := &albumInfoDataWrapper{}
	err := json.Unmarshal(b, aidw)
	if err != nil {
		return nil, errors.Errorf("failed to decode album info: %w", err)
	}

	if !aidw.Success || aidw.AI == nil {
		return nil, errors.New("album info response has success=false")
	}

	var links []string
	for _, img := range aidw.AI.Images {
		log.Debugf("detected imgur album image link: %s", img.Link)
		links = append(links, img.Link)
	}

	return links, nil
}
