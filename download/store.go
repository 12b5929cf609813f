package download

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ccollins476ad/mdlocal/fileutil"
	log "github.com/sirupsen/logrus"
	"gitlab.com/tozd/go/errors"
	"mvdan.cc/xurls/v2"
)

var absoluteRegexp = xurls.Strict()

// Resolver translates a page url into the url of the image it shows. Most
// resolver implementations only know about a particular web site (e.g.,
// imgur).
type Resolver interface {
	// Resolve returns the direct image url for u. It returns the empty
	// string if it does not know how to handle u.
	Resolve(ctx context.Context, hc *http.Client, u string) (string, error)
}

// Store downloads the images referenced by one document into a directory.
type Store struct {
	dir string // constant

	hc        *http.Client
	timeout   time.Duration
	base      *url.URL // Resolves relative references; may be nil.
	resolvers []Resolver
}

type Option func(s *Store)

// WithBaseURL makes the store resolve relative references against u.
func WithBaseURL(u *url.URL) Option {
	return func(s *Store) {
		s.base = u
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(s *Store) {
		s.hc = hc
	}
}

// WithTimeout bounds each fetch. The default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func WithResolvers(rs ...Resolver) Option {
	return func(s *Store) {
		s.resolvers = append(s.resolvers, rs...)
	}
}

func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:     dir,
		hc:      &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dir returns the directory images are saved to.
func (s *Store) Dir() string {
	return s.dir
}

// IsAbsolute reports whether ref is an absolute url, i.e., starts with a
// recognized scheme.
func IsAbsolute(ref string) bool {
	loc := absoluteRegexp.FindStringIndex(ref)
	return loc != nil && loc[0] == 0
}

// Resolve returns the url that ref should be fetched from. Relative
// references are resolved against the base url, if one is configured;
// otherwise they are returned unchanged. The result is then offered to each
// resolver in turn.
func (s *Store) Resolve(ctx context.Context, ref string) (string, error) {
	u := ref
	if s.base != nil && !IsAbsolute(ref) {
		rel, err := url.Parse(ref)
		if err != nil {
			return "", errors.Errorf("failed to parse relative reference: %w", err)
		}
		u = s.base.ResolveReference(rel).String()
		log.Debugf("resolved relative reference: %s --> %s", ref, u)
	}

	for _, r := range s.resolvers {
		direct, err := r.Resolve(ctx, s.hc, u)
		if err != nil {
			return "", err
		}
		if direct != "" {
			log.Debugf("resolved page url: %s --> %s", u, direct)
			return direct, nil
		}
	}

	return u, nil
}

// Fetch retrieves the image referenced by ref and saves it at localPath. If
// the response is an svg image (by content type, or because ref ends in
// .svg), ".svg" is appended to localPath unless already present. It returns
// the path actually written.
//
// The body is streamed into a temporary file that only replaces localPath
// after the whole body was received. Network failures are reported as
// *FetchError, disk failures as *fileutil.FilesystemError.
func (s *Store) Fetch(ctx context.Context, ref string, localPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.Resolve(ctx, ref)
	if err != nil {
		return "", &FetchError{URL: ref, Err: err}
	}

	body, header, err := GetBody(ctx, s.hc, u, nil)
	if err != nil {
		return "", &FetchError{URL: u, Err: err}
	}
	defer body.Close()

	if isSVG(header.Get("Content-Type"), ref) && !strings.HasSuffix(localPath, ".svg") {
		log.Debugf("svg image, adding extension: %s", localPath)
		localPath += ".svg"
	}

	err = fileutil.CreateFrom(localPath, NewContextReader(ctx, body))
	if err != nil {
		var fsErr *fileutil.FilesystemError
		if errors.As(err, &fsErr) {
			return "", err
		}
		return "", &FetchError{URL: u, Err: err}
	}

	log.Infof("downloaded %s --> %s", u, localPath)
	return localPath, nil
}

func isSVG(contentType string, ref string) bool {
	return strings.Contains(strings.ToLower(contentType), "svg") || strings.HasSuffix(ref, ".svg")
}
