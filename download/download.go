package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"gitlab.com/tozd/go/errors"
)

// DefaultTimeout bounds a single fetch, including reading the body.
const DefaultTimeout = 30 * time.Second

// FetchError indicates an image could not be retrieved: a transport error, a
// timeout, or a non-2xx response.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch: url=%s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// GetBody performs an http GET with url=u using the supplied client and
// header. Redirects are followed by the client. It returns the response body
// and headers; the caller must close the body. A non-2xx status is an error.
func GetBody(ctx context.Context, hc *http.Client, u string, header http.Header) (io.ReadCloser, http.Header, error) {
	log.Debugf("get: %s", u)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rsp, err := hc.Do(req)
	if err != nil {
		return nil, nil, errors.Errorf("failed to send request: %w", err)
	}

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		rsp.Body.Close()
		return nil, nil, errors.Errorf("error status: %s", rsp.Status)
	}

	return rsp.Body, rsp.Header, nil
}

// Get calls GetBody(), then reads the full response and returns the result.
func Get(ctx context.Context, hc *http.Client, u string, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	body, _, err := GetBody(ctx, hc, u, header)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return io.ReadAll(NewContextReader(ctx, body))
}
