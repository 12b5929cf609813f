package download

import (
	"context"
	"sync"

	"github.com/ccollins476ad/mdlocal/imgref"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DownloadAll fetches every distinct usable reference in refs exactly once
// and returns the references that were saved successfully, with their local
// paths. Up to jobs fetches run at a time; jobs <= 1 fetches strictly in
// order. Failures are logged and leave the reference unrecorded. DownloadAll
// returns only once every fetch has finished.
func DownloadAll(ctx context.Context, s *Store, refs []imgref.Reference, jobs int) imgref.Records {
	type job struct {
		ref  string
		path string
	}

	claims := NewClaims()
	seen := map[string]struct{}{}

	var queue []job
	for i, r := range refs {
		if !imgref.Usable(r.Value) {
			log.Debugf("skipping empty image reference: index=%d", i)
			continue
		}
		if _, ok := seen[r.Value]; ok {
			continue
		}
		seen[r.Value] = struct{}{}

		p := claims.Claim(r.Value, LocalPath(s.Dir(), r.Value, i))
		queue = append(queue, job{ref: r.Value, path: p})
	}

	if jobs < 1 {
		jobs = 1
	}

	recsMtx := sync.Mutex{} // Protects recs.
	recs := imgref.Records{}

	g := &errgroup.Group{}
	g.SetLimit(jobs)

	for _, j := range queue {
		j := j
		g.Go(func() error {
			p, err := s.Fetch(ctx, j.ref, j.path)
			if err != nil {
				log.WithError(err).Errorf("failed to download image: url=%s", j.ref)
				return nil
			}

			recsMtx.Lock()
			defer recsMtx.Unlock()
			recs[j.ref] = p

			return nil
		})
	}

	g.Wait()

	return recs
}
