// Package media holds resolvers for image hosts whose share links point at
// an html page rather than at the image itself.
package media

import (
	"github.com/ccollins476ad/mdlocal/download"
	"github.com/ccollins476ad/mdlocal/media/imgbb"
	"github.com/ccollins476ad/mdlocal/media/imgur"
)

// Resolvers returns every known host resolver, in the order they should be
// consulted.
func Resolvers() []download.Resolver {
	return []download.Resolver{
		imgur.NewResolver(),
		imgbb.NewResolver(),
	}
}
