package download

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/flytam/filenamify"
)

// LocalPath returns the path, under dir, that the image referenced by ref is
// saved to. index is the position of ref among the document's references and
// is only used when ref has no path at all.
//
//   - The final segment of the URL path is used if it has an extension.
//   - Otherwise the name is derived from a hash of ref: image_<hash8>.png.
//   - Without a path (or if ref is not a URL) it is image_<index>.png.
//
// The .png extension is provisional; Store.Fetch corrects it for svg images.
func LocalPath(dir string, ref string, index int) string {
	return filepath.Join(dir, localName(ref, index))
}

func localName(ref string, index int) string {
	u, err := url.Parse(ref)
	if err != nil {
		return indexName(index)
	}

	p := u.EscapedPath()
	if p == "" {
		return indexName(index)
	}

	// Unlike path.Base, a trailing slash yields an empty segment. The segment
	// is split off before unescaping so that %2F cannot add a separator.
	seg, err := url.PathUnescape(p[strings.LastIndex(p, "/")+1:])
	if err != nil || strings.Contains(seg, "/") || !strings.Contains(seg, ".") {
		return hashName(ref)
	}

	safe, err := filenamify.Filenamify(seg, filenamify.Options{Replacement: "_"})
	if err != nil || !strings.Contains(safe, ".") {
		return hashName(ref)
	}
	return safe
}

func indexName(index int) string {
	return fmt.Sprintf("image_%d.png", index)
}

func hashName(ref string) string {
	return "image_" + shortHash(ref) + ".png"
}

// shortHash returns the first 8 hex characters of the md5 digest of s.
func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// Claims tracks the local paths handed out within one document so that two
// different references never share a file. Since Store.Fetch may append
// ".svg" to a path, that variant is reserved along with it.
type Claims struct {
	owners map[string]string // path --> reference
}

func NewClaims() *Claims {
	return &Claims{
		owners: map[string]string{},
	}
}

// Claim reserves p, and p with an added svg extension, for ref. If either
// already belongs to a different reference, a hash of ref is inserted before
// the extension and that path is reserved instead. It returns the reserved
// path.
func (c *Claims) Claim(ref string, p string) string {
	if !c.available(ref, p) {
		ext := filepath.Ext(p)
		p = strings.TrimSuffix(p, ext) + "_" + shortHash(ref) + ext
	}

	for _, v := range svgVariants(p) {
		c.owners[v] = ref
	}
	return p
}

func (c *Claims) available(ref string, p string) bool {
	for _, v := range svgVariants(p) {
		if owner, ok := c.owners[v]; ok && owner != ref {
			return false
		}
	}
	return true
}

// svgVariants returns the paths a fetch to p may end up writing.
func svgVariants(p string) []string {
	if strings.HasSuffix(p, ".svg") {
		return []string{p}
	}
	return []string{p, p + ".svg"}
}
