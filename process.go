package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ccollins476ad/mdlocal/document"
	"github.com/ccollins476ad/mdlocal/download"
	"github.com/ccollins476ad/mdlocal/imgref"
	"github.com/ccollins476ad/mdlocal/media"
	log "github.com/sirupsen/logrus"
	"gitlab.com/tozd/go/errors"
)

// Summary tallies a batch run.
type Summary struct {
	Documents  int // Documents processed, including failures.
	Failed     int // Documents that could not be read or written.
	References int // Image references found.
	Downloaded int // Distinct images saved.
	Rewritten  int // Occurrences pointed at a local copy.
}

type fileResult struct {
	References int
	Downloaded int
	Rewritten  int
}

// findDocuments lists the documents directly inside cfg.Source that match
// cfg.Pattern, sorted by name.
func findDocuments(cfg *Config) ([]string, error) {
	filenames, err := doublestar.Glob(os.DirFS(cfg.Source), cfg.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("listing documents: source=%s: %w", cfg.Source, err)
	}

	sort.Strings(filenames)
	return filenames, nil
}

// processFiles calls processFile() for each filename in the given slice, one
// document at a time. A document that fails is logged and counted; the
// remaining documents are still processed.
func processFiles(ctx context.Context, cfg *Config, filenames []string) Summary {
	var sum Summary

	for _, filename := range filenames {
		sum.Documents++

		res, err := processFile(ctx, cfg, filename)
		if err != nil {
			log.WithError(err).Errorf("failed to process document: filename=%s", filename)
			sum.Failed++
			continue
		}

		sum.References += res.References
		sum.Downloaded += res.Downloaded
		sum.Rewritten += res.Rewritten
	}

	return sum
}

// processFile reads the given document from the source directory, saves the
// images it references to a directory named after it, and writes the
// rewritten document to the destination directory.
func processFile(ctx context.Context, cfg *Config, filename string) (*fileResult, error) {
	log.Infof("processing: %s", filename)

	doc, err := document.Read(filepath.Join(cfg.Source, filename))
	if err != nil {
		return nil, err
	}

	imagesDir := filepath.Join(cfg.ImagesDir, doc.Stem)
	outPath := filepath.Join(cfg.DestDir, doc.Stem+"_preprocessed"+doc.Ext)

	return localize(ctx, cfg, doc, imagesDir, outPath)
}

// localize downloads the images referenced by doc into imagesDir, then writes
// doc to outPath with every downloaded reference pointing at its local copy.
// Failed downloads are left as they were.
func localize(ctx context.Context, cfg *Config, doc *document.Document, imagesDir string, outPath string) (*fileResult, error) {
	refs := imgref.Extract(doc.Text)
	log.Debugf("found %d image references: path=%s", len(refs), doc.Path)

	recs := download.DownloadAll(ctx, newStore(cfg, imagesDir), refs, cfg.Jobs)

	links := linkRecords(cfg, recs, outPath)
	text := imgref.Rewrite(doc.Text, links)

	err := document.Write(outPath, text)
	if err != nil {
		return nil, err
	}
	log.Infof("updated document: %s", outPath)

	return &fileResult{
		References: len(refs),
		Downloaded: len(recs),
		Rewritten:  imgref.Count(doc.Text, links),
	}, nil
}

func newStore(cfg *Config, dir string) *download.Store {
	opts := []download.Option{
		download.WithTimeout(cfg.Timeout),
	}
	if cfg.baseURL != nil {
		opts = append(opts, download.WithBaseURL(cfg.baseURL))
	}
	if !cfg.NoResolve {
		opts = append(opts, download.WithResolvers(media.Resolvers()...))
	}

	return download.NewStore(dir, opts...)
}

// linkRecords converts the local file paths in recs into the links written to
// the document at outPath. Links use forward slashes. With RelativeLinks they
// are relative to the document's directory; otherwise they are the paths as
// saved.
func linkRecords(cfg *Config, recs imgref.Records, outPath string) imgref.Records {
	links := make(imgref.Records, len(recs))

	for ref, p := range recs {
		link := p
		if cfg.RelativeLinks {
			rel, err := relativeTo(filepath.Dir(outPath), p)
			if err != nil {
				log.WithError(err).Debugf("using saved path as link: path=%s", p)
			} else {
				link = rel
			}
		}
		links[ref] = filepath.ToSlash(link)
	}

	return links
}

func relativeTo(dir string, p string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absDir, absP)
}
