package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ccollins476ad/mdlocal/document"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func printFatalError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "mdlocal",
		Short:         "Downloads the images markdown documents reference and points the documents at the local copies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addRootFlags(root, o)

	root.AddCommand(newBatchCmd(o), newFetchCmd(o))

	return root
}

func newBatchCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process every markdown document in the source directory",
		Long: `Batch processes each document in the source directory in turn:
images go to <images>/<name>/ and the rewritten document to
<dest>/<name>_preprocessed.md. Images that fail to download are left
pointing at their original location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			setupLogging(cfg)

			if err := checkSourceDir(cfg.Source); err != nil {
				return err
			}

			filenames, err := findDocuments(cfg)
			if err != nil {
				return err
			}
			log.Debugf("found %d documents: source=%s", len(filenames), cfg.Source)

			sum := processFiles(cmd.Context(), cfg, filenames)
			log.Infof("done: documents=%d failed=%d references=%d downloaded=%d rewritten=%d",
				sum.Documents, sum.Failed, sum.References, sum.Downloaded, sum.Rewritten)

			return nil
		},
	}
	addBatchFlags(cmd.Flags(), o)

	return cmd
}

func newFetchCmd(o *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch <source_document>",
		Short: "Process a single markdown document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			setupLogging(cfg)

			source := args[0]
			if out == "" {
				out = defaultOutputPath(source)
			}

			doc, err := document.Read(source)
			if err != nil {
				return err
			}

			res, err := localize(cmd.Context(), cfg, doc, cfg.ImagesDir, out)
			if err != nil {
				return err
			}
			log.Infof("done: references=%d downloaded=%d rewritten=%d", res.References, res.Downloaded, res.Rewritten)

			return nil
		},
	}
	addFetchFlags(cmd.Flags(), o)
	cmd.Flags().StringVarP(&out, "out", "o", "", "path of the rewritten document (default <source>_preprocessed.md)")

	return cmd
}

func setupLogging(cfg *Config) {
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
}

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		printFatalError(err)
		os.Exit(1)
	}
}
