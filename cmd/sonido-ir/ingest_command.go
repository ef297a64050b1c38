package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-ir/config"
	"github.com/RyanBlaney/sonido-ir/ir"
	"github.com/RyanBlaney/sonido-ir/pipeline"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var blobDir string

	cmd := &cobra.Command{
		Use:   "ingest <wav>",
		Short: "Extract and validate the IR of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if blobDir != "" {
				cfg.Blob = config.Blob{Mode: config.BlobModeFS, Root: blobDir}
			}

			res, err := pipeline.IngestWAVFile(args[0], pipeline.Options{Config: &cfg})
			if err != nil {
				return err
			}

			data, err := ir.MarshalIndent(res.Serialized)
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if outPath == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if dir := filepath.Dir(outPath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d fields, %d segments, %d events)\n",
				outPath, len(res.Document.Fields), len(res.Document.Segments), len(res.Document.Events))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output path for the IR JSON, - for stdout")
	cmd.Flags().StringVar(&blobDir, "blobs", "", "Store field arrays as files under this directory")
	return cmd
}
