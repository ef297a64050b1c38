package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-ir/blob"
	"github.com/RyanBlaney/sonido-ir/ir"
)

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ir.Unmarshal(data)
}

func newValidateCommand() *cobra.Command {
	var resolveRefs bool

	cmd := &cobra.Command{
		Use:   "validate <ir.json>",
		Short: "Validate a serialized IR document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			var opts []ir.ValidateOption
			if resolveRefs {
				// memory refs cannot resolve outside the run that wrote them
				opts = append(opts, ir.WithResolver(blob.Resolver{}))
			}
			if err := ir.Validate(doc, opts...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Document valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolveRefs, "resolve-refs", false, "Read fs field refs from disk and check their shapes")
	return cmd
}
