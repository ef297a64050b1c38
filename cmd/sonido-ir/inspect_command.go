package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-ir/ir"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <ir.json>",
		Short: "Summarise the fields, segments and events of an IR document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readDocument(args[0])
			if err != nil {
				return err
			}
			doc, err := ir.FromMap(m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			src := doc.Meta.Source
			fmt.Fprintf(out, "IR %s created %s\n", doc.Meta.IRVersion, doc.Meta.CreatedUTC)
			fmt.Fprintf(out, "Source: %d Hz, %d channels, %.3f s\n\n", src.SR, src.Channels, src.DurationS)

			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Shape", "DType", "Store", "Timebase"},
				fieldRows(doc),
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintln(out, renderTable(
				atomHeaders("Segment"),
				atomRows(doc.Segments),
				atomAligns,
			))
			fmt.Fprintln(out, renderTable(
				atomHeaders("Event"),
				atomRows(doc.Events),
				atomAligns,
			))
			return nil
		},
	}
}

var atomAligns = []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}

func atomHeaders(kind string) []string {
	return []string{kind, "Type", "t0", "t1", "Confidence", "Tags"}
}

func fieldRows(doc *ir.Document) [][]string {
	keys := make([]string, 0, len(doc.Fields))
	for k := range doc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		f := doc.Fields[k]
		dims := make([]string, len(f.Shape))
		for i, d := range f.Shape {
			dims[i] = strconv.Itoa(d)
		}
		rows = append(rows, []string{k, strings.Join(dims, "x"), string(f.DType), string(f.Ref.Store), f.Timebase})
	}
	return rows
}

func atomRows(atoms []ir.TimedAtom) [][]string {
	rows := make([][]string, 0, len(atoms))
	for _, a := range atoms {
		rows = append(rows, []string{
			a.ID,
			a.Type,
			strconv.FormatFloat(a.T0, 'f', 3, 64),
			strconv.FormatFloat(a.T1, 'f', 3, 64),
			strconv.FormatFloat(a.Confidence, 'f', 2, 64),
			strings.Join(a.Tags, ","),
		})
	}
	return rows
}
