package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valyala/fastrand"

	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/pkg/container/rtree"
	"github.com/go-sod/sidx/pkg/geom"
)

var demoPoints = []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 10, Y: 10}, {X: 11, Y: 11}}

// demoCmd builds a tree in memory, so it needs no server.
func demoCmd() *cobra.Command {
	var (
		random     int
		maxEntries int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a small tree locally and show queries on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			tr := rtree.New(rtree.WithMaxEntries(maxEntries))
			points := demoPoints
			if random > 0 {
				points = make([]geom.Point, random)
				for i := range points {
					points[i] = geom.NewPoint(float64(fastrand.Uint32n(1000))/10, float64(fastrand.Uint32n(1000))/10)
				}
			}
			for _, p := range points {
				tr.Insert(p)
			}

			if err := layer.WriteTree(out, tr); err != nil {
				return err
			}

			r := geom.NewRect(geom.Point{}, geom.NewPoint(2, 2))
			fmt.Fprintf(out, "\nSearch %s:\n", r)
			if err := renderPoints(out, formatTable, tr.Search(r)); err != nil {
				return err
			}

			q := geom.NewPoint(1.1, 1.1)
			if p, ok := tr.Nearest(q); ok {
				fmt.Fprintf(out, "\nNearest to %s: %s\n", q, p)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&random, "random", 0, "insert this many random points instead of the sample")
	cmd.Flags().IntVar(&maxEntries, "max-entries", rtree.MaxEntries, "node fan-out")
	return cmd
}
