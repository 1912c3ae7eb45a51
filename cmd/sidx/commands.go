package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/go-sod/sidx/pkg/geom"
)

// withBackend runs fn against the configured transport with the request
// timeout applied.
func withBackend(flags *globalFlags, cmd *cobra.Command, fn func(ctx context.Context, b backend) error) error {
	if err := checkFormat(flags.format); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()
	b, closeFn, err := flags.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, b)
}

func insertCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "insert LAYER X,Y...",
		Short: "Insert points into a layer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := parsePoints(args[1:])
			if err != nil {
				return err
			}
			return withBackend(flags, cmd, func(ctx context.Context, b backend) error {
				if err := b.Insert(ctx, args[0], points...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d points into %s\n", len(points), args[0])
				return nil
			})
		},
	}
}

func deleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete LAYER X,Y...",
		Short: "Delete one stored entry per given point",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := parsePoints(args[1:])
			if err != nil {
				return err
			}
			return withBackend(flags, cmd, func(ctx context.Context, b backend) error {
				removed, err := b.Delete(ctx, args[0], points...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d of %d points from %s\n", removed, len(points), args[0])
				return nil
			})
		},
	}
}

func searchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search LAYER X1,Y1 X2,Y2",
		Short: "List the points inside a rectangle",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRect(args[1], args[2])
			if err != nil {
				return err
			}
			return withBackend(flags, cmd, func(ctx context.Context, b backend) error {
				points, err := b.Search(ctx, args[0], r)
				if err != nil {
					return err
				}
				return renderPoints(cmd.OutOrStdout(), flags.format, points)
			})
		},
	}
}

func nearestCmd(flags *globalFlags) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "nearest LAYER X,Y",
		Short: "Find the points closest to a location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parsePoint(args[1])
			if err != nil {
				return err
			}
			return withBackend(flags, cmd, func(ctx context.Context, b backend) error {
				points, found, err := b.Nearest(ctx, args[0], q, k)
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintf(cmd.OutOrStdout(), "layer %s is empty\n", args[0])
					return nil
				}
				return renderPoints(cmd.OutOrStdout(), flags.format, points)
			})
		},
	}
	cmd.Flags().IntVarP(&k, "count", "k", 1, "number of neighbours")
	return cmd
}

func withinCmd(flags *globalFlags) *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "within LAYER X,Y RADIUS",
		Short: "List the points within a distance of a location",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parsePoint(args[1])
			if err != nil {
				return err
			}
			radius, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("radius %q: %w", args[2], err)
			}
			return withBackend(flags, cmd, func(ctx context.Context, b backend) error {
				points, err := b.Within(ctx, args[0], q, radius, geom.DistanceFuncType(metric))
				if err != nil {
					return err
				}
				return renderPoints(cmd.OutOrStdout(), flags.format, points)
			})
		},
	}
	cmd.Flags().StringVar(&metric, "metric", string(geom.DistanceFuncTypeEuclidean), "euclidean, manhattan or chebyshev")
	return cmd
}

func dumpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump LAYER",
		Short: "Print the tree structure of a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.httpClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()
			return c.Dump(ctx, args[0], cmd.OutOrStdout())
		},
	}
}

func layersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List layers with their size and bounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
			}
			c, err := flags.httpClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()
			stats, err := c.Layers(ctx)
			if err != nil {
				return err
			}
			return renderStats(cmd.OutOrStdout(), flags.format, stats)
		},
	}
}

func dropCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drop LAYER",
		Short: "Remove a layer and all of its points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.httpClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()
			if err := c.Drop(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[0])
			return nil
		},
	}
}
