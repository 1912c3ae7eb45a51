package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/pkg/geom"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func renderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderPoints(w io.Writer, format string, points []geom.Point) error {
	if format == formatJSON {
		if points == nil {
			points = []geom.Point{}
		}
		return renderJSON(w, points)
	}
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"#", "X", "Y"})
	for i, p := range points {
		tbl.AppendRow(table.Row{i + 1, p.X, p.Y})
	}
	tbl.AppendFooter(table.Row{"", "Total", len(points)})
	tbl.Render()
	return nil
}

func renderStats(w io.Writer, format string, stats []layer.Stat) error {
	if format == formatJSON {
		if stats == nil {
			stats = []layer.Stat{}
		}
		return renderJSON(w, stats)
	}
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Layer", "Points", "Height", "Bounds"})
	for _, s := range stats {
		bounds := "-"
		if s.Bounds != nil {
			bounds = s.Bounds.String()
		}
		tbl.AppendRow(table.Row{s.Name, s.Points, s.Height, bounds})
	}
	tbl.Render()
	return nil
}

func checkFormat(format string) error {
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}
