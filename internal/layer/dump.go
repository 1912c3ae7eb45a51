package layer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-sod/sidx/pkg/container/rtree"
)

const dumpHeader = "R-Tree Structure:"

// WriteTree prints one line per node, indented two spaces per level, with
// the entries of a leaf listed under it.
func WriteTree(w io.Writer, tr *rtree.Tree) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, dumpHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var err error
	tr.Walk(func(v rtree.NodeView) bool {
		indent := strings.Repeat("  ", v.Level)
		if _, err = fmt.Fprintf(bw, "%sNode MBR: %s\n", indent, v.MBR); err != nil {
			return false
		}
		for _, e := range v.Entries {
			if _, err = fmt.Fprintf(bw, "%s Entry: %s\n", indent, e); err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("write node: %w", err)
	}
	return bw.Flush()
}
