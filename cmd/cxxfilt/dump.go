package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/cxxdemangle/demangle"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <symbol>",
	Short: "Dump the decoded syntax tree of a mangled name",
	Long: `Dump the tree the decoder builds for a mangled name.

Supported formats (--format):
  - text: Indented tree (default)
  - json: JSON format`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

// NodeDump is the JSON form of one tree node.
type NodeDump struct {
	Kind     string      `json:"kind"`
	Text     string      `json:"text"`
	Children []*NodeDump `json:"children,omitempty"`
}

func runDump(cmd *cobra.Command, args []string) error {
	root, err := demangle.Parse(args[0], demangleOpts...)
	if err != nil {
		return fmt.Errorf("failed to parse symbol: %w", err)
	}

	switch cfg.Output.Format {
	case "json":
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(buildDump(root))
	case "text", "":
		fmt.Fprintln(output, demangle.Render(root, demangleOpts...))
		dumpText(root, 0)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", cfg.Output.Format)
	}
}

func buildDump(n demangle.Node) *NodeDump {
	d := &NodeDump{
		Kind: n.Kind().String(),
		Text: demangle.Render(n, demangleOpts...),
	}
	for _, c := range demangle.Children(n) {
		d.Children = append(d.Children, buildDump(c))
	}
	return d
}

func dumpText(n demangle.Node, depth int) {
	fmt.Fprintf(output, "%s%s: %s\n", strings.Repeat("  ", depth), n.Kind(), demangle.Render(n, demangleOpts...))
	for _, c := range demangle.Children(n) {
		dumpText(c, depth+1)
	}
}
