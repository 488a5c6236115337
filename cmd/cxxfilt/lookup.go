package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/cxxdemangle/internal/symtab"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <binary> <query>",
	Short: "Look up symbols by raw or demangled name",
	Long: `Look up symbols in an ELF or Mach-O binary.

An exact match on the raw symbol name wins. Otherwise every symbol whose
raw or demangled name contains the query is shown:
  - lookup a.out _ZN3foo3barEv
  - lookup a.out foo::bar`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	tab, err := symtab.Open(args[0], demangleOpts...)
	if err != nil {
		return fmt.Errorf("failed to read symbols: %w", err)
	}

	query := args[1]
	found := tab.Lookup(query)
	for _, sym := range found {
		printSymbolDetail(sym)
	}

	if len(found) == 0 {
		fmt.Fprintf(output, "No symbols found matching '%s'\n", query)
	} else {
		fmt.Fprintf(output, "Found %d symbol(s)\n", len(found))
	}
	return nil
}

func printSymbolDetail(sym *symtab.Symbol) {
	fmt.Fprintf(output, "Symbol:\n")
	fmt.Fprintf(output, "  Name: %s\n", sym.Name())
	fmt.Fprintf(output, "  Demangled: %s\n", sym.DemangledName())
	fmt.Fprintf(output, "  Mangled: %v\n", sym.IsMangled())
	fmt.Fprintf(output, "  Address: 0x%016X\n", sym.Address())
	fmt.Fprintln(output)
}
