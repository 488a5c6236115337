package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/cxxdemangle/internal/symtab"
)

var (
	symbolsLimit       int
	symbolsMangledOnly bool
	symbolsRaw         bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <binary>",
	Short: "List demangled symbols of an ELF or Mach-O binary",
	Long: `List the symbol table of an ELF or Mach-O binary with every
Itanium-mangled name decoded.

Mach-O symbols carry an extra leading underscore, which is stripped
automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().IntVarP(&symbolsLimit, "limit", "n", 0, "limit number of symbols shown (0 = unlimited)")
	symbolsCmd.Flags().BoolVarP(&symbolsMangledOnly, "mangled-only", "m", false, "only show C++ mangled symbols")
	symbolsCmd.Flags().BoolVarP(&symbolsRaw, "raw", "r", false, "show the raw name next to the demangled one")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	tab, err := symtab.Open(args[0], demangleOpts...)
	if err != nil {
		return fmt.Errorf("failed to read symbols: %w", err)
	}

	if symbolsRaw {
		fmt.Fprintf(output, "%-18s %-40s %s\n", "ADDRESS", "RAW", "NAME")
	} else {
		fmt.Fprintf(output, "%-18s %s\n", "ADDRESS", "NAME")
	}
	fmt.Fprintf(output, "%s\n", strings.Repeat("-", 90))

	count := 0
	for sym := range tab.Symbols() {
		if symbolsMangledOnly && !sym.IsMangled() {
			continue
		}
		if symbolsRaw {
			fmt.Fprintf(output, "0x%016X %-40s %s\n", sym.Address(), sym.Name(), sym.DemangledName())
		} else {
			fmt.Fprintf(output, "0x%016X %s\n", sym.Address(), sym.DemangledName())
		}
		count++
		if symbolsLimit > 0 && count >= symbolsLimit {
			break
		}
	}

	fmt.Fprintf(output, "\nTotal: %d symbols (%s)\n", count, tab.Format())
	return nil
}
