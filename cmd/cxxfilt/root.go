package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/skdltmxn/cxxdemangle/demangle"
	"github.com/skdltmxn/cxxdemangle/internal/config"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("cxxfilt")

var (
	outputFile string
	output     io.Writer

	configFile      string
	verbosity       int
	noParams        bool
	stripUnderscore bool
	maxDepth        int
	maxNodes        int
	maxArgs         int
	outputFormat    string

	cfg          *config.Config
	demangleOpts []demangle.Option
)

var rootCmd = &cobra.Command{
	Use:   "cxxfilt [symbol...]",
	Short: "Itanium C++ symbol demangler",
	Long: `cxxfilt decodes Itanium C++ ABI mangled symbol names into
human-readable C++ declarations.

Symbols given as arguments are demangled one per line. With no
arguments, standard input is copied to the output with every
mangled token replaced by its demangled form.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
	RunE: runDemangle,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	pf.StringVar(&configFile, "config", "", "configuration file (default: ./cxxfilt.toml or user config dir)")
	pf.CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	pf.BoolVarP(&noParams, "no-params", "p", false, "omit function parameters and return types")
	pf.BoolVarP(&stripUnderscore, "strip-underscore", "_", false, "accept symbols with an extra leading underscore")
	pf.IntVar(&maxDepth, "max-depth", demangle.DefaultMaxDepth, "maximum grammar nesting depth")
	pf.IntVar(&maxNodes, "max-nodes", demangle.DefaultMaxNodes, "maximum nodes built per symbol")
	pf.IntVar(&maxArgs, "max-args", demangle.DefaultMaxArgs, "maximum template or parameter list length")
	pf.StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(dumpCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	commonlog.Configure(verbosity, nil)

	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Path != "" {
		log.Infof("using config %s", cfg.Path)
	}

	// Flags given on the command line override the file.
	flags := cmd.Flags()
	if flags.Changed("no-params") {
		cfg.Demangle.NoParams = noParams
	}
	if flags.Changed("strip-underscore") {
		cfg.Output.StripUnderscore = stripUnderscore
	}
	if flags.Changed("max-depth") {
		cfg.Demangle.MaxDepth = maxDepth
	}
	if flags.Changed("max-nodes") {
		cfg.Demangle.MaxNodes = maxNodes
	}
	if flags.Changed("max-args") {
		cfg.Demangle.MaxArgs = maxArgs
	}
	if flags.Changed("format") {
		cfg.Output.Format = outputFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	demangleOpts = cfg.Options()

	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
	} else {
		output = cmd.OutOrStdout()
	}
	return nil
}

// demangleResult is one entry of the JSON output.
type demangleResult struct {
	Mangled   string `json:"mangled"`
	Demangled string `json:"demangled,omitempty"`
	Error     string `json:"error,omitempty"`
	Offset    *int   `json:"offset,omitempty"`
}

func runDemangle(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return filterStream(cmd.InOrStdin())
	}

	if cfg.Output.Format == "json" {
		results := make([]demangleResult, 0, len(args))
		for _, sym := range args {
			results = append(results, demangleOne(sym))
		}
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	for _, sym := range args {
		out, err := demangle.Demangle(sym, demangleOpts...)
		if err != nil {
			if !errors.Is(err, demangle.ErrNotMangled) {
				log.Warningf("%s: %v", sym, err)
			}
			out = sym
		}
		fmt.Fprintln(output, out)
	}
	return nil
}

func demangleOne(sym string) demangleResult {
	res := demangleResult{Mangled: sym}
	out, err := demangle.Demangle(sym, demangleOpts...)
	if err != nil {
		res.Error = err.Error()
		var derr *demangle.Error
		if errors.As(err, &derr) {
			offset := derr.Offset
			res.Offset = &offset
		}
		return res
	}
	res.Demangled = out
	return res
}

func filterStream(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(output, demangle.Filter(scanner.Text(), demangleOpts...))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
