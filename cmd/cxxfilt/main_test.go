package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// execute runs the root command with fresh flag state and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range []*cobra.Command{rootCmd, symbolsCmd, lookupCmd, dumpCmd} {
		reset(c.Flags())
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDemangleArgs(t *testing.T) {
	got, err := execute(t, "", "_Z3fooPKc", "main", "_ZN1A3getEv")
	if err != nil {
		t.Fatal(err)
	}
	want := "foo(char const*)\nmain\nA::get()\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDemangleFlags(t *testing.T) {
	got, err := execute(t, "", "-p", "-_", "__ZN1A3getEi")
	if err != nil {
		t.Fatal(err)
	}
	if got != "A::get\n" {
		t.Errorf("output = %q, want %q", got, "A::get\n")
	}
}

func TestFilterStdin(t *testing.T) {
	in := "call _ZN1A3getEv now\nplain line\n"
	got, err := execute(t, in)
	if err != nil {
		t.Fatal(err)
	}
	want := "call A::get() now\nplain line\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDemangleJSON(t *testing.T) {
	got, err := execute(t, "", "--format", "json", "_Z3fooi", "_Z3fo")
	if err != nil {
		t.Fatal(err)
	}
	var results []demangleResult
	if err := json.Unmarshal([]byte(got), &results); err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Demangled != "foo(int)" || results[0].Error != "" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Error == "" || results[1].Offset == nil || *results[1].Offset != 3 {
		t.Errorf("results[1] = %+v, want error at offset 3", results[1])
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cxxfilt.toml")
	if err := os.WriteFile(path, []byte("[demangle]\nno-params = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := execute(t, "", "--config", path, "_Z3fooi")
	if err != nil {
		t.Fatal(err)
	}
	if got != "foo\n" {
		t.Errorf("output = %q, want %q", got, "foo\n")
	}

	if _, err := execute(t, "", "--config", path, "--max-depth", "-1", "_Z3fooi"); err == nil {
		t.Error("negative --max-depth accepted")
	}
}

func TestDump(t *testing.T) {
	got, err := execute(t, "", "dump", "--format", "json", "_Z3fooi")
	if err != nil {
		t.Fatal(err)
	}
	var root NodeDump
	if err := json.Unmarshal([]byte(got), &root); err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	if root.Kind != "function" || root.Text != "foo(int)" {
		t.Errorf("root = %s %q", root.Kind, root.Text)
	}
	if len(root.Children) == 0 || root.Children[0].Kind != "name" {
		t.Errorf("unexpected children: %+v", root.Children)
	}

	got, err = execute(t, "", "dump", "_Z3fooi")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "foo(int)\nfunction: foo(int)\n  name: foo\n") {
		t.Errorf("text dump = %q", got)
	}

	if _, err := execute(t, "", "dump", "_Z3fo"); err == nil {
		t.Error("dump of truncated symbol succeeded")
	}
}

func TestSymbolsSelf(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skipf("no ELF or Mach-O test binary on %s", runtime.GOOS)
	}
	got, err := execute(t, "", "symbols", "-n", "3", os.Args[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Total: 3 symbols") {
		t.Errorf("symbols output missing total:\n%s", got)
	}

	got, err = execute(t, "", "lookup", os.Args[0], "TestSymbolsSelf")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "TestSymbolsSelf") {
		t.Errorf("lookup output:\n%s", got)
	}
}
