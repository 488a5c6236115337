package demangle

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDemangle(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_Z3fooi", "foo(int)"},
		{"_Z3foov", "foo()"},
		{"_ZN3std3fooEv", "std::foo()"},
		{
			"_ZStlsISt11char_traitsIcEERSt13basic_ostreamIcT_ES5_PKc",
			"std::basic_ostream<char, std::char_traits<char> >& std::operator<<<std::char_traits<char> >(std::basic_ostream<char, std::char_traits<char> >&, char const*)",
		},
		{"_Z1fPKc", "f(char const*)"},
		{"_Z1fRi", "f(int&)"},
		{"_Z1fOi", "f(int&&)"},
		{"_Z1fPFivE", "f(int (*)())"},
		{"_Z1fA10_i", "f(int [10])"},
		{"_Z1fM1AFvvE", "f(void (A::*)())"},
		{"_Z1fM1Ai", "f(int A::*)"},
		{"_Z1fSs", "f(std::string)"},
		{"_Z1fDn", "f(decltype(nullptr))"},
		{"_Z1fiz", "f(int, ...)"},
		{"_ZN1AC2Ev", "A::A()"},
		{"_ZN1AD1Ev", "A::~A()"},
		{"_ZNK1A3getEv", "A::get() const"},
		{"_ZN1AcviEv", "A::operator int()"},
		{"_ZN1AplERKS_", "A::operator+(A const&)"},
		{"_ZN12_GLOBAL__N_13fooEv", "(anonymous namespace)::foo()"},
		{"_ZZ4mainE1x", "main::x"},
		{"_ZZ4mainENKUlvE_clEv", "main::{lambda()#1}::operator()() const"},
		{"_Z3fooB5cxx11v", "foo[abi:cxx11]()"},
		{"_Z1fv.cold", "f().cold"},
	}

	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			if err != nil {
				t.Fatalf("Demangle(%q) failed: %v", tt.mangled, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Demangle(%q) mismatch (-want +got):\n%s", tt.mangled, diff)
			}
		})
	}
}

func TestDemangleTemplates(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_Z1fIiEvT_", "void f<int>(int)"},
		{"_Z1fIiEvv", "void f<int>()"},
		{"_ZSt4swapIiEvRT_S1_", "void std::swap<int>(int&, int&)"},
		{"_ZNSt6vectorIiSaIiEE9push_backERKi", "std::vector<int, std::allocator<int> >::push_back(int const&)"},
		{"_ZNKSt6vectorIiSaIiEE4sizeEv", "std::vector<int, std::allocator<int> >::size() const"},
		{"_Z1fILi3EEvv", "void f<3>()"},
		{"_Z1fILb1EEvv", "void f<true>()"},
		{"_Z1fIJidEEvDpT_", "void f<int, double>(int, double)"},
		{"_Z1fIJEEvDpT_", "void f<>()"},
	}

	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			if err != nil {
				t.Fatalf("Demangle(%q) failed: %v", tt.mangled, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Demangle(%q) mismatch (-want +got):\n%s", tt.mangled, diff)
			}
		})
	}
}

func TestDemangleSpecialNames(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_ZTV1A", "vtable for A"},
		{"_ZTT1A", "VTT for A"},
		{"_ZTI1A", "typeinfo for A"},
		{"_ZTS1A", "typeinfo name for A"},
		{"_ZThn8_N1B1fEv", "non-virtual thunk to B::f()"},
		{"_ZTv0_n24_N1B1fEv", "virtual thunk to B::f()"},
		{"_ZTC1D0_1B", "construction vtable for B-in-D"},
		{"_ZGVZ1fvE1x", "guard variable for f()::x"},
		{"_ZTH1x", "TLS init function for x"},
		{"_ZTW1x", "TLS wrapper function for x"},
		{"_ZGR1x_", "reference temporary #0 for x"},
		{"_GLOBAL__I_foo", "global constructors keyed to foo"},
		{"_GLOBAL__D__Z3barv", "global destructors keyed to bar()"},
	}

	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			if err != nil {
				t.Fatalf("Demangle(%q) failed: %v", tt.mangled, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Demangle(%q) mismatch (-want +got):\n%s", tt.mangled, diff)
			}
		})
	}
}

func TestDemangleStdAbbreviations(t *testing.T) {
	tests := []struct {
		mangled string
		want    string
	}{
		{"_Z1fSa", "f(std::allocator)"},
		{"_Z1fSb", "f(std::basic_string)"},
		{"_Z1fSi", "f(std::istream)"},
		{"_Z1fSo", "f(std::ostream)"},
		{"_Z1fSd", "f(std::iostream)"},
		{"_ZNSsC1Ev", "std::basic_string<char, std::char_traits<char>, std::allocator<char> >::basic_string()"},
		{"_ZNSoD0Ev", "std::basic_ostream<char, std::char_traits<char> >::~basic_ostream()"},
	}

	for _, tt := range tests {
		got, err := Demangle(tt.mangled)
		if err != nil {
			t.Fatalf("Demangle(%q) failed: %v", tt.mangled, err)
		}
		if got != tt.want {
			t.Errorf("Demangle(%q) = %q, want %q", tt.mangled, got, tt.want)
		}
	}
}

func TestDemangleNotMangled(t *testing.T) {
	for _, name := range []string{"main", "", "printf", "_start", "_GLOBAL_OFFSET_TABLE_"} {
		got, err := Demangle(name)
		if !errors.Is(err, ErrNotMangled) {
			t.Fatalf("Demangle(%q) error = %v, want ErrNotMangled", name, err)
		}
		if got != name {
			t.Errorf("Demangle(%q) = %q, want input unchanged", name, got)
		}
	}
}

func TestDemangleErrors(t *testing.T) {
	tests := []struct {
		mangled string
		want    error
		offset  int
	}{
		{"_Z3fo", ErrUnexpectedEnd, 3},
		{"_Z", ErrUnexpectedEnd, 2},
		{"_Z1fS9999999_", ErrInvalidBackref, 4},
		{"_Z1fS_", ErrInvalidBackref, 4},
		{"_ZNE", ErrMalformed, 3},
		{"_Z1fIEvv", ErrMalformed, 6},
		{"_Z0fv", ErrMalformed, 3},
		{"_Z1fT_", ErrMalformed, 6},
	}

	for _, tt := range tests {
		t.Run(tt.mangled, func(t *testing.T) {
			got, err := Demangle(tt.mangled)
			if err == nil {
				t.Fatalf("Demangle(%q) = %q, want error", tt.mangled, got)
			}
			if got != "" {
				t.Errorf("Demangle(%q) returned partial output %q", tt.mangled, got)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Demangle(%q) error = %v, want %v", tt.mangled, err, tt.want)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Demangle(%q) error = %v, want it to match ErrMalformed", tt.mangled, err)
			}
			var de *Error
			if !errors.As(err, &de) {
				t.Fatalf("Demangle(%q) error %T is not *Error", tt.mangled, err)
			}
			if de.Offset != tt.offset {
				t.Errorf("Demangle(%q) offset = %d, want %d", tt.mangled, de.Offset, tt.offset)
			}
		})
	}
}

func TestDemangleResourceLimits(t *testing.T) {
	deep := "_Z1f" + strings.Repeat("P", 1000) + "i"
	if _, err := Demangle(deep); !errors.Is(err, ErrResourceLimit) {
		t.Errorf("deep pointer chain: error = %v, want ErrResourceLimit", err)
	}

	nested := "_Z1f" + strings.Repeat("1aI", 40) + "i" + strings.Repeat("E", 40)
	if _, err := Demangle(nested); err != nil {
		t.Errorf("nested templates with default limits: %v", err)
	}
	if _, err := Demangle(nested, WithMaxDepth(16)); !errors.Is(err, ErrResourceLimit) {
		t.Errorf("nested templates with depth 16: error = %v, want ErrResourceLimit", err)
	}

	if _, err := Demangle("_Z1fiii", WithMaxArgs(2)); !errors.Is(err, ErrResourceLimit) {
		t.Errorf("three params with max 2: error = %v, want ErrResourceLimit", err)
	}
	if _, err := Demangle("_Z1fiii", WithMaxArgs(3)); err != nil {
		t.Errorf("three params with max 3: %v", err)
	}

	example := "_ZStlsISt11char_traitsIcEERSt13basic_ostreamIcT_ES5_PKc"
	if _, err := Demangle(example, WithMaxNodes(8)); !errors.Is(err, ErrResourceLimit) {
		t.Errorf("node limit 8: error = %v, want ErrResourceLimit", err)
	}
}

func nestedLiterals(levels int) string {
	return "_Z" + strings.Repeat("1fIL_Z", levels) + "1gIiEvv" + strings.Repeat("EEvv", levels)
}

func TestDemangleNestedLiterals(t *testing.T) {
	got, err := Demangle(nestedLiterals(1))
	if err != nil {
		t.Fatal(err)
	}
	if want := "void f<void g<int>()>()"; got != want {
		t.Errorf("one level = %q, want %q", got, want)
	}

	start := time.Now()
	if _, err := Demangle(nestedLiterals(30)); err != nil {
		t.Errorf("30 levels: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("30 levels took %v", elapsed)
	}

	if _, err := Demangle(nestedLiterals(30), WithMaxNodes(64)); !errors.Is(err, ErrResourceLimit) {
		t.Errorf("30 levels with 64 nodes: error = %v, want ErrResourceLimit", err)
	}
	if _, err := Demangle(nestedLiterals(100)); !errors.Is(err, ErrResourceLimit) {
		t.Errorf("100 levels: error = %v, want ErrResourceLimit", err)
	}
}

// TestDemangleCorpus checks testdata/corpus.txt, tab separated pairs of
// mangled names and the c++filt rendering.
func TestDemangleCorpus(t *testing.T) {
	data, err := os.ReadFile("testdata/corpus.txt")
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mangled, want, ok := strings.Cut(line, "\t")
		if !ok {
			t.Fatalf("corpus.txt:%d: missing tab", i+1)
		}
		count++
		got, err := Demangle(mangled)
		if err != nil {
			t.Errorf("corpus.txt:%d: Demangle(%q) failed: %v", i+1, mangled, err)
			continue
		}
		if got != want {
			t.Errorf("corpus.txt:%d: Demangle(%q)\n got: %s\nwant: %s", i+1, mangled, got, want)
		}
	}
	if count < 300 {
		t.Errorf("corpus has %d entries, expected at least 300", count)
	}
}

func TestDemangleDeterministic(t *testing.T) {
	inputs := []string{
		"_ZStlsISt11char_traitsIcEERSt13basic_ostreamIcT_ES5_PKc",
		"_ZNSt6vectorIiSaIiEE9push_backERKi",
		"_Z1fIJidEEvDpT_",
	}
	for _, in := range inputs {
		first, err := Demangle(in)
		if err != nil {
			t.Fatalf("Demangle(%q) failed: %v", in, err)
		}
		for i := 0; i < 3; i++ {
			again, _ := Demangle(in)
			if again != first {
				t.Fatalf("Demangle(%q) not stable: %q then %q", in, first, again)
			}
		}

		node, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", in, err)
		}
		if a, b := Render(node), Render(node); a != b || a != first {
			t.Errorf("Render(%q) = %q, %q; want %q", in, a, b, first)
		}
	}
}

func TestParseTree(t *testing.T) {
	node, err := Parse("_Z3fooPKc")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := &Function{
		Name: &Name{Name: "foo"},
		Sig: &FunctionType{
			Params: []Node{
				&PointerType{
					Pointee: &QualifiedType{
						Type:  &BuiltinType{Name: "char"},
						Quals: Qualifiers{IsConst: true},
					},
					Affinity: AffinityPointer,
				},
			},
		},
	}
	if diff := cmp.Diff(Node(want), node); diff != "" {
		t.Errorf("Parse tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSubstitutionsAreCopies(t *testing.T) {
	node, err := Parse("_Z1fPiS_")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	fn := node.(*Function)
	if len(fn.Sig.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fn.Sig.Params))
	}
	if fn.Sig.Params[0] == fn.Sig.Params[1] {
		t.Error("back-reference shares structure with its source")
	}
	if diff := cmp.Diff(fn.Sig.Params[0], fn.Sig.Params[1]); diff != "" {
		t.Errorf("back-reference differs from source (-first +second):\n%s", diff)
	}
}

func TestDemangleOptions(t *testing.T) {
	got, err := Demangle("_ZNK1A3getEi", WithNoParams())
	if err != nil {
		t.Fatal(err)
	}
	if got != "A::get" {
		t.Errorf("WithNoParams = %q, want %q", got, "A::get")
	}

	if _, err := Demangle("__Z3fooi"); !errors.Is(err, ErrNotMangled) {
		t.Errorf("__Z without stripping: error = %v, want ErrNotMangled", err)
	}
	got, err = Demangle("__Z3fooi", WithStripUnderscore())
	if err != nil {
		t.Fatal(err)
	}
	if got != "foo(int)" {
		t.Errorf("WithStripUnderscore = %q, want %q", got, "foo(int)")
	}
}

func TestDemangleSimple(t *testing.T) {
	if got := DemangleSimple("_Z3fooi"); got != "foo(int)" {
		t.Errorf("DemangleSimple = %q", got)
	}
	if got := DemangleSimple("_Z3fo"); got != "_Z3fo" {
		t.Errorf("DemangleSimple on bad input = %q, want input", got)
	}
}

func TestIsMangled(t *testing.T) {
	tests := map[string]bool{
		"_Z3fooi":               true,
		"_GLOBAL__I_foo":        true,
		"_GLOBAL__D__Z3foov":    true,
		"_GLOBAL_OFFSET_TABLE_": false,
		"main":                  false,
		"?foo@@YAXXZ":           false,
	}
	for name, want := range tests {
		if got := IsMangled(name); got != want {
			t.Errorf("IsMangled(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"at _Z3fooi+0x10 in main", "at foo(int)+0x10 in main"},
		{"#1 _ZN1AD1Ev () from libx.so", "#1 A::~A() () from libx.so"},
		{"broken _Z3fo stays", "broken _Z3fo stays"},
		{"call _Z1fv.cold", "call f().cold"},
		{"plain text only", "plain text only"},
	}
	for _, tt := range tests {
		if got := Filter(tt.in); got != tt.want {
			t.Errorf("Filter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := Filter("bl __Z3fooi", WithStripUnderscore()); got != "bl foo(int)" {
		t.Errorf("Filter with underscore stripping = %q", got)
	}
}

func TestNodeKindString(t *testing.T) {
	node, err := Parse("_ZTV1A")
	if err != nil {
		t.Fatal(err)
	}
	if got := node.Kind().String(); got != "special" {
		t.Errorf("Kind() = %q, want special", got)
	}
	if got := node.String(); got != "vtable for A" {
		t.Errorf("String() = %q", got)
	}
}
