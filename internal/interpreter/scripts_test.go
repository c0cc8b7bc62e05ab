package interpreter_test

import (
	"bufio"
	"bytes"
	"embed"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/maps"

	"github.com/wisplang/wisp/internal/interpreter"
	"github.com/wisplang/wisp/internal/parser"
	"github.com/wisplang/wisp/internal/scanner"
)

//go:embed testdata/*.wisp
var scriptFixtures embed.FS

// expectedOutput extracts the lines a fixture's trailing "// expect:
// ..." comments promise, in source order, mirroring the convention
// the interpreter's original test corpus used for golden scripts.
func expectedOutput(source string) []string {
	var want []string
	scanner := bufio.NewScanner(strings.NewReader(source))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "// expect:"); ok {
			want = append(want, strings.TrimSpace(rest))
		}
	}
	return want
}

func TestGoldenScripts(t *testing.T) {
	entries, err := scriptFixtures.ReadDir("testdata")
	require.NoError(t, err)

	byName := make(map[string][]byte, len(entries))
	for _, e := range entries {
		content, err := scriptFixtures.ReadFile("testdata/" + e.Name())
		require.NoError(t, err)
		byName[e.Name()] = content
	}

	// map iteration order is unspecified; sort the fixture names so
	// subtests run in a deterministic, reproducible order.
	names := maps.Keys(byName)
	sort.Strings(names)

	for _, name := range names {
		name := name
		t.Run(name, func(t *testing.T) {
			source := string(byName[name])
			want := expectedOutput(source)

			var out bytes.Buffer
			var errs []error
			report := func(err error) { errs = append(errs, err) }

			tokens := scanner.New(source, report).ScanTokens()
			require.Empty(t, errs, "scan errors in %s: %v", name, errs)

			stmts := parser.New(tokens, report).Parse()
			require.Empty(t, errs, "parse errors in %s: %v", name, errs)

			in := interpreter.New(interpreter.WithStdout(&out))
			interpreter.NewResolver(in, report).Resolve(stmts)
			require.Empty(t, errs, "resolve errors in %s: %v", name, errs)

			err := in.Interpret(stmts)
			require.NoError(t, err, "runtime error in %s", name)

			gotLines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
			require.Equal(t, want, gotLines, "output mismatch in %s", name)
		})
	}
}
