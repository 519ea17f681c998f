package probe

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// featureDictionaries lists the candidate identifiers probed for each
// has_* query family, in the fixed order their answers are read back.
// This is a representative subset of clang/gcc's real dictionaries,
// covering the identifiers most commonly consulted by build systems.
var (
	featureIDs           = []string{"cxx_exceptions", "cxx_rtti", "modules", "address_sanitizer", "thread_sanitizer"}
	extensionIDs         = []string{"c_static_assert", "cxx_static_assert", "attribute_deprecated_with_message"}
	attributeIDs         = []string{"always_inline", "noreturn", "unused", "deprecated", "visibility"}
	cppAttributeIDs      = []string{"maybe_unused", "nodiscard", "fallthrough", "deprecated"}
	declspecAttributeIDs = []string{"dllimport", "dllexport", "noreturn"}
	builtinIDs           = []string{"__builtin_expect", "__builtin_trap", "__builtin_unreachable", "__builtin_popcount"}
)

type featureQuery struct {
	ids      []string
	isCxxOnly bool
	render   func(id string) string
}

func buildFeatureQueries() []featureQuery {
	return []featureQuery{
		{ids: featureIDs, render: func(id string) string { return fmt.Sprintf("__has_feature(%s)", id) }},
		{ids: extensionIDs, render: func(id string) string { return fmt.Sprintf("__has_extension(%s)", id) }},
		{ids: attributeIDs, render: func(id string) string { return fmt.Sprintf("__has_attribute(%s)", id) }},
		{ids: cppAttributeIDs, isCxxOnly: true, render: func(id string) string { return fmt.Sprintf("__has_cpp_attribute(%s)", id) }},
		{ids: declspecAttributeIDs, render: func(id string) string { return fmt.Sprintf("__has_declspec_attribute(%s)", id) }},
		{ids: builtinIDs, render: func(id string) string { return fmt.Sprintf("__has_builtin(%s)", id) }},
	}
}

// resolveFeatureQueries writes a synthetic translation unit querying
// every candidate identifier on a predictable line, compiles it with
// -E, and maps each output line back to its identifier in dictionary
// order.
func resolveFeatureQueries(ctx context.Context, ci *CompilerInfo, localPath string, infoFlags []string, env []string, cwd string) error {
	queries := buildFeatureQueries()
	isCxx := true // always query in C++ mode (.cc temp file), so C++-only queries are never replaced by 0 here.

	src, totalLines := renderFeatureSource(queries, isCxx)

	tmp, err := os.CreateTemp("", "gomacc-feature-*.cc")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(src); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	args := append(append([]string{}, infoFlags...), "-E", tmp.Name())
	out, err := runCapture(ctx, localPath, args, env, cwd)
	if err != nil {
		return err
	}

	values, err := parseFeatureOutput(out, totalLines)
	if err != nil {
		return err
	}

	applyFeatureResults(ci, queries, values)
	return nil
}

// renderFeatureSource emits, per identifier, one line holding either
// the query expression, which -E reduces to its numeric result, or a
// literal 0 for a C++-only query when isCxx is false.
func renderFeatureSource(queries []featureQuery, isCxx bool) (string, int) {
	var b strings.Builder
	count := 0
	for _, q := range queries {
		for _, id := range q.ids {
			if q.isCxxOnly && !isCxx {
				b.WriteString("0\n")
			} else {
				b.WriteString(q.render(id))
				b.WriteString("\n")
			}
			count++
		}
	}
	return b.String(), count
}

// parseFeatureOutput strips preprocessor directive lines (starting
// with '#') and blank lines, then expects exactly wantLines remaining
// non-empty lines.
func parseFeatureOutput(out string, wantLines int) ([]int, error) {
	var values []int
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			values = append(values, n)
		} else {
			values = append(values, 0)
		}
	}
	if len(values) != wantLines {
		return nil, fmt.Errorf("feature probe: expected %d lines, got %d", wantLines, len(values))
	}
	return values, nil
}

func applyFeatureResults(ci *CompilerInfo, queries []featureQuery, values []int) {
	idx := 0
	assign := func(m map[string]int, id string) {
		if v := values[idx]; v != 0 {
			m[id] = v
		}
		idx++
	}
	for qi, q := range queries {
		var target map[string]int
		switch qi {
		case 0:
			target = ci.HasFeature
		case 1:
			target = ci.HasExtension
		case 2:
			target = ci.HasAttribute
		case 3:
			target = ci.HasCppAttribute
		case 4:
			target = ci.HasDeclspecAttribute
		case 5:
			target = ci.HasBuiltin
		}
		for _, id := range q.ids {
			assign(target, id)
		}
	}
}
