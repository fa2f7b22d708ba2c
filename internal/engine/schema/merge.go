// internal/engine/schema/merge.go

// Package schema merges the base schema document with per-feature
// schema fragments.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"starterforge/internal/common/errors"
)

// Fragment is one feature's schema contribution, with its owning feature
// named for error reporting.
type Fragment struct {
	Feature string
	Model   string
	Text    string
}

// Top-level Prisma-style block headers: model, enum and composite type
// declarations.
var blockHeaderRe = regexp.MustCompile(`(?m)^\s*(model|enum|type)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\{`)

// MergeSchemas concatenates the base schema and all fragments in
// feature-resolution order. Two declarations of the same model or enum
// name are a hard error: a silent overwrite would corrupt the generated
// data model, unlike file merging where last-writer-wins is intended.
func MergeSchemas(base string, fragments []Fragment) (string, error) {
	declaredBy := make(map[string]string)

	for _, name := range scanBlockNames(base) {
		// Duplicates inside the base document are the base author's
		// problem; the first declaration wins the index slot.
		if _, ok := declaredBy[name]; !ok {
			declaredBy[name] = "base schema"
		}
	}

	var out strings.Builder
	out.WriteString(strings.TrimRight(base, "\n"))

	for _, frag := range fragments {
		source := fmt.Sprintf("feature %q", frag.Feature)

		names := scanBlockNames(frag.Text)
		if frag.Model != "" && !contains(names, frag.Model) {
			names = append(names, frag.Model)
		}

		for _, name := range names {
			if first, dup := declaredBy[name]; dup {
				return "", &errors.DuplicateModelError{
					Model:        name,
					FirstSource:  first,
					SecondSource: source,
				}
			}
			declaredBy[name] = source
		}

		out.WriteString("\n\n")
		out.WriteString(strings.TrimSpace(frag.Text))
	}

	out.WriteString("\n")
	return out.String(), nil
}

// scanBlockNames extracts top-level block names in declaration order.
func scanBlockNames(text string) []string {
	matches := blockHeaderRe.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[2])
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
