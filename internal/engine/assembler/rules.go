// internal/engine/assembler/rules.go
package assembler

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Directories that must never ship in a downloaded project: build and
// VCS artifacts, dependency caches, coverage output, and the internal
// preview tree used only by the live configurator.
var excludedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".turbo":       true,
	"coverage":     true,
	".nyc_output":  true,
	"preview":      true,
}

// Preview-only source files used by the configurator's live preview.
var excludedFiles = map[string]bool{
	".DS_Store":          true,
	"Thumbs.db":          true,
	"PreviewBanner.tsx":  true,
	"PreviewWrapper.tsx": true,
	"PreviewContext.tsx": true,
}

var excludedFileGlobs = []string{
	"*.log",
}

// ShouldIncludeFile reports whether a path belongs in the generated
// project. Exclusion is evaluated per path component: a path is excluded
// if any ancestor segment matches an excluded-directory rule or its own
// basename matches an excluded-file rule. Real .env variants are
// excluded; .env.example is explicitly kept.
func ShouldIncludeFile(relativePath string) bool {
	clean := strings.Trim(path.Clean(strings.ReplaceAll(relativePath, "\\", "/")), "/")
	if clean == "" || clean == "." {
		return true
	}

	segments := strings.Split(clean, "/")
	for _, segment := range segments {
		if excludedDirs[segment] {
			return false
		}
	}

	base := segments[len(segments)-1]
	if excludedFiles[base] {
		return false
	}

	if strings.HasPrefix(base, ".env") && base != ".env.example" {
		return false
	}

	for _, pattern := range excludedFileGlobs {
		if match, _ := doublestar.Match(pattern, base); match {
			return false
		}
	}

	return true
}
