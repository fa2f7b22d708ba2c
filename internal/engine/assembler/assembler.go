// internal/engine/assembler/assembler.go

// Package assembler merges the base project tree with per-feature file
// overlays into one deterministic virtual file tree.
package assembler

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"starterforge/internal/common/errors"
	"starterforge/internal/common/logger"
	"starterforge/internal/models"
)

type Assembler struct {
	fs     billy.Filesystem
	logger logger.Logger
}

// New creates an Assembler reading from the given filesystem. Production
// wiring passes an osfs root; tests pass a memfs.
func New(fs billy.Filesystem, log logger.Logger) *Assembler {
	return &Assembler{
		fs:     fs,
		logger: log.WithFields(map[string]interface{}{"component": "assembler"}),
	}
}

// Assemble builds the virtual file tree: the filtered base tree first,
// then each feature's file mappings in resolver output order. A later
// feature's file at an identical destination overwrites an earlier one —
// selected features override generic defaults. Conflicts are logged at
// debug, never escalated.
func (a *Assembler) Assemble(baseRoot string, orderedFeatures []models.FeatureSpec) (*VirtualFileTree, error) {
	tree := NewVirtualFileTree()

	if err := a.copySubtree(tree, baseRoot, "", ""); err != nil {
		return nil, err
	}

	for _, feature := range orderedFeatures {
		for _, mapping := range feature.FileMappings {
			if err := a.copyMapping(tree, feature.Slug, mapping); err != nil {
				return nil, err
			}
		}
	}

	return tree, nil
}

func (a *Assembler) copyMapping(tree *VirtualFileTree, slug string, mapping models.FileMapping) error {
	info, err := a.fs.Stat(mapping.Source)
	if err != nil {
		return &errors.TreeWalkError{Path: mapping.Source, Err: err}
	}

	if !info.IsDir() {
		if !ShouldIncludeFile(mapping.Destination) {
			return nil
		}
		content, err := a.readFile(mapping.Source)
		if err != nil {
			return err
		}
		a.put(tree, slug, normalize(mapping.Destination), content)
		return nil
	}

	return a.copySubtree(tree, mapping.Source, mapping.Destination, slug)
}

// copySubtree walks srcRoot and copies every included file under
// destRoot. Walk errors abort the assembly; a partial tree would produce
// a broken project.
func (a *Assembler) copySubtree(tree *VirtualFileTree, srcRoot, destRoot, slug string) error {
	walkErr := util.Walk(a.fs, srcRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return &errors.TreeWalkError{Path: p, Err: err}
		}

		rel, relErr := filepath.Rel(srcRoot, p)
		if relErr != nil {
			return &errors.TreeWalkError{Path: p, Err: relErr}
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if !ShouldIncludeFile(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		content, readErr := a.readFile(p)
		if readErr != nil {
			return readErr
		}

		a.put(tree, slug, normalize(path.Join(destRoot, rel)), content)
		return nil
	})

	if walkErr != nil {
		if _, ok := walkErr.(*errors.TreeWalkError); ok {
			return walkErr
		}
		return &errors.TreeWalkError{Path: srcRoot, Err: walkErr}
	}
	return nil
}

func (a *Assembler) put(tree *VirtualFileTree, slug, dest string, content []byte) {
	if overwritten := tree.Put(dest, content); overwritten && slug != "" {
		a.logger.Debug("feature file overrides earlier entry", map[string]interface{}{
			"feature": slug,
			"path":    dest,
		})
	}
}

func (a *Assembler) readFile(p string) ([]byte, error) {
	f, err := a.fs.Open(p)
	if err != nil {
		return nil, &errors.TreeWalkError{Path: p, Err: err}
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, &errors.TreeWalkError{Path: p, Err: err}
	}
	return content, nil
}

func normalize(p string) string {
	return strings.Trim(path.Clean(filepath.ToSlash(p)), "/")
}
