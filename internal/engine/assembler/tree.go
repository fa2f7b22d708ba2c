// internal/engine/assembler/tree.go
package assembler

import "sort"

// VirtualFileTree maps output-relative paths to file contents. It is
// built fresh per generation run and handed to the packaging layer;
// entries are only ever added or overwritten, never removed.
type VirtualFileTree struct {
	files map[string][]byte
}

func NewVirtualFileTree() *VirtualFileTree {
	return &VirtualFileTree{files: make(map[string][]byte)}
}

// Put stores content at a path, overwriting any earlier entry.
// Returns true when an existing entry was overwritten.
func (t *VirtualFileTree) Put(path string, content []byte) bool {
	_, existed := t.files[path]
	t.files[path] = content
	return existed
}

// Get returns the content stored at a path.
func (t *VirtualFileTree) Get(path string) ([]byte, bool) {
	content, ok := t.files[path]
	return content, ok
}

// Has reports whether a path exists in the tree.
func (t *VirtualFileTree) Has(path string) bool {
	_, ok := t.files[path]
	return ok
}

// Paths returns every path in the tree, sorted for deterministic output.
func (t *VirtualFileTree) Paths() []string {
	paths := make([]string, 0, len(t.files))
	for p := range t.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of files in the tree.
func (t *VirtualFileTree) Len() int {
	return len(t.files)
}
