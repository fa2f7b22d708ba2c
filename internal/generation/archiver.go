// internal/generation/archiver.go
package generation

import (
	"context"
	"path"

	"github.com/go-git/go-billy/v5"

	"starterforge/internal/common/logger"
	"starterforge/internal/engine"
)

// FilesystemArchiver materializes a generated tree under
// <root>/<projectName>/ on the output filesystem. The download service
// serves the archive from there.
type FilesystemArchiver struct {
	fs     billy.Filesystem
	root   string
	logger logger.Logger
}

func NewFilesystemArchiver(fs billy.Filesystem, root string, log logger.Logger) *FilesystemArchiver {
	return &FilesystemArchiver{fs: fs, root: root, logger: log}
}

func (a *FilesystemArchiver) Archive(ctx context.Context, projectName string, result *engine.Result) error {
	dest := path.Join(a.root, projectName)

	for _, rel := range result.Tree.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, _ := result.Tree.Get(rel)
		target := path.Join(dest, rel)

		if err := a.fs.MkdirAll(path.Dir(target), 0o755); err != nil {
			return err
		}
		f, err := a.fs.Create(target)
		if err != nil {
			return err
		}
		if _, err := f.Write(content); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	a.logger.Info("project archived", map[string]interface{}{
		"projectName": projectName,
		"fileCount":   result.Tree.Len(),
		"destination": dest,
	})
	return nil
}
