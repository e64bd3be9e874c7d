package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Local stores attachment bytes under a root directory on the local
// filesystem. Storage paths are kept relative to the root so the same
// interpolated path works for writes, reads and deletes.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Abs resolves a storage path to its location under the root.
func (l *Local) Abs(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}

func (l *Local) Remove(_ context.Context, paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}

		err := os.Remove(l.Abs(p))
		if err != nil && !os.IsNotExist(err) {
			zap.L().Warn("Failed to remove stored file", zap.String("path", p), zap.Error(err))
		}
	}
}

func (l *Local) Move(_ context.Context, source, target string, vis Visibility) error {
	dst := l.Abs(target)

	// Opening the target with O_TRUNC would zero the source when both
	// resolve to the same file.
	if si, err := os.Stat(source); err == nil {
		if di, err := os.Stat(dst); err == nil && os.SameFile(si, di) {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create %q, %v", ErrStorage, filepath.Dir(dst), err)
	}

	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("%w: failed to open source %q, %v", ErrStorage, source, err)
	}
	defer src.Close()

	perm := os.FileMode(0o644)
	if vis == Private {
		perm = 0o600
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("%w: failed to create target %q, %v", ErrStorage, dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("%w: failed to write %q, %v", ErrStorage, dst, err)
	}

	return nil
}
