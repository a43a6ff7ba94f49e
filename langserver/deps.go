package langserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
)

// DependencyManager abstracts acquisition of the primary engine executable
// and its extension assets. A failure here keeps the workspace in
// NotStarted/Failed and notifies the editor; it is never fatal to the host
// process.
type DependencyManager interface {
	EnsureReady(ctx context.Context, progress func(string)) error
	IsComplete() bool
	ServerPath() string
	ExtensionPaths() []string
}

// dirDependencyManager serves the engine from a pre-populated local
// directory: <dir>/server/<binary> plus anything under <dir>/extensions.
type dirDependencyManager struct {
	dir string
}

func newDirDependencyManager(dir string) *dirDependencyManager {
	return &dirDependencyManager{dir: dir}
}

func (m *dirDependencyManager) ServerPath() string {
	name := "language-server"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(m.dir, "server", name)
}

func (m *dirDependencyManager) ExtensionPaths() []string {
	entries, err := os.ReadDir(filepath.Join(m.dir, "extensions"))
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(m.dir, "extensions", e.Name()))
	}
	sort.Strings(paths)
	return paths
}

func (m *dirDependencyManager) IsComplete() bool {
	info, err := os.Stat(m.ServerPath())
	return err == nil && !info.IsDir()
}

func (m *dirDependencyManager) EnsureReady(ctx context.Context, progress func(string)) error {
	if progress != nil {
		progress("checking language engine installation")
	}
	if !m.IsComplete() {
		return fmt.Errorf("language engine not installed at %s", m.ServerPath())
	}
	return nil
}
