package container

import (
	"os"
	"path/filepath"
)

// Workspace is the scratch area of one recovery run:
//
//	<root>/Extracted  the unpacked input package
//	<root>/Template   the copied template package
//	<root>/output     the package being assembled
type Workspace struct {
	Root      string
	Extracted string
	Template  string
	Output    string
}

// NewWorkspace creates a fresh temporary workspace below parent, or below
// the system temp directory when parent is empty. The caller must Close it.
func NewWorkspace(parent string) (*Workspace, error) {
	root, err := os.MkdirTemp(parent, "xlrecover-")
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		Root:      root,
		Extracted: filepath.Join(root, "Extracted"),
		Template:  filepath.Join(root, "Template"),
		Output:    filepath.Join(root, "output"),
	}
	for _, dir := range []string{ws.Extracted, ws.Template, ws.Output} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			os.RemoveAll(root)
			return nil, err
		}
	}
	return ws, nil
}

// Close removes the workspace and everything in it.
func (ws *Workspace) Close() error {
	return os.RemoveAll(ws.Root)
}
