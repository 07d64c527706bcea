// Package registry resolves pretrained weight artifacts on disk, so model
// params can reference checkpoints by filename instead of absolute path.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mlipens/internal/common/fsutil"
)

// Artifact is one discoverable checkpoint file.
type Artifact struct {
	// ID is the filename, extension included.
	ID string `json:"id"`
	// Path is the absolute file path.
	Path string `json:"path"`
	// SizeBytes is the on-disk size, a rough proxy for load cost.
	SizeBytes int64 `json:"size_bytes"`
}

// weightExtensions are the checkpoint formats the ensembled runtimes ship.
var weightExtensions = map[string]bool{
	".pth":   true,
	".pt":    true,
	".ckpt":  true,
	".model": true,
}

// LoadDir scans a directory for weight artifacts and builds a registry
// from filenames. ID is the full filename; Path is absolute.
func LoadDir(dir string) ([]Artifact, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var artifacts []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !weightExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			ID:        name,
			Path:      filepath.Join(abs, name),
			SizeBytes: info.Size(),
		})
	}
	return artifacts, nil
}

// Resolve returns the absolute path of the artifact named id, or the id
// unchanged when it is already a usable path. Missing artifacts error so
// configuration problems surface before any model load.
func Resolve(artifacts []Artifact, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty artifact reference")
	}
	if filepath.IsAbs(id) || fsutil.PathExists(id) {
		return id, nil
	}
	for _, a := range artifacts {
		if a.ID == id {
			return a.Path, nil
		}
	}
	return "", fmt.Errorf("artifact %q not found in registry", id)
}
