// Package weights resolves the on-disk layout of model weight archives.
// Downloading archives is out of scope here: a Provisioner materializes
// them, and the Store only answers "where is X, and is it present".
package weights

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imaged/internal/common/fsutil"
)

// Layout constants, relative to the store root.
const (
	baseModelDir   = "FLUX.1-dev"
	variantRootDir = "InfiniteYou/infu_flux_v1.0"
	supportsDir    = "InfiniteYou/supports"
	addOnDir       = "InfiniteYou/supports/optional_loras"
	faceDir        = "InfiniteYou/supports/insightface"

	addOnPrefix = "flux_"
	addOnSuffix = "_lora.safetensors"
)

// MissingError reports a required weight path that is not present on disk.
type MissingError struct{ Path string }

func (e MissingError) Error() string { return "weights not present: " + e.Path }

// IsMissing reports whether err indicates absent weight data.
func IsMissing(err error) bool {
	_, ok := err.(MissingError)
	return ok
}

// Store resolves weight paths under a single root directory.
type Store struct {
	root string
}

// Open resolves dir (expanding a leading '~') and returns a Store rooted
// there. The root itself must exist; individual archives are checked lazily.
func Open(dir string) (*Store, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	if !fsutil.PathExists(abs) {
		return nil, MissingError{Path: abs}
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute store root.
func (s *Store) Root() string { return s.root }

// BaseModelPath returns the base model directory, checking presence.
func (s *Store) BaseModelPath() (string, error) {
	p := filepath.Join(s.root, baseModelDir)
	if !fsutil.PathExists(p) {
		return "", MissingError{Path: p}
	}
	return p, nil
}

// VariantPath returns the weight directory for a pipeline variant,
// checking presence.
func (s *Store) VariantPath(variant string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(variantRootDir), variant)
	if !fsutil.PathExists(p) {
		return "", MissingError{Path: p}
	}
	return p, nil
}

// FaceAnalysisPath returns the face-analysis support directory. Presence is
// not checked; the pipeline backend decides whether it needs it.
func (s *Store) FaceAnalysisPath() string {
	return filepath.Join(s.root, filepath.FromSlash(faceDir))
}

// AddOnPath returns the weight file for an add-on module, checking presence.
func (s *Store) AddOnPath(id string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(addOnDir), addOnPrefix+id+addOnSuffix)
	if !fsutil.PathExists(p) {
		return "", MissingError{Path: p}
	}
	return p, nil
}

// ListAddOns scans the add-on directory and returns the ids of all add-on
// weight files present, sorted. A missing directory yields an empty list.
func (s *Store) ListAddOns() ([]string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(addOnDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, addOnPrefix) || !strings.HasSuffix(name, addOnSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, addOnPrefix), addOnSuffix)
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
