package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store keeps uploaded prescription documents on local disk. Paths returned
// by Save are what gets persisted on the prescription asset.
type Store struct {
	root string
}

// New creates the storage directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("prescription directory must be provided")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create prescription dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Save writes the document as <root>/<orderID>_<filename> and returns the path.
func (s *Store) Save(orderID, filename string, r io.Reader) (string, error) {
	name := orderID + "_" + filepath.Base(filename)
	path := filepath.Join(s.root, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create prescription file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write prescription file: %w", err)
	}
	return path, nil
}

// Open returns the stored document for reading.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
