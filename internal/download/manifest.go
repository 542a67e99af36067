package download

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v2"
)

// ManifestFile is the name of the digest manifest kept next to downloaded files
const ManifestFile = ".stflow-manifest.yaml"

// Entry records where a file came from and what it hashed to
type Entry struct {
	URL        string    `yaml:"url"`
	Size       int64     `yaml:"size"`
	BLAKE2b    string    `yaml:"blake2b_256"`
	Downloaded time.Time `yaml:"downloaded"`
}

// Manifest maps file names in a directory to their download entries
type Manifest struct {
	Files map[string]Entry `yaml:"files"`
}

// LoadManifest reads dir's manifest. A missing manifest is empty, not an error.
func LoadManifest(dir string) (*Manifest, error) {
	m := &Manifest{Files: make(map[string]Entry)}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = make(map[string]Entry)
	}
	return m, nil
}

// Save writes the manifest into dir
func (m *Manifest) Save(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Verify reports whether the file at path exists and hashes to the digest recorded for it
func (m *Manifest) Verify(path string) bool {
	entry, ok := m.Files[filepath.Base(path)]
	if !ok {
		return false
	}
	sum, _, err := HashFile(path)
	return err == nil && sum == entry.BLAKE2b
}

// HashFile returns the hex BLAKE2b-256 digest and size of the file at path
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
