package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// ManifestFile is written into the index directory by every build.
const ManifestFile = "manifest.json"

// ManifestVersion is bumped when the index layout changes.
const ManifestVersion = 1

// Manifest describes a built index.
type Manifest struct {
	Version int `json:"version"`
	// Documents is the number of indexed articles.
	Documents int `json:"documents"`
	// Fingerprint hashes every indexed article. Two builds of the same
	// corpus with the same stopwords have equal fingerprints.
	Fingerprint string    `json:"fingerprint"`
	Stopwords   int       `json:"stopwords"`
	BuiltAt     time.Time `json:"built_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// ReadManifest reads the manifest of the index at indexDir.
func ReadManifest(indexDir string) (*Manifest, error) {
	path := filepath.Join(indexDir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.IOError("failed to read index manifest", err).WithDetail("path", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeCorruptIndex, "index manifest is corrupt", err).
			WithDetail("path", path)
	}
	return &m, nil
}

func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.InternalError("failed to encode manifest", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.WriteError("failed to write manifest", err).WithDetail("path", path)
	}
	return nil
}

// fingerprintEntry is what the fingerprint covers for one article.
type fingerprintEntry struct {
	path  string
	title string
	tags  []string
	text  string
}

// computeFingerprint hashes entries in path order, so the result does not
// depend on the order articles were read in.
func computeFingerprint(entries []fingerprintEntry, stopwords []string) string {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b fingerprintEntry) int {
		return strings.Compare(a.path, b.path)
	})

	h := sha256.New()
	for _, e := range sorted {
		h.Write([]byte(e.path))
		h.Write([]byte{0})
		h.Write([]byte(e.title))
		h.Write([]byte{0})

		tags := slices.Clone(e.tags)
		slices.Sort(tags)
		h.Write([]byte(strings.Join(tags, "\x01")))
		h.Write([]byte{0})

		h.Write([]byte(e.text))
		h.Write([]byte{0})
	}

	words := slices.Clone(stopwords)
	slices.Sort(words)
	h.Write([]byte(strings.Join(words, "\x01")))

	return hex.EncodeToString(h.Sum(nil))
}
