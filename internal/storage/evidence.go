package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rezapearce/kiddyguard-solana-zcash/internal/services"
)

// EvidenceStore writes screening evidence blobs under a local directory.
// Writes require the elevated storage credential: when it is absent every
// upload fails with an explicit configuration error instead of silently
// writing with caller privileges.
type EvidenceStore struct {
	dir        string
	credential string
}

func NewEvidenceStore(dir, credential string) *EvidenceStore {
	return &EvidenceStore{dir: dir, credential: credential}
}

// Save stores data under the given relative path and returns the path as
// stored. Path traversal outside the evidence directory is rejected.
func (s *EvidenceStore) Save(relPath string, data []byte) (string, error) {
	if s.credential == "" {
		return "", services.NewNotConfiguredError("storage credential not configured; evidence uploads are disabled")
	}
	relPath = strings.TrimSpace(relPath)
	if relPath == "" {
		return "", services.NewInvalidError("path required")
	}
	if len(data) == 0 {
		return "", services.NewInvalidError("file is empty")
	}

	clean := filepath.Clean(relPath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", services.NewInvalidError("invalid path")
	}

	full := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create evidence dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write evidence file: %w", err)
	}
	return clean, nil
}

// EvidencePath builds the canonical storage path for a screening answer's
// supporting file.
func EvidencePath(screeningID, questionID, userID, filename string) string {
	ext := filepath.Ext(filename)
	return filepath.Join("evidence", screeningID, fmt.Sprintf("%s_%s%s", questionID, userID, ext))
}
