package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// UnknownRevision is recorded when the corpus revision cannot be determined.
const UnknownRevision = "unknown"

// Version is the externally visible data version stamp.
type Version struct {
	Revision          string    `json:"revision"`
	RevisionTimestamp time.Time `json:"revisionTimestamp"`
	ProducedAt        time.Time `json:"producedAt"`
	RunID             string    `json:"runId,omitempty"`
}

// WriteVersion replaces the stamp at path atomically.
func WriteVersion(path string, v *Version) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode version: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	return nil
}

// ReadVersion loads the stamp at path.
func ReadVersion(path string) (*Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, pcerrors.MalformedData(path, err)
	}
	return &v, nil
}
