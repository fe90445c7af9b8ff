// Package blob implements the binary attachment store. Payloads are keyed
// by a generated UUID v7 and referenced from attachment rows via file_id;
// the store never inspects its payloads.
package blob

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/voyagehq/tripvault/pkg/types"
)

// BlobDir is the payload directory inside the data directory.
const BlobDir = "blobs"

// ErrInvalidDataURL reports a malformed data-URL payload.
var ErrInvalidDataURL = errors.New("invalid data URL")

// Store writes payloads as <id>.bin with a <id>.json metadata sidecar.
type Store struct {
	dir string
}

// New returns a blob store rooted at dataDir.
func New(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "."
	}
	return &Store{dir: filepath.Join(dataDir, BlobDir)}
}

// Put stores raw bytes and returns the stable reference other records embed.
func (s *Store) Put(name, mimeType string, data []byte) (types.BlobRef, error) {
	ref := types.BlobRef{
		ID:   generateID(),
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return types.BlobRef{}, fmt.Errorf("creating blob dir: %w", err)
	}
	if err := os.WriteFile(s.payloadPath(ref.ID), data, 0o644); err != nil {
		return types.BlobRef{}, fmt.Errorf("writing blob %s: %w", ref.ID, err)
	}

	meta, err := json.Marshal(ref)
	if err != nil {
		return types.BlobRef{}, fmt.Errorf("marshaling blob metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(ref.ID), meta, 0o644); err != nil {
		os.Remove(s.payloadPath(ref.ID))
		return types.BlobRef{}, fmt.Errorf("writing blob metadata %s: %w", ref.ID, err)
	}
	return ref, nil
}

// PutDataURL stores a base64 data-URL payload ("data:<mime>;base64,<data>").
// The MIME type comes from the URL itself.
func (s *Store) PutDataURL(name, dataURL string) (types.BlobRef, error) {
	mimeType, data, err := decodeDataURL(dataURL)
	if err != nil {
		return types.BlobRef{}, err
	}
	return s.Put(name, mimeType, data)
}

// Get returns the metadata for a stored blob. Returns types.ErrNotFound for
// unknown ids.
func (s *Store) Get(id string) (types.BlobRef, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return types.BlobRef{}, types.ErrNotFound
		}
		return types.BlobRef{}, fmt.Errorf("reading blob metadata %s: %w", id, err)
	}
	var ref types.BlobRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return types.BlobRef{}, fmt.Errorf("parsing blob metadata %s: %w", id, err)
	}
	return ref, nil
}

// Open returns the payload bytes for a stored blob.
func (s *Store) Open(id string) ([]byte, error) {
	data, err := os.ReadFile(s.payloadPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("reading blob %s: %w", id, err)
	}
	return data, nil
}

// Delete removes a blob and its metadata. Unknown ids are a no-op.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.payloadPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob %s: %w", id, err)
	}
	if err := os.Remove(s.metaPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob metadata %s: %w", id, err)
	}
	return nil
}

func (s *Store) payloadPath(id string) string {
	return filepath.Join(s.dir, id+".bin")
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// generateID returns a UUID v7, falling back to v4 if v7 generation fails.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// decodeDataURL splits a "data:<mime>;base64,<payload>" string into its
// MIME type and decoded bytes.
func decodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mimeType, found := strings.CutSuffix(header, ";base64")
	if !found {
		return "", nil, ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mimeType, data, nil
}
