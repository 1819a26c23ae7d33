package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/vmihailenco/msgpack/v5"

	issueerrors "github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// Current schema version - increment when filePayload format changes
const fileSchemaVersion uint16 = 1

const fileExt = ".mp"

// FileStore keeps the tracked issues of each source file in its own msgpack
// file, named after a digest of the source path. Writes are atomic.
// Thread-safe for concurrent access.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

type filePayload struct {
	Schema uint16   `msgpack:"schema"`
	Path   string   `msgpack:"path"`
	Issues []record `msgpack:"issues"`
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, issueerrors.NewStoreError("open", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// objectName is the name a source path is stored under.
func objectName(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:]) + fileExt
}

func (s *FileStore) pathFor(path string) string {
	return filepath.Join(s.dir, objectName(path))
}

// Read loads the issues saved for path. It reports false when nothing was saved.
func (s *FileStore) Read(path string) ([]trackable.Tracked, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, err := s.readPayload(s.pathFor(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, issueerrors.NewStoreError("read", path, err)
	}
	issues, err := payload.tracked(path)
	if err != nil {
		return nil, false, issueerrors.NewStoreError("read", path, err)
	}
	return issues, true, nil
}

func (s *FileStore) readPayload(file string) (*filePayload, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodePayload(f, filepath.Base(file))
}

func decodePayload(r io.Reader, name string) (*filePayload, error) {
	var payload filePayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if payload.Schema != fileSchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", payload.Schema)
	}
	return &payload, nil
}

func encodePayload(path string, issues []trackable.Tracked) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	payload := filePayload{Schema: fileSchemaVersion, Path: path, Issues: toRecords(issues)}
	if err := msgpack.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, err
	}
	return &buf, nil
}

// tracked converts the payload back, checking it was saved for path.
func (p *filePayload) tracked(path string) ([]trackable.Tracked, error) {
	if p.Path != path {
		return nil, fmt.Errorf("payload belongs to %q", p.Path)
	}
	return fromRecords(p.Issues)
}

// Save replaces the issues saved for path.
func (s *FileStore) Save(path string, issues []trackable.Tracked) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, err := encodePayload(path, issues)
	if err != nil {
		return issueerrors.NewStoreError("save", path, err)
	}
	if err := atomic.WriteFile(s.pathFor(path), buf); err != nil {
		return issueerrors.NewStoreError("save", path, err)
	}
	return nil
}

// Paths lists every source path with saved issues, sorted.
func (s *FileStore) Paths() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, issueerrors.NewStoreError("list", s.dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		payload, err := s.readPayload(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, issueerrors.NewStoreError("list", e.Name(), err)
		}
		paths = append(paths, payload.Path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Close is a no-op; FileStore holds no open handles between calls.
func (s *FileStore) Close() error {
	return nil
}
