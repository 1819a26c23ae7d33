// Package workspace wires configuration, persistence and the tracker for one
// analyzed source folder.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	"github.com/scan-io-git/issuetrack/pkg/shared/files"
	"github.com/scan-io-git/issuetrack/pkg/store"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/tracker"
)

// Store is a tracker store that can also enumerate what it holds.
type Store interface {
	tracker.Store
	Paths() ([]string, error)
	Close() error
}

// Workspace is an opened source folder.
type Workspace struct {
	SourceFolder string
	Store        Store
	Tracker      *tracker.Tracker
	logger       hclog.Logger
}

// Open resolves sourceFolder, opens the configured store and builds a tracker
// on top of it. storePath overrides the configured store location.
func Open(cfg *config.Config, logger hclog.Logger, sourceFolder, storePath string, opts ...tracker.Option) (*Workspace, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	expanded, err := files.ExpandPath(sourceFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to expand source folder: %w", err)
	}
	absSource, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source folder: %w", err)
	}

	if storePath == "" {
		storePath = config.GetStorePath(cfg, ProjectID(absSource))
	}
	s, err := OpenStore(cfg.Store, storePath)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "backend", cfg.Store.Backend, "path", storePath, "source_folder", absSource)

	opts = append([]tracker.Option{tracker.WithLogger(logger.Named("tracker"))}, opts...)
	return &Workspace{
		SourceFolder: absSource,
		Store:        s,
		Tracker:      tracker.New(s, opts...),
		logger:       logger,
	}, nil
}

// OpenStore opens the configured store backend at path.
func OpenStore(cfg config.Store, path string) (Store, error) {
	switch cfg.Backend {
	case "", config.StoreBackendFile:
		return store.NewFileStore(path)
	case config.StoreBackendSQLite:
		if err := files.CreateFolderIfNotExists(filepath.Dir(path)); err != nil {
			return nil, err
		}
		s, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.StoreBackendS3:
		sess, err := newS3Session(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 session: %w", err)
		}
		return store.NewS3Store(sess, cfg.S3.Bucket, path), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newS3Session(cfg config.S3Store) (*session.Session, error) {
	awsCfg := aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(config.GetBoolValue(cfg, "ForcePathStyle", false)),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	return session.NewSessionWithOptions(session.Options{
		Profile: cfg.Profile,
		Config:  awsCfg,
	})
}

// ProjectID names the store of a source folder.
func ProjectID(absSourceFolder string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absSourceFolder)))
	return filepath.Base(absSourceFolder) + "-" + hex.EncodeToString(sum[:6])
}

// LoadDocument reads a source file by its path relative to the source folder.
func (w *Workspace) LoadDocument(relPath string) (*textrange.Document, error) {
	return textrange.LoadDocument(filepath.Join(w.SourceFolder, filepath.FromSlash(relPath)))
}

// LoadAll brings every persisted path into the tracker and returns the paths.
func (w *Workspace) LoadAll() ([]string, error) {
	paths, err := w.Store.Paths()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		w.Tracker.Load(p)
	}
	w.logger.Debug("persisted issues loaded", "paths", len(paths))
	return w.Tracker.Paths(), nil
}

// Close flushes nothing; it only releases the store.
func (w *Workspace) Close() error {
	return w.Store.Close()
}
