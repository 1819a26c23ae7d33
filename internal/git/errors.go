package git

import "errors"

// Repository discovery errors
var (
	ErrSourceFolderNotSet = errors.New("source folder is not set")
	ErrNotRepository      = errors.New("source folder is not a git repository")
)
