package transfer

import (
	"errors"
	"fmt"
)

// Role names which of the two player files an error is about.
type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

var ErrInvalidConfig = errors.New("invalid transfer config")

// MissingFileError: a source or target player file does not exist. Nothing
// has been touched when it is returned.
type MissingFileError struct {
	Role Role
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s playerdata file not found: %s", e.Role, e.Path)
}

// BackupError: the target could not be backed up. Returned before any load
// or write.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// LoadError: a player file could not be read or decoded. Decode failures
// carry a *playerfile.DecodeError.
type LoadError struct {
	Role Role
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Role, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError: the target could not be rewritten. The target keeps its old
// content and the backup is still in place.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Step names the stage a run stopped at, for reports and exit messages.
func Step(err error) string {
	var (
		mf *MissingFileError
		be *BackupError
		le *LoadError
		se *SaveError
	)
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, ErrInvalidConfig):
		return "config"
	case errors.As(err, &mf):
		return "check"
	case errors.As(err, &be):
		return "backup"
	case errors.As(err, &le):
		return "load_" + string(le.Role)
	case errors.As(err, &se):
		return "save"
	}
	return "unknown"
}
