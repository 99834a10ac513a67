package transfer

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"playerxfer.ai/internal/persistence/backup"
	"playerxfer.ai/internal/persistence/playerfile"
	"playerxfer.ai/internal/playerdata"
)

// Config is everything one run needs. Ids are canonical player uuids.
type Config struct {
	DataDir      string
	SourceID     string
	TargetID     string
	Fields       []string
	BackupSuffix string
	DryRun       bool
}

// Report describes one run, successful or not.
type Report struct {
	RunID      string            `json:"run_id"`
	SourceID   string            `json:"source_id"`
	TargetID   string            `json:"target_id"`
	SourcePath string            `json:"source_path"`
	TargetPath string            `json:"target_path"`
	BackupPath string            `json:"backup_path,omitempty"`
	Result     playerdata.Result `json:"result"`
	DryRun     bool              `json:"dry_run,omitempty"`
	Saved      bool              `json:"saved"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Recorder persists finished runs. Failures are logged by the Runner and do
// not change the run outcome.
type Recorder interface {
	RecordRun(rep Report, runErr error) error
}

type Runner struct {
	Logger    *log.Logger
	Recorders []Recorder

	now   func() time.Time
	newID func() string
	save  func(path string, rec *playerdata.Record) error
}

func NewRunner(logger *log.Logger, recorders ...Recorder) *Runner {
	return &Runner{Logger: logger, Recorders: recorders}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

func (r *Runner) write(path string, rec *playerdata.Record) error {
	if r.save != nil {
		return r.save(path, rec)
	}
	return playerfile.Write(path, rec)
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}

// Run backs up the target, loads both files, transplants cfg.Fields from
// source to target and saves the target. Any error aborts the run; the
// target is written at most once, at the end.
func (r *Runner) Run(cfg Config) (rep Report, err error) {
	rep.RunID = uuid.NewString()
	if r.newID != nil {
		rep.RunID = r.newID()
	}
	rep.StartedAt = r.clock()
	rep.DryRun = cfg.DryRun
	defer func() {
		rep.FinishedAt = r.clock()
		r.record(rep, err)
	}()

	cfg, err = normalize(cfg)
	if err != nil {
		return rep, err
	}
	rep.SourceID, rep.TargetID = cfg.SourceID, cfg.TargetID
	rep.SourcePath = playerdata.FilePath(cfg.DataDir, cfg.SourceID)
	rep.TargetPath = playerdata.FilePath(cfg.DataDir, cfg.TargetID)

	for _, c := range []struct {
		role Role
		path string
	}{{RoleSource, rep.SourcePath}, {RoleTarget, rep.TargetPath}} {
		if err := checkFile(c.role, c.path); err != nil {
			return rep, err
		}
	}

	if cfg.DryRun {
		r.logf("dry run: skipping backup of %s", rep.TargetPath)
	} else {
		bp := backup.PathFor(rep.TargetPath, cfg.BackupSuffix)
		r.logf("creating backup: %s", bp)
		if _, err := backup.Create(rep.TargetPath, cfg.BackupSuffix); err != nil {
			return rep, &BackupError{Path: bp, Err: err}
		}
		rep.BackupPath = bp
	}

	r.logf("loading source file: %s", rep.SourcePath)
	src, err := playerfile.Read(rep.SourcePath)
	if err != nil {
		return rep, &LoadError{Role: RoleSource, Path: rep.SourcePath, Err: err}
	}
	r.logf("loading target file: %s", rep.TargetPath)
	dst, err := playerfile.Read(rep.TargetPath)
	if err != nil {
		return rep, &LoadError{Role: RoleTarget, Path: rep.TargetPath, Err: err}
	}

	r.logf("transferring %d fields:", len(cfg.Fields))
	rep.Result = playerdata.Transplant(src.Data, dst.Data, cfg.Fields)
	for _, f := range rep.Result.Fields {
		switch f.Outcome {
		case playerdata.Copied:
			r.logf("  + %s (%s, %s)", f.Field, playerdata.Describe(f.Field), f.Kind)
		default:
			r.logf("  - %s (not found in source)", f.Field)
		}
	}

	if cfg.DryRun {
		r.logf("dry run: %d fields would be transferred, target not written", rep.Result.Copied)
		return rep, nil
	}

	r.logf("saving modified target file: %s", rep.TargetPath)
	if err := r.write(rep.TargetPath, dst); err != nil {
		return rep, &SaveError{Path: rep.TargetPath, Err: err}
	}
	rep.Saved = true
	r.logf("transfer complete: %d fields transferred, backup at %s", rep.Result.Copied, rep.BackupPath)
	return rep, nil
}

func (r *Runner) record(rep Report, runErr error) {
	for _, rec := range r.Recorders {
		if rec == nil {
			continue
		}
		if err := rec.RecordRun(rep, runErr); err != nil {
			r.logf("record run %s: %v", rep.RunID, err)
		}
	}
}

func normalize(cfg Config) (Config, error) {
	var err error
	if cfg.DataDir == "" {
		return cfg, fmt.Errorf("%w: empty data dir", ErrInvalidConfig)
	}
	if cfg.SourceID, err = playerdata.ParseID(cfg.SourceID); err != nil {
		return cfg, fmt.Errorf("%w: source: %v", ErrInvalidConfig, err)
	}
	if cfg.TargetID, err = playerdata.ParseID(cfg.TargetID); err != nil {
		return cfg, fmt.Errorf("%w: target: %v", ErrInvalidConfig, err)
	}
	if cfg.SourceID == cfg.TargetID {
		return cfg, fmt.Errorf("%w: source and target are the same player %s", ErrInvalidConfig, cfg.SourceID)
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = playerdata.DefaultFields()
	}
	if err := playerdata.ValidateFields(cfg.Fields); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func checkFile(role Role, path string) error {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &MissingFileError{Role: role, Path: path}
	}
	if err != nil {
		return &LoadError{Role: role, Path: path, Err: err}
	}
	if !st.Mode().IsRegular() {
		return &LoadError{Role: role, Path: path, Err: fmt.Errorf("not a regular file")}
	}
	return nil
}
