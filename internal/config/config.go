package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"playerxfer.ai/internal/persistence/backup"
	"playerxfer.ai/internal/playerdata"
	"playerxfer.ai/internal/transfer"
)

//go:embed xfer.schema.json
var schemaJSON string

// Config is the operator-facing run configuration. Players are named either
// by uuid (Source/Target) or by offline-mode name (SourceName/TargetName).
type Config struct {
	DataDir      string   `yaml:"data_dir"`
	Source       string   `yaml:"source,omitempty"`
	Target       string   `yaml:"target,omitempty"`
	SourceName   string   `yaml:"source_name,omitempty"`
	TargetName   string   `yaml:"target_name,omitempty"`
	Fields       []string `yaml:"fields,omitempty"`
	BackupSuffix string   `yaml:"backup_suffix,omitempty"`
	JournalDir   string   `yaml:"journal_dir,omitempty"`
	IndexDB      string   `yaml:"index_db,omitempty"`
	DryRun       bool     `yaml:"dry_run,omitempty"`
}

func Defaults() Config {
	return Config{
		DataDir:      "./world/playerdata",
		Fields:       playerdata.DefaultFields(),
		BackupSuffix: backup.DefaultSuffix,
	}
}

// Load reads path over Defaults. An empty path yields the defaults. The
// result is normalized but not validated, so flags can still fill gaps.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := validateSchema(b); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

var schema = func() *jsonschema.Schema {
	return jsonschema.MustCompileString("xfer.schema.json", schemaJSON)
}()

func validateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees JSON value types.
	jb, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(jb, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

func (c *Config) Normalize() {
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	c.Target = strings.ToLower(strings.TrimSpace(c.Target))
	c.SourceName = strings.TrimSpace(c.SourceName)
	c.TargetName = strings.TrimSpace(c.TargetName)
	c.BackupSuffix = strings.TrimSpace(c.BackupSuffix)
	if c.BackupSuffix == "" {
		c.BackupSuffix = backup.DefaultSuffix
	}
	c.JournalDir = strings.TrimSpace(c.JournalDir)
	c.IndexDB = strings.TrimSpace(c.IndexDB)

	fields := c.Fields[:0:0]
	for _, f := range c.Fields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		fields = playerdata.DefaultFields()
	}
	c.Fields = fields
}

// SourceID resolves the source player to a canonical uuid.
func (c Config) SourceID() (string, error) { return resolveID("source", c.Source, c.SourceName) }

// TargetID resolves the target player to a canonical uuid.
func (c Config) TargetID() (string, error) { return resolveID("target", c.Target, c.TargetName) }

func resolveID(role, id, name string) (string, error) {
	switch {
	case id != "" && name != "":
		return "", fmt.Errorf("%s: set either a uuid or a name, not both", role)
	case id != "":
		return playerdata.ParseID(id)
	case name != "":
		return playerdata.OfflineID(name), nil
	}
	return "", fmt.Errorf("%s: missing player uuid or name", role)
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if strings.ContainsAny(c.BackupSuffix, `/\`) {
		return fmt.Errorf("backup_suffix %q must not contain a path separator", c.BackupSuffix)
	}
	src, err := c.SourceID()
	if err != nil {
		return err
	}
	dst, err := c.TargetID()
	if err != nil {
		return err
	}
	if src == dst {
		return fmt.Errorf("source and target resolve to the same player %s", src)
	}
	return playerdata.ValidateFields(c.Fields)
}

// Transfer converts a validated Config into the orchestrator's input.
func (c Config) Transfer() (transfer.Config, error) {
	if err := c.Validate(); err != nil {
		return transfer.Config{}, err
	}
	src, _ := c.SourceID()
	dst, _ := c.TargetID()
	return transfer.Config{
		DataDir:      c.DataDir,
		SourceID:     src,
		TargetID:     dst,
		Fields:       append([]string(nil), c.Fields...),
		BackupSuffix: c.BackupSuffix,
		DryRun:       c.DryRun,
	}, nil
}
