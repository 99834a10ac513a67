package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"playerxfer.ai/internal/playerdata"
	"playerxfer.ai/internal/transfer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "xfer.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_EmptyPathIsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileToTransferConfig(t *testing.T) {
	p := writeConfig(t, `
data_dir: /srv/mc/world/playerdata
source: 8813206A-3133-323C-AAE2-4D9F757B0469
target: abb87e38-59fe-3a94-a04c-ceebd573fe56
fields: [Inventory, EnderItems, Health]
dry_run: true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := cfg.Transfer()
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	want := transfer.Config{
		DataDir:      "/srv/mc/world/playerdata",
		SourceID:     "8813206a-3133-323c-aae2-4d9f757b0469",
		TargetID:     "abb87e38-59fe-3a94-a04c-ceebd573fe56",
		Fields:       []string{"Inventory", "EnderItems", "Health"},
		BackupSuffix: ".backup",
		DryRun:       true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("transfer config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PlayerNames(t *testing.T) {
	p := writeConfig(t, `
data_dir: ./pd
source_name: The_SteelShark
target_name: IDovaI
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := cfg.Transfer()
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got.SourceID != playerdata.OfflineID("The_SteelShark") || got.TargetID != playerdata.OfflineID("IDovaI") {
		t.Fatalf("ids=%s,%s", got.SourceID, got.TargetID)
	}
	if diff := cmp.Diff(playerdata.DefaultFields(), got.Fields); diff != "" {
		t.Fatalf("fields should default to allowlist (-want +got):\n%s", diff)
	}
}

func TestLoad_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "data_dir: x\nsorce: 8813206a-3133-323c-aae2-4d9f757b0469\n",
		"bad uuid":      "source: 8813206a\n",
		"unknown field": "fields: [Inventory, Motion]\n",
		"dup field":     "fields: [Health, Health]\n",
		"bad type":      "dry_run: maybe\n",
		"bad name":      "source_name: \"has space\"\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected schema error", name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("err=%v want not-exist", err)
	}
}

func TestValidate(t *testing.T) {
	base := Defaults()
	base.Source = "8813206a-3133-323c-aae2-4d9f757b0469"
	base.Target = "abb87e38-59fe-3a94-a04c-ceebd573fe56"
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := map[string]func(c *Config){
		"no target":       func(c *Config) { c.Target = "" },
		"both id & name":  func(c *Config) { c.SourceName = "Steve" },
		"same player":     func(c *Config) { c.Target = c.Source },
		"no data dir":     func(c *Config) { c.DataDir = "" },
		"suffix with sep": func(c *Config) { c.BackupSuffix = "/../x" },
		"bad field":       func(c *Config) { c.Fields = []string{"Motion"} },
	}
	for name, mut := range cases {
		c := base
		c.Fields = append([]string(nil), base.Fields...)
		mut(&c)
		err := c.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if strings.TrimSpace(err.Error()) == "" {
			t.Fatalf("%s: empty error message", name)
		}
	}
}

func TestNormalize_TrimsAndDefaults(t *testing.T) {
	c := Config{
		DataDir:      "  ./pd ",
		Source:       " 8813206A-3133-323C-AAE2-4D9F757B0469 ",
		Fields:       []string{" ", ""},
		BackupSuffix: "  ",
	}
	c.Normalize()
	if c.DataDir != "./pd" || c.Source != "8813206a-3133-323c-aae2-4d9f757b0469" || c.BackupSuffix != ".backup" {
		t.Fatalf("normalize: %+v", c)
	}
	if len(c.Fields) != len(playerdata.DefaultFields()) {
		t.Fatalf("fields=%v", c.Fields)
	}
}
