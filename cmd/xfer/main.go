package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"playerxfer.ai/internal/config"
	"playerxfer.ai/internal/persistence/indexdb"
	"playerxfer.ai/internal/persistence/journal"
	"playerxfer.ai/internal/transfer"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "run":
			os.Exit(runCmd(os.Args[2:]))
		case "inspect":
			os.Exit(inspectCmd(os.Args[2:]))
		case "restore":
			os.Exit(restoreCmd(os.Args[2:]))
		case "history":
			os.Exit(historyCmd(os.Args[2:]))
		}
	}
	os.Exit(runCmd(os.Args[1:]))
}

func runCmd(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to xfer.yaml (optional)")
	dataDir := fs.String("data", "", "playerdata directory holding <uuid>.dat files")
	source := fs.String("source", "", "source player uuid")
	target := fs.String("target", "", "target player uuid")
	sourceName := fs.String("source_name", "", "source player name (offline-mode uuid)")
	targetName := fs.String("target_name", "", "target player name (offline-mode uuid)")
	fields := fs.String("fields", "", "comma-separated fields to transfer (default: all allowlisted)")
	suffix := fs.String("backup_suffix", "", "backup file suffix (default .backup)")
	journalDir := fs.String("journal", "", "directory for the compressed run journal (optional)")
	dbPath := fs.String("db", "", "sqlite run index path (optional)")
	dryRun := fs.Bool("dry_run", false, "report what would be transferred without writing anything")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 2
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["data"] {
		cfg.DataDir = *dataDir
	}
	if set["source"] || set["source_name"] {
		cfg.Source, cfg.SourceName = *source, *sourceName
	}
	if set["target"] || set["target_name"] {
		cfg.Target, cfg.TargetName = *target, *targetName
	}
	if set["fields"] {
		cfg.Fields = strings.Split(*fields, ",")
	}
	if set["backup_suffix"] {
		cfg.BackupSuffix = *suffix
	}
	if set["journal"] {
		cfg.JournalDir = *journalDir
	}
	if set["db"] {
		cfg.IndexDB = *dbPath
	}
	if set["dry_run"] {
		cfg.DryRun = *dryRun
	}
	cfg.Normalize()

	tcfg, err := cfg.Transfer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}

	logger := log.New(os.Stdout, "[xfer] ", log.LstdFlags|log.Lmicroseconds)
	runner := transfer.NewRunner(logger)
	if cfg.JournalDir != "" {
		runner.Recorders = append(runner.Recorders, journal.NewWriter(cfg.JournalDir))
	}
	if cfg.IndexDB != "" {
		idx, err := indexdb.OpenSQLite(cfg.IndexDB)
		if err != nil {
			// The index is a convenience; the run does not depend on it.
			logger.Printf("index db disabled: %v", err)
		} else {
			defer idx.Close()
			runner.Recorders = append(runner.Recorders, idx)
		}
	}

	logger.Printf("player data transfer: source=%s target=%s dir=%s", tcfg.SourceID, tcfg.TargetID, tcfg.DataDir)
	logger.Printf("make sure the game server is stopped before running this and restart it afterwards")

	rep, err := runner.Run(tcfg)
	if err != nil {
		logger.Printf("transfer failed at %s: %v", transfer.Step(err), err)
		var (
			be *transfer.BackupError
			se *transfer.SaveError
		)
		switch {
		case errors.As(err, &be):
			logger.Printf("nothing was modified")
		case errors.As(err, &se):
			logger.Printf("target left as it was; backup at %s", rep.BackupPath)
		case rep.BackupPath != "":
			logger.Printf("target not written; backup at %s", rep.BackupPath)
		}
		if errors.Is(err, transfer.ErrInvalidConfig) {
			return 2
		}
		return 1
	}
	logger.Printf("ok: run=%s copied=%d absent=%d saved=%v", rep.RunID, rep.Result.Copied, len(rep.Result.Absent()), rep.Saved)
	return 0
}
