package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"playerxfer.ai/internal/config"
	"playerxfer.ai/internal/persistence/backup"
	"playerxfer.ai/internal/persistence/indexdb"
	"playerxfer.ai/internal/persistence/journal"
	"playerxfer.ai/internal/persistence/playerfile"
	"playerxfer.ai/internal/playerdata"
)

func inspectCmd(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	file := fs.String("file", "", "player .dat file")
	all := fs.Bool("all", false, "print every top-level key, not only transferable fields")
	width := fs.Int("width", 160, "truncate values to this many characters (0 = no limit)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		return 2
	}
	rec, err := playerfile.Read(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		return 1
	}
	writeInspect(os.Stdout, rec, *all, *width)
	return 0
}

func writeInspect(w io.Writer, rec *playerdata.Record, all bool, width int) {
	keys := playerdata.DefaultFields()
	if all {
		keys = keys[:0]
		for k := range rec.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		v, ok := rec.Data[k]
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t(absent)\n", k)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k, playerdata.TagName(v.Type), truncate(v.String(), width))
	}
	_ = tw.Flush()
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

func restoreCmd(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	configPath := fs.String("config", "", "path to xfer.yaml (optional)")
	dataDir := fs.String("data", "", "playerdata directory")
	target := fs.String("target", "", "target player uuid")
	targetName := fs.String("target_name", "", "target player name (offline-mode uuid)")
	suffix := fs.String("backup_suffix", "", "backup file suffix (default .backup)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 2
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *target != "" || *targetName != "" {
		cfg.Target, cfg.TargetName = *target, *targetName
	}
	if *suffix != "" {
		cfg.BackupSuffix = *suffix
	}
	cfg.Normalize()

	id, err := cfg.TargetID()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}
	path := playerdata.FilePath(cfg.DataDir, id)
	// Refuse to restore a backup that does not decode.
	if _, err := playerfile.Read(backup.PathFor(path, cfg.BackupSuffix)); err != nil {
		fmt.Fprintln(os.Stderr, "backup unusable:", err)
		return 1
	}
	src, err := backup.Restore(path, cfg.BackupSuffix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "restore:", err)
		return 1
	}
	fmt.Printf("restore ok: %s -> %s\n", src, path)
	return 0
}

func historyCmd(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite run index path")
	journalDir := fs.String("journal", "", "run journal directory (used when -db is empty)")
	target := fs.String("target", "", "only runs for this target uuid")
	limit := fs.Int("limit", 20, "max runs to list (db only)")
	_ = fs.Parse(args)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch {
	case strings.TrimSpace(*dbPath) != "":
		idx, err := indexdb.OpenSQLite(*dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open db:", err)
			return 1
		}
		defer idx.Close()
		runs, err := idx.ListRuns(strings.ToLower(strings.TrimSpace(*target)), *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list runs:", err)
			return 1
		}
		fmt.Fprintln(tw, "STARTED\tRUN\tSOURCE\tTARGET\tSTATUS\tSTEP\tCOPIED\tFIELDS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.RunID, r.SourceID, r.TargetID,
				r.Status, r.Step, r.Copied, strings.Join(r.CopiedFields(), ","))
		}
	case strings.TrimSpace(*journalDir) != "":
		ents, err := journal.ReadDir(*journalDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read journal:", err)
			return 1
		}
		fmt.Fprintln(tw, "STARTED\tRUN\tSOURCE\tTARGET\tSTATUS\tSTEP\tCOPIED\tERROR")
		for _, e := range ents {
			if *target != "" && !strings.EqualFold(e.TargetID, *target) {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				e.StartedAt.Format("2006-01-02 15:04:05"), e.RunID, e.SourceID, e.TargetID,
				e.Status, e.Step, e.Result.Copied, e.Error)
		}
	default:
		fmt.Fprintln(os.Stderr, "missing -db or -journal")
		return 2
	}
	return 0
}
