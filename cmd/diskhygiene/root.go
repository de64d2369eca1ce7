package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/calebandcode/diskhygiene/internal/config"
	"github.com/calebandcode/diskhygiene/internal/facade"
	"github.com/calebandcode/diskhygiene/internal/logging"
	"github.com/calebandcode/diskhygiene/internal/ops"
	"github.com/calebandcode/diskhygiene/internal/scan"
	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
	"github.com/calebandcode/diskhygiene/internal/watch"
)

var (
	flagDataDir           string
	flagNoLogs            bool
	flagWalkers           int
	flagQueueSize         int
	flagMaxFilesPerScan   int
	flagMaxRuntimePerScan time.Duration
	flagPoolSize          int

	fac     *facade.Facade
	watcher *watch.Watcher
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "diskhygiene",
		Short:         "Find, bucket and reclaim disk space taken up by stale files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return shutdown()
		},
	}

	defaults := types.DefaultResourceControls()
	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory (defaults to the per-user config directory)")
	root.PersistentFlags().BoolVar(&flagNoLogs, "no-logs", false, "Disable file logging, write to stdout instead")
	root.PersistentFlags().IntVar(&flagWalkers, "walkers", defaults.Walkers, "Number of concurrent goroutines used for a scan's deferred-dedup hashing pass")
	root.PersistentFlags().IntVar(&flagQueueSize, "queue-size", defaults.QueueSize, "Maximum scan jobs queued before Enqueue blocks the caller (0 = unbounded)")
	root.PersistentFlags().IntVar(&flagMaxFilesPerScan, "max-files-per-scan", defaults.MaxFilesPerScan, "Maximum files a single scan job will process (0 = unlimited)")
	root.PersistentFlags().DurationVar(&flagMaxRuntimePerScan, "max-runtime-per-scan", defaults.MaxRuntimePerScan, "Maximum duration a single scan job may run (0 = unlimited)")
	root.PersistentFlags().IntVar(&flagPoolSize, "pool-size", 4, "Number of concurrent facade commands")

	root.AddCommand(
		newFoldersCmd(),
		newScanCmd(),
		newCandidatesCmd(),
		newDuplicatesCmd(),
		newArchiveCmd(),
		newDeleteCmd(),
		newStageCmd(),
		newUndoCmd(),
		newGaugeCmd(),
		newPrefsCmd(),
	)
	return root
}

// bootstrap resolves the data directory, reads the bootstrap seed, opens the
// index store, and wires the scan coordinator, ops engine, watcher and
// facade — the same "resolve root, build config, build store, run"
// sequence a single-entrypoint CLI would follow.
func bootstrap() error {
	dataDir := flagDataDir
	if dataDir == "" {
		d, err := config.DataDir()
		if err != nil {
			return err
		}
		dataDir = d
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logDir := filepath.Join(dataDir, "logs")
	log, err := logging.New(dataDir, logging.LogSettings{NoLogs: flagNoLogs, LogDir: logDir})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	seed, err := config.ReadSeed(dataDir)
	if err != nil {
		return err
	}

	dbPath := filepath.Join(dataDir, "index.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}

	archiveBase := seed.ArchiveBasePath
	if archiveBase == "" {
		archiveBase, err = config.DefaultArchiveBase()
		if err != nil {
			return err
		}
	}

	existingRoots, err := st.ListWatchedRoots(cmdCtx())
	if err != nil {
		return err
	}
	if len(existingRoots) == 0 {
		for _, r := range seed.Roots {
			if _, err := st.AddWatchedRoot(cmdCtx(), r); err != nil {
				log.Warnf("seed root %s: %v", r, err)
			}
		}
	}
	if _, ok, _ := st.GetPreference(cmdCtx(), "rolling_window_days"); !ok {
		_ = st.SetPreference(cmdCtx(), "rolling_window_days", fmt.Sprintf("%d", seed.RollingWindowDays))
	}

	coord := scan.New(st, log, types.ResourceControls{
		Walkers:           flagWalkers,
		QueueSize:         flagQueueSize,
		MaxFilesPerScan:   flagMaxFilesPerScan,
		MaxRuntimePerScan: flagMaxRuntimePerScan,
	})
	opsEngine := ops.NewEngine(st, log)
	fac = facade.New(st, coord, opsEngine, log, flagPoolSize, archiveBase)

	w, err := watch.New(coord, log)
	if err != nil {
		log.Warnf("watcher unavailable: %v", err)
	} else {
		watcher = w
		roots, err := st.ListWatchedRoots(cmdCtx())
		if err == nil {
			for _, r := range roots {
				if err := watcher.AddRoot(r.Path); err != nil {
					log.Warnf("watch root %s: %v", r.Path, err)
				}
			}
		}
	}

	return nil
}

func shutdown() error {
	if watcher != nil {
		_ = watcher.Close()
	}
	if fac != nil && fac.Coord != nil {
		fac.Coord.Close()
	}
	if fac != nil && fac.Store != nil {
		return fac.Store.Close()
	}
	return nil
}
