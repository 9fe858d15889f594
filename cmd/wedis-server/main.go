package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/mshaverdo/assert"

	"github.com/karashiiro/wedis/internal/command"
	"github.com/karashiiro/wedis/internal/engine"
	"github.com/karashiiro/wedis/internal/log"
	"github.com/karashiiro/wedis/internal/respserver"
	"github.com/karashiiro/wedis/internal/snapshot"
	"github.com/karashiiro/wedis/internal/storage"
	"github.com/karashiiro/wedis/internal/wal"
)

var assertionEnabled = "1"

func init() {
	assert.Enabled = (assertionEnabled == "1")
}

func main() {
	var (
		host, dataDir               string
		port                        int
		mergeWalInterval            int
		syncPolicy                  int
		quiet, verbose, veryVerbose bool
	)

	flag.StringVar(&host, "h", "127.0.0.1", "The listening host.")
	flag.IntVar(&port, "p", 6379, "The listening port.")
	flag.IntVar(&mergeWalInterval, "m", 600, "Merge WAL into snapshot interval in seconds")
	flag.IntVar(&syncPolicy, "s", 1, "WAL sync policy: 0 - never, 1 - once per second, 2 - always")
	flag.StringVar(&dataDir, "d", "./data", "Data dir")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.Parse()

	switch {
	case veryVerbose:
		log.SetLevel(log.DEBUG)
	case verbose:
		log.SetLevel(log.INFO)
	case quiet:
		log.SetLevel(-1)
	default:
		log.SetLevel(log.NOTICE)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Critical(err.Error())
		os.Exit(1)
	}

	badgerDir := filepath.Join(dataDir, "badger")
	eng, err := engine.OpenBadger(badgerDir)
	if err != nil {
		log.Critical(err.Error())
		os.Exit(1)
	}
	defer eng.Close()

	store := storage.New(eng)
	dispatcher := command.NewDispatcher(store)

	walLog, err := recoverWal(dataDir, wal.SyncPolicy(syncPolicy))
	if err != nil {
		log.Critical(err.Error())
		os.Exit(1)
	}
	defer walLog.Close()

	srv := respserver.New(host, port, dispatcher, walLog)

	stopMerge := make(chan struct{})
	go runSnapshotMerger(dataDir, walLog, time.Duration(mergeWalInterval)*time.Second, stopMerge)

	go handleSignals(srv, walLog, dataDir, stopMerge)

	log.Noticef("wedis listening on %s:%d", host, port)
	if err := srv.ListenAndServe(); err != nil {
		log.Critical(err.Error())
		os.Exit(1)
	}
}

// recoverWal loads the last snapshot, scans any WAL segments left over from
// a previous run for the highest sequence id they reached (badger already
// holds everything those segments describe, so nothing is replayed — see
// internal/wal's ScanMaxID doc comment), removes them, and opens a fresh
// segment continuing the sequence.
func recoverWal(dataDir string, policy wal.SyncPolicy) (*wal.Log, error) {
	state, err := snapshot.Load(dataDir)
	if err != nil {
		return nil, err
	}

	segments, err := wal.Segments(dataDir)
	if err != nil {
		return nil, err
	}
	sort.Strings(segments)

	lastID := state.LastID
	for _, path := range segments {
		maxID, err := wal.ScanMaxID(path)
		if err != nil {
			return nil, err
		}
		if maxID > lastID {
			lastID = maxID
		}
		if err := os.Remove(path); err != nil {
			log.Warningf("unable to remove stale WAL segment %s: %s", path, err)
		}
	}

	if err := snapshot.Save(dataDir, snapshot.State{LastID: lastID}); err != nil {
		return nil, err
	}

	return wal.Open(dataDir, policy, lastID)
}

// runSnapshotMerger periodically rotates the WAL and advances the snapshot
// marker, pruning segments badger's own durability has already made
// redundant, following controller/keeper.go's runSnapshotUpdater loop.
func runSnapshotMerger(dataDir string, walLog *wal.Log, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := mergeSnapshot(dataDir, walLog); err != nil {
				log.Errorf("snapshot merge failed: %s", err)
			}
		}
	}
}

func mergeSnapshot(dataDir string, walLog *wal.Log) error {
	log.Info("merging WAL into snapshot")

	if _, err := walLog.Rotate(); err != nil {
		return fmt.Errorf("rotate WAL: %w", err)
	}

	if err := snapshot.Save(dataDir, snapshot.State{LastID: walLog.LastID()}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	current := walLog.CurrentPath()
	segments, err := wal.Segments(dataDir)
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}
	for _, path := range segments {
		if path == current {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Warningf("unable to remove merged WAL segment %s: %s", path, err)
		}
	}

	return nil
}

func handleSignals(srv *respserver.Server, walLog *wal.Log, dataDir string, stopMerge chan<- struct{}) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	close(stopMerge)

	log.Notice("shutting down")
	if err := srv.Shutdown(); err != nil {
		log.Errorf("shutdown: %s", err)
	}

	if err := snapshot.Save(dataDir, snapshot.State{LastID: walLog.LastID()}); err != nil {
		log.Errorf("final snapshot save: %s", err)
	}
}
