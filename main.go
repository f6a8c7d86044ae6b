package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/wordmem/internal/cache"
	"github.com/example/wordmem/internal/config"
	"github.com/example/wordmem/internal/database"
	"github.com/example/wordmem/internal/importer"
	"github.com/example/wordmem/internal/itemstore"
	"github.com/example/wordmem/internal/janitor"
	"github.com/example/wordmem/internal/srs"
	"github.com/example/wordmem/internal/stats"
)

// flusher persists the item store and both caches; used for the periodic
// flush and the final flush on shutdown.
type flusher struct {
	store        *itemstore.Store
	audioCache   *cache.Store
	explainCache *cache.Store
	progressRepo *database.ProgressRepository
	cacheRepo    *database.CacheRepository
}

func (f *flusher) Flush() error {
	if err := f.progressRepo.SaveSnapshot(f.store.Snapshot()); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if err := f.cacheRepo.SaveEntries(database.CacheNamespaceAudio, f.audioCache.Snapshot()); err != nil {
		return fmt.Errorf("save audio cache: %w", err)
	}
	if err := f.cacheRepo.SaveEntries(database.CacheNamespaceExplain, f.explainCache.Snapshot()); err != nil {
		return fmt.Errorf("save explanation cache: %w", err)
	}
	return nil
}

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	cfg := config.Load()

	db, err := database.Connect(database.Config{Driver: cfg.Driver(), DSN: cfg.DSN()})
	if err != nil {
		logger.Fatal("failed to connect to database", "err", err)
	}
	defer db.Close()

	progressRepo := database.NewProgressRepository(db)
	cacheRepo := database.NewCacheRepository(db)

	// Learning progress: a missing or corrupt snapshot falls back to an
	// empty store, never a crash.
	store := itemstore.New()
	now := time.Now()
	if items, err := progressRepo.LoadSnapshot(); err != nil {
		logger.Warn("could not load progress snapshot, starting empty", "err", err)
	} else if len(items) > 0 {
		if clamped := store.Restore(items, now); clamped > 0 {
			logger.Warn("repaired invalid fields in stored progress", "items", clamped)
		}
		logger.Info("loaded progress snapshot", "items", store.Len())
	}

	if cfg.ImportFile != "" {
		result, err := importer.ReadFile(importer.DefaultConfig(cfg.ImportFile))
		if err != nil {
			logger.Error("vocabulary import failed", "file", cfg.ImportFile, "err", err)
		} else {
			added := store.Import(result.Records, now)
			logger.Info("vocabulary imported",
				"file", cfg.ImportFile, "added", added,
				"known", len(result.Records)-added, "bad_rows", len(result.Errors))
		}
	}

	audioCache := cache.New(cache.Config{Capacity: cfg.AudioCacheCapacity})
	explainCache := cache.New(cache.Config{Capacity: cfg.ExplainCacheCapacity})
	restoreCache(cacheRepo, database.CacheNamespaceAudio, audioCache, logger)
	restoreCache(cacheRepo, database.CacheNamespaceExplain, explainCache, logger)

	scheduler := srs.NewScheduler(store, srs.Config{})

	fl := &flusher{
		store:        store,
		audioCache:   audioCache,
		explainCache: explainCache,
		progressRepo: progressRepo,
		cacheRepo:    cacheRepo,
	}
	jan := janitor.New(
		janitor.Config{SweepInterval: cfg.SweepInterval, FlushInterval: cfg.FlushInterval},
		[]janitor.Sweeper{audioCache, explainCache},
		fl,
		logger,
	)
	jan.Start()
	defer jan.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	runSession(ctx, scheduler, store, audioCache, explainCache, cfg, logger)

	if err := fl.Flush(); err != nil {
		logger.Error("final flush failed", "err", err)
	} else {
		logger.Info("progress saved")
	}
}

// restoreCache loads a persisted cache namespace, dropping expired entries.
func restoreCache(repo *database.CacheRepository, namespace string, store *cache.Store, logger *log.Logger) {
	entries, err := repo.LoadEntries(namespace, time.Now())
	if err != nil {
		logger.Warn("could not load cache namespace, starting empty", "namespace", namespace, "err", err)
		return
	}
	if restored := store.Restore(entries); restored > 0 {
		logger.Info("restored cache namespace", "namespace", namespace, "entries", restored)
	}
}

// pronounceWord fetches synthesized audio through the deduplicating cache.
// The compute function is where a TTS provider would be injected; without
// one, every request fails and nothing is cached.
func pronounceWord(ctx context.Context, audioCache *cache.Store, ttl time.Duration, word string) ([]byte, error) {
	return audioCache.GetOrCompute(ctx, "audio:"+word, ttl, func(ctx context.Context) ([]byte, error) {
		return nil, fmt.Errorf("no audio provider configured")
	})
}

// explainWord fetches an explanation through the deduplicating cache. The
// compute function is where an AI provider would be injected; without one, a
// locally formatted fallback is cached instead.
func explainWord(ctx context.Context, explainCache *cache.Store, ttl time.Duration, word, meaning string) (string, error) {
	value, err := explainCache.GetOrCompute(ctx, "explain:"+word, ttl, func(ctx context.Context) ([]byte, error) {
		return []byte(fmt.Sprintf("%s: %s (no explanation provider configured)", word, meaning)), nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// runSession drives an interactive review loop on stdin until the context is
// canceled or input ends.
func runSession(ctx context.Context, scheduler *srs.Scheduler, store *itemstore.Store, audioCache, explainCache *cache.Store, cfg config.Config, logger *log.Logger) {
	if store.Len() == 0 {
		logger.Info("no vocabulary loaded; set IMPORT_FILE to seed words")
		return
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Review session. Answer y/n, 'e' for explanation, 'p' for audio, 's' for stats, 'q' to quit.")

	for ctx.Err() == nil {
		item, ok := scheduler.NextDue()
		if !ok {
			if soonest, ok := scheduler.PeekSoonest(); ok {
				fmt.Printf("Nothing due. Next word %q at %s.\n", soonest.Word, soonest.DueAt.Format(time.RFC1123))
			}
			return
		}

		fmt.Printf("\n%s", item.Word)
		if item.Pronunciation != "" {
			fmt.Printf(" [%s]", item.Pronunciation)
		}
		fmt.Printf("\n  meaning: %s\n  remembered? (y/n/e/p/s/q): ", item.Meaning)

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q":
			return
		case "s":
			snapshot := store.Snapshot()
			summary := stats.Compute(snapshot, time.Now())
			fmt.Printf("  %d items, %d reviewed, %d due, accuracy %.1f%%\n",
				summary.TotalItems, summary.Reviewed, summary.DueNow, summary.Accuracy)
			for _, tricky := range stats.ErrorProne(snapshot, 3) {
				fmt.Printf("  tricky: %s (%d/%d correct)\n", tricky.Word, tricky.CorrectCount, tricky.ReviewCount)
			}
			for _, day := range stats.DailyProgress(snapshot, 30, time.Now()) {
				fmt.Printf("  %s: %d reviews\n", day.Date, day.Count)
			}
		case "e":
			explanation, err := explainWord(ctx, explainCache, cfg.ExplainCacheTTL, item.Word, item.Meaning)
			if err != nil {
				logger.Error("explanation lookup failed", "word", item.Word, "err", err)
			} else {
				fmt.Printf("  %s\n", explanation)
			}
		case "p":
			audio, err := pronounceWord(ctx, audioCache, cfg.AudioCacheTTL, item.Word)
			if err != nil {
				logger.Error("audio lookup failed", "word", item.Word, "err", err)
			} else {
				fmt.Printf("  audio ready (%d bytes)\n", len(audio))
			}
		case "y", "n":
			correct := strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
			updated, err := scheduler.RecordResult(item.Word, correct)
			if err != nil {
				logger.Error("failed to record answer", "word", item.Word, "err", err)
				continue
			}
			fmt.Printf("  next review in %dd (ease %.2f)\n", updated.IntervalDays, updated.EaseFactor)
		}
	}
}
