//go:build test

package engine

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/bhasha-kb/lipiserve/pkg/config"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var typingRuns = [][]string{
	{"h", "he", "hel", "hell", "hello"},
	{"t", "th", "the"},
	{"m", "mo", "mor", "morn", "morni", "mornin", "morning"},
	{"w", "wo", "wor", "worl", "world"},
	{"n", "ni", "nig", "nigh", "night"},
	{"ನ", "ನಮ", "ನಮಸ", "ನಮಸ್ಕಾರ"},
	{"ಧ", "ಧನ", "ಧನ್ಯ", "ಧನ್ಯವಾದ"},
}

func TestMemoryLeakSuggest(t *testing.T) {
	for _, iterations := range []int{100, 500, 1000} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			runSuggestMemoryTest(t, iterations)
		})
	}
}

func runSuggestMemoryTest(t *testing.T, iterations int) {
	e := newTestEngine(t, testBigrams)

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	totalOps := 0
	for i := 0; i < iterations; i++ {
		for _, run := range typingRuns {
			for _, prefix := range run {
				_ = e.Suggestions(prefix, "kannada_phonetic", 5)
				totalOps++
			}
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	finalGoroutines := runtime.NumGoroutine()

	memDelta := int64(final.Alloc - baseline.Alloc)
	goroutineDelta := finalGoroutines - baselineGoroutines
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("iterations=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		iterations, totalOps, memDelta, memPerOp, goroutineDelta)

	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func TestMemoryLeakConcurrent(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 2, iterationsPerWorker: 250},
		{workers: 4, iterationsPerWorker: 125},
		{workers: 8, iterationsPerWorker: 60},
	}

	for _, cfg := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", cfg.workers, cfg.iterationsPerWorker), func(t *testing.T) {
			runConcurrentMemoryTest(t, cfg.workers, cfg.iterationsPerWorker)
		})
	}
}

func runConcurrentMemoryTest(t *testing.T, workers, iterationsPerWorker int) {
	e := newTestEngine(t, testBigrams)

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < iterationsPerWorker; iter++ {
				for _, run := range typingRuns {
					for _, prefix := range run {
						_ = e.Suggestions(prefix, "qwerty", 5)
					}
					_ = e.NextWordPredictions("qwerty", 5)
				}
			}
		}()
	}
	wg.Wait()

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	finalGoroutines := runtime.NumGoroutine()

	totalOps := 0
	for _, run := range typingRuns {
		totalOps += len(run) + 1
	}
	totalOps *= workers * iterationsPerWorker

	memDelta := int64(final.Alloc - baseline.Alloc)
	goroutineDelta := finalGoroutines - baselineGoroutines
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("workers=%d iter_per_worker=%d total_ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		workers, iterationsPerWorker, totalOps, memDelta, memPerOp, goroutineDelta)

	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 3 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func TestLifecycleCyclesDoNotLeak(t *testing.T) {
	dataDir := writeData(t, testBigrams)

	baselineGoroutines := runtime.NumGoroutine()

	for cycle := 0; cycle < 5; cycle++ {
		e := New(config.DefaultConfig(), dataDir, filepath.Join(t.TempDir(), "learn.db"))
		waitReady(t, e)
		e.CommitWord("hello")
		_ = e.Suggestions("hel", "qwerty", 5)
		_ = e.NextWordPredictions("qwerty", 5)
		e.Shutdown()
	}

	runtime.GC()
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
	t.Logf("cycles=5 goroutine_delta=%d", goroutineDelta)

	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}
