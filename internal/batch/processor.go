// Package batch converts archive textures to WebP with a worker pool.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"eq-zone-loader/internal/pfs"
	"eq-zone-loader/internal/texture"
)

// Config holds the shared resources for a batch run.
type Config struct {
	Archive   *pfs.Archive
	OutputDir string
	Workers   int
}

// Result holds the outcome of converting one entry.
type Result struct {
	Name    string
	Success bool
	Error   string
}

// Run converts the named archive entries using a worker pool.
func Run(cfg Config, names []string) []Result {
	total := len(names)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f textures/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	nameChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range nameChan {
				results[idx] = convertEntry(cfg, names[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range names {
		nameChan <- i
	}
	close(nameChan)

	wg.Wait()
	close(done)

	return results
}

func convertEntry(cfg Config, name string) Result {
	raw, err := cfg.Archive.Get(name)
	if err != nil {
		return Result{Name: name, Error: err.Error()}
	}

	img, err := texture.Decode(raw)
	if err != nil {
		return Result{Name: name, Error: err.Error()}
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(cfg.OutputDir, base+".webp")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return Result{Name: name, Error: err.Error()}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return Result{Name: name, Error: err.Error()}
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return Result{Name: name, Error: fmt.Sprintf("WebP encode: %v", err)}
	}

	return Result{Name: name, Success: true}
}
