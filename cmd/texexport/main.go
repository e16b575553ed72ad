package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"eq-zone-loader/internal/batch"
	"eq-zone-loader/internal/pfs"
)

func main() {
	outputDir := flag.String("output", "textures", "Output directory")
	ext := flag.String("ext", ".bmp", "Only entries with this extension (\"*\" for all)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: texexport [flags] <archive.s3d>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	archive, err := pfs.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	names := archive.Filenames(*ext)
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no %s entries in archive\n", *ext)
		os.Exit(1)
	}

	n := *workers
	if n <= 0 {
		n = runtime.NumCPU()
	}

	fmt.Printf("Converting %d textures with %d workers...\n", len(names), n)
	results := batch.Run(batch.Config{
		Archive:   archive,
		OutputDir: *outputDir,
		Workers:   n,
	}, names)

	errors := 0
	for _, r := range results {
		if !r.Success {
			fmt.Fprintf(os.Stderr, "ERR %s: %s\n", r.Name, r.Error)
			errors++
		}
	}
	if errors > 0 {
		fmt.Printf("\nDone with %d error(s).\n", errors)
		os.Exit(1)
	}
	fmt.Println("\nDone. All textures converted.")
}
