package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"eq-zone-loader/internal/pfs"
)

func main() {
	list := flag.Bool("list", false, "List entries instead of extracting")
	ext := flag.String("ext", "*", "Only entries with this extension (e.g. .bmp)")
	outputDir := flag.String("output", ".", "Directory to extract into")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: s3dextract [flags] <archive> [entry ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	archive, err := pfs.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	names := flag.Args()[1:]
	if len(names) == 0 {
		names = archive.Filenames(*ext)
	}

	if *list {
		for _, name := range names {
			fmt.Println(name)
		}
		fmt.Printf("\n%d entries.\n", len(names))
		return
	}

	errors := 0
	for _, name := range names {
		data, err := archive.Get(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			errors++
			continue
		}
		dst := filepath.Join(*outputDir, filepath.Base(name))
		if err := os.WriteFile(dst, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "ERR write %s: %v\n", dst, err)
			errors++
			continue
		}
		fmt.Printf("OK  %s  (%d bytes)\n", name, len(data))
	}

	if errors > 0 {
		fmt.Printf("\nDone with %d error(s).\n", errors)
		os.Exit(1)
	}
	fmt.Println("\nDone.")
}
