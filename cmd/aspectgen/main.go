// Command aspectgen generates aspect proxy wrappers for interface types.
//
// Typical use is a go:generate directive next to the contract:
//
//	//go:generate go run github.com/zoobzio/aspect/cmd/aspectgen -type Store,Cache
//
// For each named interface aspectgen writes a Wrapper value (or, for a
// generic interface, a function returning one), a proxy type, and one
// record type per method. Parameters marked with //aspect:ref or
// //aspect:out directives in the method's doc comment are copied in and
// written back around the call.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoobzio/aspect/internal/gen"
)

var (
	typeNames = flag.String("type", "", "comma-separated list of interface names; required")
	output    = flag.String("output", "aspect_gen.go", "output file name, relative to the package directory")
	verbose   = flag.Bool("v", false, "log progress")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: aspectgen -type T[,T...] [flags] [directory]\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *typeNames == "" {
		flag.Usage()
		os.Exit(2)
	}

	dir := "."
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	if err := run(logger, dir, strings.Split(*typeNames, ","), *output); err != nil {
		logger.Error("aspectgen failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, dir string, names []string, output string) error {
	file, err := gen.Load(dir, names)
	if err != nil {
		return err
	}
	logger.Info("loaded contracts", "package", file.Package, "contracts", len(file.Contracts))

	src, err := gen.Generate(file)
	if err != nil {
		return err
	}

	path := output
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, output)
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logger.Info("wrote wrapper", "path", path, "bytes", len(src))
	return nil
}
