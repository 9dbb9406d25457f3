// Command meshfield samples a scalar field on a triangle mesh and computes
// its surface gradient, divergence and curl.
//
// Usage:
//
//	meshfield [-v] [-o out.json] job.toml
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/meshfield/pkg/config"
	"github.com/chazu/meshfield/pkg/nodes"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, for tests.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("meshfield", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "debug logging")
	outPath := fs.String("o", "", "write the result to `file` instead of stdout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: meshfield [-v] [-o out.json] job.toml")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	job, err := config.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	level := parseLevel(job.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	nodes.SetLogger(logger)
	defer nodes.SetLogger(nil)

	result, err := NewApp(logger).Run(job)
	if err != nil {
		logger.Error("job failed", "job", job.Name, "err", err)
		return 1
	}

	// Encode first so a failed result never leaves a partial output file.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", "err", err)
		return 1
	}
	if *outPath == "" {
		if _, err := buf.WriteTo(stdout); err != nil {
			logger.Error("write result", "err", err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(*outPath, buf.Bytes(), 0o644); err != nil {
		logger.Error("write result", "path", *outPath, "err", err)
		return 1
	}
	return 0
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
