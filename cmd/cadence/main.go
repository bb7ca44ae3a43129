// Package main implements the cadence CLI for inspecting one contact's
// recommended messaging windows.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/replymint/cadence/pkg/cadence"
	"github.com/replymint/cadence/pkg/geollm"
	"github.com/replymint/cadence/pkg/histogram"
	"github.com/replymint/cadence/pkg/timezone"
)

var (
	geminiAPIKey = flag.String("gemini-key", "", "Gemini API key for location fallback (or set GEMINI_API_KEY)")
	geminiModel  = flag.String("gemini-model", "gemini-2.5-flash-lite", "Gemini model to use (or set GEMINI_MODEL)")
	gcpProject   = flag.String("gcp-project", "", "GCP project ID (or set GCP_PROJECT)")
	topK         = flag.Int("top-k", 0, "Override the number of recommended windows")
	jsonOut      = flag.Bool("json", false, "Emit the raw evaluation as JSON")
	noColor      = flag.Bool("no-color", false, "Disable colored output")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("cadence CLI v1.3.0")
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <snapshot.json | ->\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *geminiAPIKey == "" {
		*geminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if *geminiModel == "gemini-2.5-flash-lite" && os.Getenv("GEMINI_MODEL") != "" {
		*geminiModel = os.Getenv("GEMINI_MODEL")
	}
	if *gcpProject == "" {
		*gcpProject = os.Getenv("GCP_PROJECT")
	}
	if *noColor {
		color.NoColor = true
	}

	snap, err := loadSnapshot(args[0])
	if err != nil {
		logger.Error("loading snapshot", "error", err)
		os.Exit(1)
	}

	if *topK > 0 {
		cfg := snap.EffectiveConfig()
		cfg.TopKWindows = *topK
		snap.Config = &cfg
	}

	var opts []cadence.Option
	if *geminiAPIKey != "" || *gcpProject != "" {
		resolver := geollm.New(*geminiAPIKey, logger,
			geollm.WithModel(*geminiModel),
			geollm.WithGCPProject(*gcpProject))
		opts = append(opts, cadence.WithLocationResolver(resolver))
	}

	engine := cadence.New(logger, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eval, err := engine.Evaluate(ctx, snap, time.Now())
	if err != nil {
		logger.Error("evaluation failed", "contact", snap.ContactID, "error", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(eval); err != nil {
			logger.Error("encoding result", "error", err)
			os.Exit(1)
		}
		return
	}

	label := fmt.Sprintf("%s, %s confidence via %s",
		timezone.DisplayName(eval.Timezone.Timezone),
		eval.Timezone.Confidence,
		eval.Timezone.Source)
	fmt.Print(histogram.Render(eval.Result, label))
}

func loadSnapshot(path string) (cadence.Snapshot, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return cadence.Snapshot{}, fmt.Errorf("opening snapshot: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var snap cadence.Snapshot
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return cadence.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}
