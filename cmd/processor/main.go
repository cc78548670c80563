package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fishpulse/internal/config"
	"fishpulse/internal/dataprocessing"
	"fishpulse/internal/exporter"
	"fishpulse/internal/files"
	"fishpulse/internal/infrastructure"
	"fishpulse/internal/validation"
	"fishpulse/pkg/contracts/domain"
)

// options holds the parsed command line
type options struct {
	inFile   string
	outDir   string
	top      int
	xlsx     bool
	bom      bool
	filter   domain.ProductionFilter
	timeout  time.Duration
	maxBytes int64
}

// summary is printed to stdout as JSON once processing succeeds
type summary struct {
	Dataset domain.DatasetInfo    `json:"dataset"`
	Report  dataprocessing.Report `json:"report"`
	Exports map[string]string     `json:"exports"`
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.WithComponent(logger, "processor")

	ctx, cancel := context.WithTimeout(infrastructure.EnsureTraceID(context.Background()), opts.timeout)
	defer cancel()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Processing failed", slog.String("input", opts.inFile))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)

	var opts options
	var years, months, species string
	fs.StringVar(&opts.inFile, "in", "", "input production file (.csv, .tsv, .txt or .xlsx), or a directory of them")
	fs.StringVar(&opts.outDir, "out", "data/reports", "output directory for the cleaned exports")
	fs.IntVar(&opts.top, "top", config.DefaultTopSpecies, "number of species in the ranking")
	fs.BoolVar(&opts.xlsx, "xlsx", false, "also write the workbook export")
	fs.BoolVar(&opts.bom, "bom", true, "prefix the CSV export with a UTF-8 byte order mark")
	fs.StringVar(&years, "years", "", "comma separated years to keep")
	fs.StringVar(&months, "months", "", "comma separated month names to keep")
	fs.StringVar(&species, "species", "", "comma separated species to keep")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "processing deadline")
	fs.Int64Var(&opts.maxBytes, "max-bytes", config.DefaultMaxUploadBytes, "largest input file accepted, 0 for no limit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.inFile == "" {
		return options{}, fmt.Errorf("-in is required")
	}
	if opts.top <= 0 || opts.top > config.MaxTopSpecies {
		return options{}, fmt.Errorf("-top must be between 1 and %d", config.MaxTopSpecies)
	}

	for _, y := range splitList(years) {
		year, err := strconv.Atoi(y)
		if err != nil {
			return options{}, fmt.Errorf("invalid year %q in -years", y)
		}
		opts.filter.Years = append(opts.filter.Years, year)
	}
	opts.filter.Months = splitList(months)
	opts.filter.Species = splitList(species)

	return opts, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// run processes opts.inFile, or every production file inside it when it is
// a directory, and prints the JSON summary to stdout
func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	validator := validation.NewFileValidator(logger, opts.maxBytes)
	if err := validator.ValidateOutputDirectory(opts.outDir); err != nil {
		return err
	}

	info, err := os.Stat(opts.inFile)
	if err == nil && info.IsDir() {
		return runBatch(ctx, opts, validator, stdout, logger)
	}

	out, err := processFile(ctx, opts, opts.inFile, opts.outDir, validator, logger)
	if err != nil {
		return err
	}
	return writeJSON(stdout, out)
}

// runBatch writes each file's exports into its own subdirectory of
// opts.outDir. One rejected file does not stop the others.
func runBatch(ctx context.Context, opts options, validator *validation.FileValidator, stdout io.Writer, logger *slog.Logger) error {
	inputs, err := files.NewDiscovery("").FindProductionFiles(opts.inFile)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no production files found in %s", opts.inFile)
	}

	logger.InfoContext(ctx, "Processing directory",
		slog.String("input_dir", opts.inFile),
		slog.Int("files", len(inputs)))

	results := make([]summary, 0, len(inputs))
	var errs []error
	for _, input := range inputs {
		stem := strings.TrimSuffix(input.Name, filepath.Ext(input.Name))
		out, err := processFile(ctx, opts, input.Path, filepath.Join(opts.outDir, stem), validator, logger)
		if err != nil {
			logger.WarnContext(ctx, "File rejected",
				slog.String("file", input.Name),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", input.Name, err))
			continue
		}
		results = append(results, out)
	}

	if err := writeJSON(stdout, results); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// processFile normalizes one input and writes the exports for the filtered
// selection into outDir
func processFile(ctx context.Context, opts options, path, outDir string, validator *validation.FileValidator, logger *slog.Logger) (summary, error) {
	started := time.Now()

	if err := validator.ValidateInputFile(path); err != nil {
		return summary{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return summary{}, fmt.Errorf("failed to read input: %w", err)
	}

	logger.InfoContext(ctx, "Processing production file",
		slog.String("input", path),
		slog.Int("bytes", len(raw)))

	dataset, err := dataprocessing.NewNormalizer(logger).Normalize(ctx, filepath.Base(path), raw)
	if err != nil {
		return summary{}, err
	}

	selection := dataset.Select(opts.filter)
	report := dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{TopSpecies: opts.top}).
		Generate(ctx, selection)

	exp := exporter.NewExporter(logger, exporter.WriteOptions{BOMPrefix: opts.bom})
	formats := []exporter.Format{exporter.FormatCSV}
	if opts.xlsx {
		formats = append(formats, exporter.FormatXLSX)
	}

	out := summary{
		Dataset: dataset.Info,
		Report:  report,
		Exports: make(map[string]string, len(formats)),
	}
	for _, format := range formats {
		exported, err := exp.ExportFile(ctx, outDir, format, selection)
		if err != nil {
			return summary{}, fmt.Errorf("failed to write %s export: %w", format, err)
		}
		out.Exports[string(format)] = exported
	}

	logger.InfoContext(ctx, "Processing complete",
		slog.String("input", path),
		slog.Int("records", dataset.Len()),
		slog.Int("selected", len(selection)),
		slog.Duration("duration", time.Since(started)))

	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
