package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishpulse/internal/config"
	"fishpulse/internal/shared/testutil"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, opts options)
	}{
		{
			name: "defaults",
			args: []string{"-in", "produksi.tsv"},
			check: func(t *testing.T, opts options) {
				assert.Equal(t, "data/reports", opts.outDir)
				assert.Equal(t, config.DefaultTopSpecies, opts.top)
				assert.False(t, opts.xlsx)
				assert.True(t, opts.bom)
				assert.True(t, opts.filter.IsZero())
			},
		},
		{
			name: "filters",
			args: []string{"-in", "p.csv", "-years", "2021, 2022", "-months", "Januari", "-species", "Tuna,,Cakalang", "-xlsx"},
			check: func(t *testing.T, opts options) {
				assert.Equal(t, []int{2021, 2022}, opts.filter.Years)
				assert.Equal(t, []string{"Januari"}, opts.filter.Months)
				assert.Equal(t, []string{"Tuna", "Cakalang"}, opts.filter.Species)
				assert.True(t, opts.xlsx)
			},
		},
		{name: "missing input", args: nil, wantErr: "-in is required"},
		{name: "bad year", args: []string{"-in", "p.csv", "-years", "abc"}, wantErr: "invalid year"},
		{name: "top out of range", args: []string{"-in", "p.csv", "-top", "0"}, wantErr: "-top must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func writeInput(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestRun(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	outDir := t.TempDir()

	opts, err := parseFlags([]string{
		"-in", writeInput(t, "produksi.tsv", testutil.SampleTSV()),
		"-out", outDir,
		"-years", "2021",
		"-xlsx",
	})
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &stdout, logger))

	var got summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))

	assert.Equal(t, 6, got.Dataset.RecordCount)
	assert.Equal(t, 1, got.Dataset.DuplicatesDropped)
	assert.InDelta(t, 800.0, got.Report.KPIs.TotalVolumeKg, 1e-9)
	require.NotEmpty(t, got.Report.TopSpecies)
	assert.Equal(t, "Tuna", got.Report.TopSpecies[0].Species)

	csvPath := got.Exports["csv"]
	assert.Equal(t, filepath.Join(outDir, config.ExportCSVFileName), csvPath)
	content, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(content), "\ufeff")), "\n")
	assert.Equal(t, "Year,Month,Species,Volume Produced (kg)", strings.TrimSpace(lines[0]))
	assert.Len(t, lines, 3)

	assert.FileExists(t, got.Exports["xlsx"])
	assert.True(t, logs.ContainsMessage("Processing complete"))
}

func TestRun_RejectsMalformedInput(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	outDir := t.TempDir()

	input := testutil.NewProductionFile().
		Header("Year", "Month", "Species").
		Row("2021", "Januari", "Tuna").
		TSV()
	opts, err := parseFlags([]string{"-in", writeInput(t, "bad.tsv", input), "-out", outDir})
	require.NoError(t, err)

	var stdout bytes.Buffer
	err = run(context.Background(), opts, &stdout, logger)

	require.Error(t, err)
	assert.Empty(t, stdout.String())
	assert.NoFileExists(t, filepath.Join(outDir, config.ExportCSVFileName))
}

func TestRun_MissingFile(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts, err := parseFlags([]string{"-in", filepath.Join(t.TempDir(), "absent.tsv")})
	require.NoError(t, err)

	err = run(context.Background(), opts, &bytes.Buffer{}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRun_Directory(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	inDir := t.TempDir()
	outDir := t.TempDir()

	malformed := testutil.NewProductionFile().
		Header("Year", "Month", "Species").
		Row("2021", "Januari", "Tuna").
		TSV()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "produksi_2021.tsv"), testutil.SampleTSV(), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "rusak.tsv"), malformed, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "notes.pdf"), []byte("%PDF"), 0644))

	opts, err := parseFlags([]string{"-in", inDir, "-out", outDir})
	require.NoError(t, err)

	var stdout bytes.Buffer
	err = run(context.Background(), opts, &stdout, logger)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rusak.tsv")
	assert.NotContains(t, err.Error(), "notes.pdf")

	var got []summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "produksi_2021.tsv", got[0].Dataset.SourceName)
	assert.FileExists(t, filepath.Join(outDir, "produksi_2021", config.ExportCSVFileName))
	assert.NoDirExists(t, filepath.Join(outDir, "rusak"))
	assert.True(t, logs.ContainsMessage("File rejected"))
}

func TestRun_EmptyDirectory(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts, err := parseFlags([]string{"-in", t.TempDir(), "-out", t.TempDir()})
	require.NoError(t, err)

	err = run(context.Background(), opts, &bytes.Buffer{}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no production files")
}
