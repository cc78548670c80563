package testutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "ingest")).Info("derived")

		assert.Equal(t, 1, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "ingest"))

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})
}

func TestProductionFile(t *testing.T) {
	got := NewProductionFile().
		Row("2023", "Januari", "Kakap, Merah", "10").
		CSV()

	want := "Year,Month,Species,Volume Produced (kg)\n2023,Januari,\"Kakap, Merah\",10\n"
	assert.Equal(t, want, string(got))

	tsv := NewProductionFile().Header("Tahun", "Bulan").Row("2023", "Mei").TSV()
	assert.Equal(t, "Tahun\tBulan\n2023\tMei\n", string(tsv))

	assert.True(t, bytes.Contains(SampleTSV(), []byte("\t")))
}
