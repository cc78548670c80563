package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "fishpulse/internal/errors"
	"fishpulse/internal/shared/testutil"
)

func TestIsProductionFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"produksi.csv", true},
		{"produksi.TSV", true},
		{"export.txt", true},
		{"dir/produksi_2023.xlsx", true},
		{"~$produksi.xlsx", false},
		{".hidden.csv", false},
		{"produksi.xls", false},
		{"notes.pdf", false},
		{"README", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsProductionFile(tt.name))
		})
	}
}

func TestFileValidator_ValidateInputFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		maxBytes      int64
		wantErr       bool
		errorContains string
		wantType      apierrors.ErrorType
	}{
		{
			name: "valid production file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "produksi.tsv")
				require.NoError(t, os.WriteFile(path, testutil.SampleTSV(), 0644))
				return path
			},
			maxBytes: 1 << 20,
		},
		{
			name: "non-existent file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.csv")
			},
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "directory instead of file",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr:       true,
			errorContains: "is a directory",
		},
		{
			name: "unsupported extension",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "report.pdf")
				require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
				return path
			},
			wantErr:  true,
			wantType: apierrors.ErrTypeValidation,
		},
		{
			name: "over the size limit",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "produksi.tsv")
				require.NoError(t, os.WriteFile(path, testutil.SampleTSV(), 0644))
				return path
			},
			maxBytes: 16,
			wantErr:  true,
			wantType: apierrors.ErrTypeTooLarge,
		},
		{
			name: "no limit",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "produksi.csv")
				require.NoError(t, os.WriteFile(path, testutil.SampleTSV(), 0644))
				return path
			},
			maxBytes: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewFileValidator(logger, tt.maxBytes)

			err := v.ValidateInputFile(tt.setupFunc(t))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			if tt.errorContains != "" {
				assert.Contains(t, err.Error(), tt.errorContains)
			}
			if tt.wantType != "" {
				var appErr *apierrors.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, tt.wantType, appErr.Type)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewFileValidator(logger, 0)

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "reports", "2023")
		require.NoError(t, v.ValidateOutputDirectory(dir))
		assert.DirExists(t, dir)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "write probe is removed")
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "taken")
		require.NoError(t, os.WriteFile(file, nil, 0644))
		assert.Error(t, v.ValidateOutputDirectory(file))
	})
}
