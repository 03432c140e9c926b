package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name: "valid file",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				file := filepath.Join(dir, "report.csv")
				require.NoError(t, os.WriteFile(file, []byte("a,b\n1,2\n"), 0644))
				return file
			},
			wantErr: false,
		},
		{
			name: "non-existent file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "path is directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr:       true,
			errorContains: "is a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			path := tt.setupFunc(t)

			err := validator.ValidateFile(path)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateReportFile(t *testing.T) {
	dir := t.TempDir()
	validator := NewFileValidator(slog.Default())

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "csv accepted", file: "shipment_history.csv", wantErr: false},
		{name: "txt accepted", file: "edib2bi.txt", wantErr: false},
		{name: "tsv accepted", file: "edi940.tsv", wantErr: false},
		{name: "xlsx rejected", file: "report.xlsx", wantErr: true},
		{name: "no extension rejected", file: "report", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte("a|b\n"), 0644))

			err := validator.ValidateReportFile(path)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	validator := NewFileValidator(slog.Default())

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out", "nested")
		require.NoError(t, validator.ValidateOutputDirectory(dir))

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory", func(t *testing.T) {
		assert.NoError(t, validator.ValidateOutputDirectory(t.TempDir()))
	})
}

func TestNewFileValidatorNilLogger(t *testing.T) {
	validator := NewFileValidator(nil)
	require.NotNil(t, validator)
	assert.NotNil(t, validator.logger)
}
