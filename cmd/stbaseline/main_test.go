package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stflow/internal/shared/testutil"
)

func writeFixture(t *testing.T) (configPath, reportDir string) {
	t.Helper()
	dir := t.TempDir()
	root := testutil.WriteDataset(t, dir, "bikenyc", testutil.RampSeries(60, 2, 2, 2), testutil.POIGrid(1, 2, 2))
	reportDir = filepath.Join(dir, "reports")

	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`dataset:
  root: "`+filepath.ToSlash(root)+`"
  len_closeness: 3
  len_period: 1
  len_trend: 0
  t_period: 24
evaluation:
  batch_size: 4
  workers: 2
  iterations: 2
  report_dir: "`+filepath.ToSlash(reportDir)+`"
logging:
  level: error
`), 0o644))
	return configPath, reportDir
}

func TestRun(t *testing.T) {
	configPath, reportDir := writeFixture(t)

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", configPath, "-batch-log", "-date", "2024-01-02"}, &stdout))

	out := stdout.String()
	for _, predictor := range []string{"last_frame", "closeness_mean", "period_mean", "historical_mean"} {
		assert.Contains(t, out, predictor)
	}
	assert.Contains(t, out, "best: ")
	assert.Contains(t, out, "real mae")

	csvData, err := os.ReadFile(filepath.Join(reportDir, "baseline_report_2024-01-02.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	// header plus 4 predictors over 2 iterations
	assert.Len(t, lines, 1+8)

	f, err := excelize.OpenFile(filepath.Join(reportDir, "baseline_report_2024-01-02.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary")

	batchLog, err := os.ReadFile(filepath.Join(reportDir, "baseline_batches_2024-01-02.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(batchLog), "predictor")
}

func TestRun_Errors(t *testing.T) {
	configPath, _ := writeFixture(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"missing arrays", []string{"-config", configPath, "-root", t.TempDir()}},
		{"report dir under a file", []string{"-config", configPath, "-report-dir", filepath.Join(blocker, "reports")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(context.Background(), tt.args, &bytes.Buffer{}))
		})
	}
}
