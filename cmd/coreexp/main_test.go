package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-coreexp/pkg/config"
)

// recordRun captures the configuration a command would run with
type recordRun struct {
	calls int
	cfg   config.Config
}

func (r *recordRun) run(_ context.Context, cfg config.Config, _ io.Writer) error {
	r.calls++
	r.cfg = cfg
	return nil
}

func execute(t *testing.T, args ...string) (*recordRun, string) {
	t.Helper()
	t.Setenv(config.EnvConfigFile, "")

	var out bytes.Buffer
	rec := &recordRun{}
	cmd := newRootCmd(&out, rec.run)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return rec, out.String()
}

func TestRootCmd_NoArgsUsesDefaults(t *testing.T) {
	rec, _ := execute(t)

	require.Equal(t, 1, rec.calls)
	assert.Equal(t, config.Default(), rec.cfg)
}

func TestRootCmd_InputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "karate.tsv")
	require.NoError(t, os.WriteFile(input, []byte("a\tb\n"), 0644))

	rec, _ := execute(t, "-f", input)

	require.Equal(t, 1, rec.calls)
	assert.Equal(t, input, rec.cfg.Input)
	assert.Equal(t, filepath.Join(dir, "communities_karate.tsv"), rec.cfg.CommunitiesFile)
	assert.Equal(t, filepath.Join(dir, "logs"), rec.cfg.LogDir)
}

func TestRootCmd_MissingInputFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.tsv")

	rec, out := execute(t, "-f", missing)

	assert.Zero(t, rec.calls)
	assert.Contains(t, out, missing+" does not exist.")
	assert.Contains(t, out, "Usage:")
}

func TestRootCmd_OtherInvocationsShowUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"help flag", []string{"-h"}},
		{"unknown flag", []string{"-x"}},
		{"positional argument", []string{"edges.csv"}},
		{"flag without value", []string{"-f"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := execute(t, tt.args...)
			assert.Zero(t, rec.calls)
			assert.Contains(t, out, "Usage:")
		})
	}
}

func TestRunDetection(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	input := filepath.Join(dir, "edges.csv")
	require.NoError(t, os.WriteFile(input, []byte("a\tb\na\tc\nb\tc\nc\td\n"), 0644))

	cfg := config.Default()
	require.NoError(t, cfg.DerivePaths(input))

	var out bytes.Buffer
	require.NoError(t, runDetection(context.Background(), cfg, &out))

	assert.Contains(t, out.String(), "nodes classified out of 4")
	assert.FileExists(t, cfg.CommunitiesFile)
	assert.FileExists(t, filepath.Join(cfg.LogDir, "coresAtIteration-1.csv"))
}
