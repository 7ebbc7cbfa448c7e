package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	yaml := fmt.Sprintf(`
server:
  host: "127.0.0.1"
  port: 8080
  mode: "test"
database:
  driver: "sqlite"
  sqlite:
    path: %q
log:
  level: "error"
  format: "text"
`, filepath.Join(dir, "sites.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Tree(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "seed"})

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, defaultConfigPath, flag.DefValue)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestSeedCmd_ImportsFile(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "seed", "--config", cfgPath, "--file", filepath.Join("testdata", "sites.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 sites")

	_, err = execute(t, "seed", "--config", cfgPath, "--file", filepath.Join("testdata", "sites.json"))
	require.Error(t, err, "second import without --replace must fail on duplicates")

	out, err = execute(t, "seed", "-c", cfgPath, "-f", filepath.Join("testdata", "sites.json"), "--replace")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 sites")
}

func TestSeedCmd_Errors(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing file flag", []string{"seed", "--config", cfgPath}, `required flag(s) "file" not set`},
		{"file not found", []string{"seed", "--config", cfgPath, "--file", "testdata/missing.json"}, "open sites file"},
		{"config not found", []string{"seed", "--config", "nope.yaml", "--file", "testdata/sites.json"}, "failed to load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServeCmd_ConfigError(t *testing.T) {
	for _, args := range [][]string{
		{"serve", "--config", "nope.yaml"},
		{"--config", "nope.yaml"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "serve", "extra")
	assert.Error(t, err)
}
