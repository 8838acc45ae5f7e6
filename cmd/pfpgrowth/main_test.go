package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMineTextFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "baskets.txt")
	output := filepath.Join(dir, "patterns.txt")
	require.NoError(t, os.WriteFile(input, []byte("a,b,c\na,b\na,c\na\nb,c\n"), 0o644))

	cmd := cliParser()
	cmd.SetArgs([]string{"mine", "-i", input, "-o", output, "-s", "2", "-p", "3", "--sep", ",", "--workers", "2"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "a,:4\nb,:3\nc,:3\nb,a,:2\nc,a,:2\nc,b,:2\n", string(data))
}

func TestMineConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "baskets.txt")
	output := filepath.Join(dir, "patterns.txt")
	cfg := filepath.Join(dir, "run.yml")
	require.NoError(t, os.WriteFile(input, []byte("a\tb\na\tb\na\n"), 0o644))
	require.NoError(t, os.WriteFile(cfg, []byte("minSupport: 1\npartitions: 2\nworkers: 1\ninput: "+input+"\n"), 0o644))

	cmd := cliParser()
	cmd.SetArgs([]string{"mine", "-c", cfg, "-o", output, "-s", "0.9"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "a\t:3\n", string(data))
}

func TestMineSQLite3(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "baskets.txt")
	output := filepath.Join(dir, "patterns.db")
	require.NoError(t, os.WriteFile(input, []byte("x\ty\nx\ty\n"), 0o644))

	cmd := cliParser()
	cmd.SetArgs([]string{"mine", "-i", input, "-o", output, "-s", "2", "-p", "1", "--workers", "1"})
	require.NoError(t, cmd.Execute())
	fi, err := os.Stat(output)
	require.NoError(t, err)
	assert.NotZero(t, fi.Size())
}

func TestImportThenMineSQLite3(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "baskets.txt")
	db := filepath.Join(dir, "baskets.db")
	output := filepath.Join(dir, "patterns.txt")
	require.NoError(t, os.WriteFile(input, []byte("a,b,c\na,b\na,c\na\nb,c\n"), 0o644))

	cmd := cliParser()
	cmd.SetArgs([]string{"import", "-i", input, "-o", db, "--sep", ",", "--batch", "2"})
	require.NoError(t, cmd.Execute())

	cmd = cliParser()
	cmd.SetArgs([]string{"mine", "-i", db, "-o", output, "-s", "2", "-p", "2", "--sep", ",", "--workers", "2"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "a,:4\nb,:3\nc,:3\nb,a,:2\nc,a,:2\nc,b,:2\n", string(data))
}

func TestImportValidate(t *testing.T) {
	assert.Error(t, (&importCmdConfig{batch: 1}).Validate())
	assert.Error(t, (&importCmdConfig{output: "x.db"}).Validate())
	assert.NoError(t, (&importCmdConfig{output: "x.db", batch: defaultImportBatch}).Validate())
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := cliParser()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "pfpgrowth v0.1.0\n", out.String())
}
