package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, &out)
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("TOKEN_SECRET", "")
	return filepath.Join(t.TempDir(), "cli.db")
}

func TestCLI_AddAuthList(t *testing.T) {
	path := setupEnv(t)

	_, err := runCLI(t, "--db", path, "init")
	require.NoError(t, err)
	assert.FileExists(t, path)

	out, err := runCLI(t, "--db", path, "add", "-u", "Veli", "-e", "veli@example.com", "-p", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "added")

	out, err = runCLI(t, "--db", path, "add", "-u", "Veli", "-e", "veli@example.com", "-p", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = runCLI(t, "--db", path, "auth", "-u", "Veli", "-p", "password123")
	require.NoError(t, err)
	assert.Equal(t, "authenticated\n", out)

	_, err = runCLI(t, "--db", path, "auth", "-u", "Veli", "-p", "nope")
	assert.ErrorIs(t, err, errInvalidCredentials)

	out, err = runCLI(t, "--db", path, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Veli")
	assert.NotContains(t, out, "password123")

	out, err = runCLI(t, "--db", path, "list", "--passwords")
	require.NoError(t, err)
	assert.Contains(t, out, "password123")
}

func TestCLI_TokenFlow(t *testing.T) {
	path := setupEnv(t)
	t.Setenv("TOKEN_SECRET", "cli-secret")

	_, err := runCLI(t, "--db", path, "add", "-u", "Mehmet", "-e", "email@gmail.com", "-p", "correctpassword")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", path, "auth", "-u", "Mehmet", "-p", "correctpassword")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	token := lines[1]

	out, err = runCLI(t, "--db", path, "whoami", "-t", token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Mehmet <email@gmail.com>"), out)

	_, err = runCLI(t, "--db", path, "whoami", "-t", token+"x")
	assert.Error(t, err)
}

func TestCLI_ResetDropsUsers(t *testing.T) {
	path := setupEnv(t)

	_, err := runCLI(t, "--db", path, "add", "-u", "Ali", "-e", "ali@example.com", "-p", "123456")
	require.NoError(t, err)
	_, err = runCLI(t, "--db", path, "reset")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", path, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Ali")
}

func TestCLI_MissingRequiredFlag(t *testing.T) {
	path := setupEnv(t)
	_, err := runCLI(t, "--db", path, "add", "-u", "x")
	assert.Error(t, err)
}
