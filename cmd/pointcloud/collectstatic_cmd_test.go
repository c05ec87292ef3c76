// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectConfig(t *testing.T) (path, root string) {
	t.Helper()
	path = writeConfig(t, "secretKey: s3cr3t\nstatic:\n  root: public\n")
	return path, filepath.Join(filepath.Dir(path), "public")
}

func TestCollectStatic_CopiesComponentAssets(t *testing.T) {
	path, root := collectConfig(t)

	res := runCLI(t, "", "--config", path, "collectstatic", "--noinput")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "2 static file(s) copied")
	assert.FileExists(t, filepath.Join(root, "visualization", "js", "viewer.js"))
	assert.FileExists(t, filepath.Join(root, "visualization", "css", "viewer.css"))

	res = runCLI(t, "", "--config", path, "collectstatic", "--noinput")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "0 static file(s) copied")
	assert.Contains(t, res.stdout, "2 unmodified")
}

func TestCollectStatic_DryRunWritesNothing(t *testing.T) {
	path, root := collectConfig(t)

	res := runCLI(t, "", "--config", path, "collectstatic", "--dry-run")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Pretend: 2 static file(s) copied")
	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestCollectStatic_ClearNeedsConfirmation(t *testing.T) {
	path, root := collectConfig(t)
	require.NoError(t, os.MkdirAll(root, 0750))
	stale := filepath.Join(root, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0600))

	res := runCLI(t, "no\n", "--config", path, "collectstatic", "--clear")
	assert.Equal(t, 1, res.code)
	assert.FileExists(t, stale)

	res = runCLI(t, "yes\n", "--config", path, "collectstatic", "--clear")
	require.Equal(t, 0, res.code, res.stderr)
	assert.NoFileExists(t, stale)
	assert.Contains(t, res.stdout, "1 deleted")
}

func TestCollectStatic_RequiresStaticFiles(t *testing.T) {
	path := writeConfig(t, "secretKey: s3cr3t\ninstalledComponents: [visualization]\n")
	res := runCLI(t, "", "--config", path, "collectstatic", "--noinput")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "staticfiles")
}
