// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/pointcloud/internal/config"
)

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "secretKey: s3cr3t\n")
	res := runCLI(t, "", "--config", good, "config", "validate")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "is valid")

	bad := writeConfig(t, "middleware: [security, nonsense]\n")
	res = runCLI(t, "", "--config", bad, "config", "validate")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "nonsense")

	unknownField := writeConfig(t, "secretKey: x\nbogus: 1\n")
	assert.Equal(t, 1, runCLI(t, "", "--config", unknownField, "config", "validate").code)
}

func TestConfigDump_MasksSecret(t *testing.T) {
	path := writeConfig(t, "secretKey: do-not-print\nshutdownTimeout: 15s\n")

	res := runCLI(t, "", "--config", path, "config", "dump", "--effective")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.NotContains(t, res.stdout, "do-not-print")
	assert.Contains(t, res.stdout, "***")

	res = runCLI(t, "", "--config", path, "config", "dump", "--effective", "--format", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var dumped map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &dumped))
	assert.Equal(t, "***", dumped["secretKey"])
	assert.Equal(t, true, dumped["debug"])
	assert.Equal(t, "15s", dumped["shutdownTimeout"])
	assert.NotContains(t, dumped, "SecretKey")
}

func TestConfigDump_OutputLoadsAgain(t *testing.T) {
	path := writeConfig(t, "secretKey: s3cr3t\nmiddleware: [security, csrf]\nstatic:\n  root: public\n")

	res := runCLI(t, "", "--config", path, "config", "dump", "--effective")
	require.Equal(t, 0, res.code, res.stderr)

	dumped := filepath.Join(filepath.Dir(path), "dumped.yaml")
	require.NoError(t, os.WriteFile(dumped, []byte(res.stdout), 0600))
	cfg, err := config.NewLoader(dumped, "").Load()
	require.NoError(t, err, res.stdout)

	orig, err := config.NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, "***", cfg.SecretKey)
	assert.Equal(t, orig.Middleware, cfg.Middleware)
	assert.Equal(t, orig.Static.Root, cfg.Static.Root)
	assert.Equal(t, orig.BaseDir, cfg.BaseDir)
	assert.Equal(t, orig.ShutdownTimeout, cfg.ShutdownTimeout)
}

func TestConfigDump_Flags(t *testing.T) {
	path := writeConfig(t, "secretKey: x\n")
	assert.Equal(t, 2, runCLI(t, "", "--config", path, "config", "dump").code)
	assert.Equal(t, 2, runCLI(t, "", "--config", path, "config", "dump", "--effective", "--format", "toml").code)
	assert.Equal(t, 2, runCLI(t, "", "config", "frobnicate").code)
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "site", "pointcloud.yaml")

	res := runCLI(t, "", "config", "init", target)
	require.Equal(t, 0, res.code, res.stderr)

	loaded, err := config.NewLoader(target, "").Load()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(loaded.SecretKey), 50)
	assert.Equal(t, filepath.Dir(target), loaded.BaseDir)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	res = runCLI(t, "", "config", "init", target)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = runCLI(t, "", "config", "init", "--force", target)
	assert.Equal(t, 0, res.code, res.stderr)

	again, err := config.NewLoader(target, "").Load()
	require.NoError(t, err)
	assert.NotEqual(t, loaded.SecretKey, again.SecretKey)
}
