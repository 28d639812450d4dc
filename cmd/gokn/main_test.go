package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/config"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(nil)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildAndShow(t *testing.T) {
	dir := t.TempDir()
	famDir := filepath.Join(dir, "families")
	common := []string{"--oracle", "inproc", "--root", famDir}

	out, err := execute(t, "", append([]string{"build", "4", "0"}, common...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "(g=3,d=0) seeded")
	require.Contains(t, lines[1], "(g=4,d=0) computed")
	require.Contains(t, lines[1], "2 classes")

	out, err = execute(t, "", append([]string{"compute", "4", "0"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "exists")

	out, err = execute(t, "", append([]string{"show", "4", "0"}, common...)...)
	require.NoError(t, err)
	require.Len(t, strings.Fields(out), 2)

	out, err = execute(t, "", append([]string{"show", "3", "0", "--expr"}, common...)...)
	require.NoError(t, err)
	require.Equal(t, "\"4: 0-1 0-2 1-2 0-3 1-3 2-3\"\n", out)

	out, err = execute(t, "", append([]string{"show"}, common...)...)
	require.NoError(t, err)
	require.Equal(t, "(g=3,d=0)\t1\n(g=4,d=0)\t2\n", out)

	exportDir := filepath.Join(dir, "export")
	out, err = execute(t, "", append([]string{"export", exportDir}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, filepath.Join(exportDir, "gra4_0.g6"))
	_, err = os.Stat(filepath.Join(exportDir, "gra3_0.g6"))
	require.NoError(t, err)

	_, err = execute(t, "", append([]string{"show", "9", "0"}, common...)...)
	require.ErrorIs(t, err, gokn.ErrFamilyNotFound)
}

func TestComputeMissingPrerequisite(t *testing.T) {
	_, err := execute(t, "", "compute", "5", "0", "--oracle", "inproc", "--root", t.TempDir())
	require.ErrorIs(t, err, gokn.ErrFamilyNotFound)
}

func TestPlan(t *testing.T) {
	out, err := execute(t, "", "plan", "5", "1", "--oracle", "inproc")
	require.NoError(t, err)
	require.Equal(t, "(g=3,d=0)\n(g=4,d=0)\n(g=5,d=0)\n(g=5,d=1)\n", out)

	_, err = execute(t, "", "plan", "x", "1", "--oracle", "inproc")
	require.ErrorIs(t, err, gokn.ErrBadParamKey)

	_, err = execute(t, "", "plan", "2", "0", "--oracle", "inproc")
	require.ErrorIs(t, err, gokn.ErrBadParamKey)
}

func TestCanon(t *testing.T) {
	stdin := ">>graph6<<" + strings.Join([]string{
		graph.MustParseGraph("0-1-2-0 3-4-5-3 0-3 1-4 2-5").G6(),
		graph.MustParseGraph("0-3 0-4 0-5 1-3 1-4 1-5 2-3 2-4 2-5").G6(),
		"",
		graph.MustParseGraph("5-1-3-5 0-4-2-0 5-0 1-4 3-2").G6(),
	}, "\n")
	out, err := execute(t, stdin, "canon", "--oracle", "inproc", "--root", t.TempDir())
	require.NoError(t, err)
	require.Len(t, strings.Fields(out), 2)

	_, err = execute(t, "", "canon", "D?", "--oracle", "inproc", "--root", t.TempDir())
	require.ErrorIs(t, err, gokn.ErrOracle)
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gokn.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("oracle:\n  backend: inproc\nstorage:\n  kind: badger\n"), 0o644))

	out, err := execute(t, "", "config", "--config", cfgPath, "--root", dir)
	require.NoError(t, err)

	echoed := filepath.Join(dir, "echo.yaml")
	require.NoError(t, os.WriteFile(echoed, []byte(out), 0o644))
	cfg, err := config.Load(echoed)
	require.NoError(t, err)
	require.Equal(t, "badger", cfg.Storage.Kind)
	require.Equal(t, dir, cfg.Storage.Root)
	require.Equal(t, "inproc", cfg.Oracle.Backend)

	_, err = execute(t, "", "config", "--oracle", "bliss")
	require.ErrorIs(t, err, gokn.ErrUnknownBackend)
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	famDir := filepath.Join(dir, "families")
	cfgPath := filepath.Join(dir, "gokn.yaml")
	cfg := fmt.Sprintf("storage:\n  root: %q\noracle:\n  backend: inproc\n", famDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	script := filepath.Join(dir, "build.py")
	src := fmt.Sprintf("import _gokn\nws = _gokn.OpenWorkspace(%q)\nassert ws.Build(4, 0)[-1] == (\"computed\", 2)\n", cfgPath)
	require.NoError(t, os.WriteFile(script, []byte(src), 0o644))

	out, err := execute(t, "", "run", script)
	require.NoError(t, err)
	require.Contains(t, out, "execution complete")
	_, err = os.Stat(filepath.Join(famDir, "gra4_0.g6"))
	require.NoError(t, err)

	failing := filepath.Join(dir, "fail.py")
	require.NoError(t, os.WriteFile(failing, []byte("import _gokn\nassert False\n"), 0o644))
	_, err = execute(t, "", "run", failing)
	require.Error(t, err)
}
