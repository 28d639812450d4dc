package oracle_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/2x3systems/gokn/libkn/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mixedBatch = []string{"D??", "D_@", "D`?", "D?@"}

// k4Bridges returns every AddEdgeAcross of the tetrahedron: 30 candidates in two classes.
func k4Bridges() []string {
	K4 := graph.Tetrahedron()
	var batch []string
	for i := 0; i < K4.NumEdges(); i++ {
		for j := 0; j < K4.NumEdges(); j++ {
			if i != j {
				batch = append(batch, graph.AddEdgeAcross(K4, i, j).G6())
			}
		}
	}
	return batch
}

func checkBackend(t *testing.T, orc gokn.Oracle) {
	ctx := context.Background()

	fam, err := orc.Canonize(ctx, mixedBatch)
	require.NoError(t, err)
	require.Len(t, fam, 3)
	require.True(t, fam.IsSorted())

	fam, err = orc.Canonize(ctx, k4Bridges())
	require.NoError(t, err)
	require.Len(t, fam, 2)

	// Output is a fixed point
	again, err := orc.Canonize(ctx, fam)
	require.NoError(t, err)
	require.Equal(t, fam, again)

	fam, err = orc.Canonize(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, fam)
}

func TestInproc(t *testing.T) {
	orc, err := oracle.Open(gokn.OracleOpts{Backend: oracle.InprocBackend})
	require.NoError(t, err)
	defer orc.Close()
	require.Equal(t, oracle.InprocBackend, orc.Backend())

	checkBackend(t, orc)
}

func TestInprocBadInput(t *testing.T) {
	orc := oracle.NewInproc(gokn.OracleOpts{})

	_, err := orc.Canonize(context.Background(), []string{"C~", "D?"})
	require.ErrorIs(t, err, gokn.ErrOracle)
	require.ErrorIs(t, err, gokn.ErrBadG6)

	var oerr *oracle.Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, oracle.OpInput, oerr.Op)
	assert.Equal(t, oracle.InprocBackend, oerr.Backend)
}

func TestInprocCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := oracle.NewInproc(gokn.OracleOpts{}).Canonize(ctx, mixedBatch)
	require.ErrorIs(t, err, gokn.ErrOracle)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLabelg(t *testing.T) {
	path, err := exec.LookPath("labelg")
	if err != nil {
		t.Skip("labelg not found on PATH")
	}

	orc, err := oracle.Open(gokn.OracleOpts{
		Backend:    oracle.LabelgBackend,
		LabelgPath: path,
	})
	require.NoError(t, err)
	defer orc.Close()

	checkBackend(t, orc)
}

func TestLabelgMissingExecutable(t *testing.T) {
	orc := oracle.NewLabelg(gokn.OracleOpts{
		LabelgPath: "/nonexistent/labelg",
	})

	_, err := orc.Canonize(context.Background(), mixedBatch)
	require.ErrorIs(t, err, gokn.ErrOracle)

	var oerr *oracle.Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, oracle.OpStart, oerr.Op)
}

func TestLabelgFailedExit(t *testing.T) {
	falsePath, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not found on PATH")
	}

	orc := oracle.NewLabelg(gokn.OracleOpts{LabelgPath: falsePath})
	_, err = orc.Canonize(context.Background(), nil)

	var oerr *oracle.Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, oracle.OpExit, oerr.Op)
}

// fakeLabelg writes a shell script standing in for labelg and returns its path.
func fakeLabelg(t *testing.T, body string) string {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found on PATH")
	}
	path := filepath.Join(t.TempDir(), "labelg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestLabelgRoundTrip(t *testing.T) {
	orc := oracle.NewLabelg(gokn.OracleOpts{
		LabelgPath: fakeLabelg(t, "exec sort -u"),
	})

	fam, err := orc.Canonize(context.Background(), []string{"D??", "C~", "D??", "C~"})
	require.NoError(t, err)
	require.Equal(t, gokn.Family{"C~", "D??"}, fam)

	fam, err = orc.Canonize(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, fam)
}

func TestLabelgBadOutput(t *testing.T) {
	orc := oracle.NewLabelg(gokn.OracleOpts{
		LabelgPath: fakeLabelg(t, `cat >/dev/null; printf 'C~\n\377\n'`),
	})

	_, err := orc.Canonize(context.Background(), mixedBatch)
	require.ErrorIs(t, err, gokn.ErrOracle)

	var oerr *oracle.Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, oracle.OpOutput, oerr.Op)
}

func TestLabelgStopsReading(t *testing.T) {
	orc := oracle.NewLabelg(gokn.OracleOpts{
		LabelgPath: fakeLabelg(t, "exit 0"),
	})

	// far more than a pipe buffer holds
	batch := make([]string, 200000)
	for i := range batch {
		batch[i] = "C~"
	}
	_, err := orc.Canonize(context.Background(), batch)
	require.ErrorIs(t, err, gokn.ErrOracle)

	var oerr *oracle.Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, oracle.OpWrite, oerr.Op)
}

func TestOpen(t *testing.T) {
	require.Contains(t, oracle.Backends(), oracle.LabelgBackend)
	require.Contains(t, oracle.Backends(), oracle.InprocBackend)

	_, err := oracle.Open(gokn.OracleOpts{Backend: "bliss"})
	require.ErrorIs(t, err, gokn.ErrUnknownBackend)
}

func TestDropDupes(t *testing.T) {
	dd := oracle.NewDropDupes(8)

	first, isNew := dd.TryAdd([]byte("E?bw"))
	require.True(t, isNew)
	require.Equal(t, "E?bw", first)

	_, isNew = dd.TryAdd([]byte("E?bw"))
	require.False(t, isNew)

	// Overflows the 8 byte pool, forcing a new one
	for _, g6 := range []string{"E@ow", "E`~o", "EQzW"} {
		_, isNew = dd.TryAdd([]byte(g6))
		require.True(t, isNew)
	}
	require.Equal(t, 4, dd.Len())
	require.Equal(t, "E?bw", first)

	dd.Reset()
	require.Equal(t, 0, dd.Len())
	_, isNew = dd.TryAdd([]byte("E?bw"))
	require.True(t, isNew)
	require.Equal(t, "E?bw", first)

	require.Equal(t, []string{"C~", "D??", "D_?"}, oracle.Filter([]string{"C~", "D??", "C~", "D_?", "D??"}))
}
