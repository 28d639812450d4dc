//go:build cgo && nauty

package oracle

/*
#cgo LDFLAGS: -lnauty
#define MAXN 64
#include <stdlib.h>
#include <string.h>
#include "gtools.h"

static int gokn_canon_g6(char *in, char *out, int outLen) {
	graph g[MAXN * MAXM], cg[MAXN * MAXM];
	int lab[MAXN], ptn[MAXN], orbits[MAXN];
	static DEFAULTOPTIONS_GRAPH(options);
	statsblk stats;
	int n, m = MAXM;
	char *line;

	if (stringtograph(in, g, m, &n) == NULL) {
		return 1;
	}
	options.getcanon = TRUE;
	densenauty(g, lab, ptn, orbits, &options, &stats, m, n, cg);

	line = ntog6(cg, m, n);
	if ((int) strlen(line) >= outLen) {
		return 2;
	}
	strcpy(out, line);
	return 0;
}
*/
import "C"

import (
	"context"
	"strings"
	"unsafe"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/pkg/errors"
)

const NautyBackend = "nauty"

func init() {
	Register(NautyBackend, func(opts gokn.OracleOpts) (gokn.Oracle, error) {
		return &Nauty{opts: opts}, nil
	})
}

// Nauty links libnauty and calls densenauty once per graph.
type Nauty struct {
	opts gokn.OracleOpts
}

func (nt *Nauty) Backend() string {
	return NautyBackend
}

func (nt *Nauty) Close() error {
	return nil
}

func (nt *Nauty) Canonize(ctx context.Context, batch []string) (gokn.Family, error) {
	const outLen = 1024
	out := (*C.char)(C.malloc(outLen))
	defer C.free(unsafe.Pointer(out))

	X := graph.NewGraph(0)
	defer X.Reclaim()

	set := newCanonSet()
	for i, g6 := range batch {
		if err := ctx.Err(); err != nil {
			return nil, newError(NautyBackend, OpExit, err)
		}

		// stringtograph does not validate, so screen the input first
		if err := X.InitFromG6(g6); err != nil {
			return nil, newError(NautyBackend, OpInput, errors.Wrapf(err, "batch item %d", i))
		}

		in := C.CString(g6)
		rc := C.gokn_canon_g6(in, out, outLen)
		C.free(unsafe.Pointer(in))
		if rc != 0 {
			return nil, newError(NautyBackend, OpOutput, errors.Errorf("densenauty returned %d for %q", int(rc), g6))
		}
		set.Add(strings.TrimRight(C.GoString(out), "\n"))
	}

	return set.Family(), nil
}
