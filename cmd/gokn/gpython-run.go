package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"

	_ "github.com/2x3systems/gokn/pykn"
	_ "github.com/go-python/gpython/stdlib"
)

// runPython runs the script at pathname, or starts a REPL (after running startup, if given) when pathname is empty.
func runPython(out io.Writer, pathname, startup string) error {
	ctx := py.NewContext(py.DefaultContextOpts())

	var err error
	if len(pathname) == 0 {
		replCtx := repl.New(ctx)
		if startup != "" {
			_, err = py.RunFile(ctx, startup, scriptOpts(startup), replCtx.Module)
		}
		if err == nil {
			cli.RunREPL(replCtx)
		}
	} else {
		startTime := time.Now()
		fmt.Fprintf(out, "<<<>>>   executing '%s'   <<<>>>\n", pathname)

		_, err = py.RunFile(ctx, pathname, scriptOpts(pathname), nil)
		if err == nil {
			fmt.Fprintf(out, "<<<>>>   execution complete: %v   <<<>>>\n", time.Since(startTime))
		}
	}

	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
	}
	return err
}

// scriptOpts resolves absolute script paths from the filesystem root rather than the working directory.
func scriptOpts(pathname string) py.CompileOpts {
	var opts py.CompileOpts
	if filepath.IsAbs(pathname) {
		opts.CurDir = "/"
	}
	return opts
}
