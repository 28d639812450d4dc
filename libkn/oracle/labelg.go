package oracle

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/2x3systems/gokn/gokn"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"golang.org/x/sync/errgroup"
)

const LabelgBackend = "labelg"

func init() {
	Register(LabelgBackend, func(opts gokn.OracleOpts) (gokn.Oracle, error) {
		return NewLabelg(opts), nil
	})
}

// Labelg runs nauty's labelg executable once per batch: the batch goes to stdin one graph per line
// and the canonical forms are read back from stdout.
type Labelg struct {
	opts gokn.OracleOpts
	path string
}

func NewLabelg(opts gokn.OracleOpts) *Labelg {
	path := opts.LabelgPath
	if path == "" {
		path = "labelg"
	}
	return &Labelg{
		opts: opts,
		path: path,
	}
}

func (lg *Labelg) Backend() string {
	return LabelgBackend
}

func (lg *Labelg) Close() error {
	return nil
}

func (lg *Labelg) Canonize(ctx context.Context, batch []string) (gokn.Family, error) {
	if lg.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lg.opts.Timeout)
		defer cancel()
	}

	// -g: graph6 output, -q: no summary on stderr
	cmd := exec.CommandContext(ctx, lg.path, "-g", "-q")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, newError(LabelgBackend, OpStart, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, newError(LabelgBackend, OpStart, err)
	}
	if err = cmd.Start(); err != nil {
		return nil, newError(LabelgBackend, OpStart, err)
	}

	klog.V(2).Infof("labelg: canonizing %d graphs (pid %d)", len(batch), cmd.Process.Pid)

	// labelg may start writing before it has read all of stdin, so stdin is fed from its own goroutine
	// while stdout is drained here.
	var grp errgroup.Group
	grp.Go(func() error {
		w := bufio.NewWriter(stdin)
		for _, g6 := range batch {
			w.WriteString(g6)
			if err := w.WriteByte('\n'); err != nil {
				stdin.Close()
				return newError(LabelgBackend, OpWrite, err)
			}
		}
		if err := w.Flush(); err != nil {
			stdin.Close()
			return newError(LabelgBackend, OpWrite, err)
		}
		return stdin.Close()
	})

	set := newCanonSet()
	outErr := readCanonLines(stdout, set)

	writeErr := grp.Wait()
	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		return nil, newError(LabelgBackend, OpExit, ctx.Err())
	case waitErr != nil:
		msg := strings.TrimSpace(stderr.String())
		return nil, newError(LabelgBackend, OpExit, errors.Wrap(waitErr, msg))
	case writeErr != nil:
		return nil, writeErr
	case outErr != nil:
		return nil, newError(LabelgBackend, OpOutput, outErr)
	}

	return set.Family(), nil
}

func readCanonLines(r io.Reader, set canonSet) error {
	var err error
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || err != nil {
			continue
		}
		if !utf8.Valid(line) {
			err = errors.New("output is not valid UTF-8")
			continue
		}
		set.Add(string(line))
	}
	if scanErr := scanner.Err(); scanErr != nil {
		io.Copy(io.Discard, r)
		if err == nil {
			err = scanErr
		}
	}
	return err
}
