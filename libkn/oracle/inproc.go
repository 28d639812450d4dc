package oracle

import (
	"context"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/canon"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

const InprocBackend = "inproc"

func init() {
	Register(InprocBackend, func(opts gokn.OracleOpts) (gokn.Oracle, error) {
		return NewInproc(opts), nil
	})
}

// Inproc canonizes in the calling goroutine using libkn/canon.
type Inproc struct {
	opts gokn.OracleOpts
}

func NewInproc(opts gokn.OracleOpts) *Inproc {
	return &Inproc{
		opts: opts,
	}
}

func (ip *Inproc) Backend() string {
	return InprocBackend
}

func (ip *Inproc) Close() error {
	return nil
}

func (ip *Inproc) Canonize(ctx context.Context, batch []string) (gokn.Family, error) {
	if ip.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ip.opts.Timeout)
		defer cancel()
	}

	X := graph.NewGraph(0)
	defer X.Reclaim()

	set := newCanonSet()
	nodes := 0
	for i, g6 := range batch {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, newError(InprocBackend, OpExit, err)
			}
		}
		if err := X.InitFromG6(g6); err != nil {
			return nil, newError(InprocBackend, OpInput, errors.Wrapf(err, "batch item %d", i))
		}
		res := canon.Label(X)
		nodes += res.NumNodes
		set.Add(res.Cert)
	}

	klog.V(2).Infof("inproc: canonized %d graphs (%d search nodes)", len(batch), nodes)
	return set.Family(), nil
}
