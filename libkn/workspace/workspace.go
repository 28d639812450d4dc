// Package workspace opens the store, oracle, and engine named by a config as one closable unit.
package workspace

import (
	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/config"
	"github.com/2x3systems/gokn/libkn/engine"
	"github.com/2x3systems/gokn/libkn/oracle"
	"github.com/2x3systems/gokn/libkn/store"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/prometheus/client_golang/prometheus"
)

type Workspace struct {
	Ctx    gokn.Context
	Config *config.Config
	Store  gokn.FamilyStore
	Oracle gokn.Oracle
	Engine *engine.Engine
}

// Open opens the store and oracle named by cfg and attaches both to a new gokn.Context.
func Open(cfg *config.Config, reg prometheus.Registerer) (*Workspace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ws := &Workspace{
		Ctx:    gokn.NewContext(),
		Config: cfg,
	}

	var err error
	ws.Store, err = store.Open(cfg.StoreOpts())
	if err != nil {
		ws.Close()
		return nil, errors.Wrapf(err, "opening %s store at %q", cfg.Storage.Kind, cfg.Storage.Root)
	}
	ws.Ctx.Attach(ws.Store)

	ws.Oracle, err = oracle.Open(cfg.OracleOpts())
	if err != nil {
		ws.Close()
		return nil, err
	}
	ws.Ctx.Attach(ws.Oracle)

	ws.Engine = engine.New(ws.Store, ws.Oracle, engine.Opts{
		Overwrite:  cfg.Engine.Overwrite,
		Registerer: reg,
	})

	klog.V(1).Infof("workspace: %s store %q, %s oracle", cfg.Storage.Kind, cfg.Storage.Root, ws.Oracle.Backend())
	return ws, nil
}

// Close closes every attached resource and blocks until done.
func (ws *Workspace) Close() {
	ws.Ctx.Close()
	<-ws.Ctx.Done()
}
