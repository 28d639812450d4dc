package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/2x3systems/gokn/gokn"
	"github.com/2x3systems/gokn/libkn/config"
	"github.com/2x3systems/gokn/libkn/engine"
	"github.com/2x3systems/gokn/libkn/graph"
	"github.com/2x3systems/gokn/libkn/store"
	"github.com/2x3systems/gokn/libkn/workspace"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	fset       *flag.FlagSet
	configPath string
	storeKind  string
	storeRoot  string
	backend    string
	labelgPath string
	overwrite  bool
	metrics    string

	cfg *config.Config
}

func newRootCmd(fset *flag.FlagSet) *cobra.Command {
	a := &app{fset: fset}

	root := &cobra.Command{
		Use:           "gokn",
		Short:         "Enumerate graph families by genus and defect, up to isomorphism",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&a.storeKind, "store", "", "family store kind (text or badger)")
	pf.StringVar(&a.storeRoot, "root", "", "family store directory")
	pf.StringVar(&a.backend, "oracle", "", "canonical form backend (labelg, inproc, nauty)")
	pf.StringVar(&a.labelgPath, "labelg", "", "labelg executable")
	pf.BoolVar(&a.overwrite, "overwrite", false, "recompute families that already exist")
	pf.StringVar(&a.metrics, "metrics-addr", "", "serve prometheus metrics on this address")
	if fset != nil {
		pf.AddGoFlagSet(fset)
	}

	root.AddCommand(
		a.computeCmd(),
		a.buildCmd(),
		a.planCmd(),
		a.showCmd(),
		a.canonCmd(),
		a.exportCmd(),
		a.runCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Storage.Kind = a.storeKind
	}
	if flags.Changed("root") {
		cfg.Storage.Root = a.storeRoot
	}
	if flags.Changed("oracle") {
		cfg.Oracle.Backend = a.backend
	}
	if flags.Changed("labelg") {
		cfg.Oracle.LabelgPath = a.labelgPath
	}
	if flags.Changed("overwrite") {
		cfg.Engine.Overwrite = a.overwrite
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = a.metrics
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	// -v on the command line wins over log.verbosity
	if a.fset != nil && !flags.Changed("v") && cfg.Log.Verbosity > 0 {
		if err = a.fset.Set("v", strconv.Itoa(cfg.Log.Verbosity)); err != nil {
			klog.Warningf("setting verbosity: %v", err)
		}
	}

	a.cfg = cfg
	return nil
}

// withWorkspace opens a workspace for the duration of fn, serving metrics alongside it if configured.
func (a *app) withWorkspace(fn func(ws *workspace.Workspace) error) error {
	reg := prometheus.NewRegistry()
	ws, err := workspace.Open(a.cfg, reg)
	if err != nil {
		return err
	}
	defer ws.Close()

	if a.cfg.Metrics.Addr != "" {
		stop := serveMetrics(a.cfg.Metrics.Addr, reg)
		defer stop()
	}
	return fn(ws)
}

func parseKey(args []string) (gokn.ParamKey, error) {
	var key gokn.ParamKey
	g, err := strconv.Atoi(args[0])
	if err != nil {
		return key, errors.Wrapf(gokn.ErrBadParamKey, "genus %q", args[0])
	}
	d, err := strconv.Atoi(args[1])
	if err != nil {
		return key, errors.Wrapf(gokn.ErrBadParamKey, "defect %q", args[1])
	}
	key.G, key.D = g, d
	if key.G < gokn.MinGenus || key.G > gokn.MaxGenus || key.D < 0 {
		return key, errors.Wrapf(gokn.ErrBadParamKey, "%v out of range", key)
	}
	return key, nil
}

func printReports(out io.Writer, reports []engine.Report) {
	for _, rep := range reports {
		fmt.Fprintln(out, rep.String())
	}
}

func (a *app) computeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute <g> <d>",
		Short: "Compute one family from its already persisted prerequisites",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}
			return a.withWorkspace(func(ws *workspace.Workspace) error {
				var rep engine.Report
				if key == gokn.SeedKey {
					rep, err = ws.Engine.Seed(cmd.Context())
				} else {
					rep, err = ws.Engine.ComputeFamily(cmd.Context(), key)
				}
				printReports(cmd.OutOrStdout(), []engine.Report{rep})
				return err
			})
		},
	}
}

func (a *app) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <g> <d>",
		Short: "Compute a family along with every family it depends on",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}
			return a.withWorkspace(func(ws *workspace.Workspace) error {
				reports, err := ws.Engine.Build(cmd.Context(), key)
				printReports(cmd.OutOrStdout(), reports)
				return err
			})
		},
	}
}

func (a *app) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <g> <d>",
		Short: "List the families build would visit, in order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}
			for _, k := range engine.Plan(key) {
				fmt.Fprintln(cmd.OutOrStdout(), k.String())
			}
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var asExpr bool
	cmd := &cobra.Command{
		Use:   "show [<g> <d>]",
		Short: "Print a persisted family, or list the persisted keys",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("show takes either no args or <g> <d>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withWorkspace(func(ws *workspace.Workspace) error {
				if len(args) == 0 {
					keys, err := ws.Store.Keys()
					if err != nil {
						return err
					}
					for _, key := range keys {
						fam, err := ws.Store.Load(key)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%v\t%d\n", key, len(fam))
					}
					return nil
				}

				key, err := parseKey(args)
				if err != nil {
					return err
				}
				fam, err := ws.Store.Load(key)
				if err != nil {
					return err
				}
				for _, g6 := range fam {
					if !asExpr {
						fmt.Fprintln(out, g6)
						continue
					}
					X, err := graph.DecodeG6(g6)
					if err != nil {
						return err
					}
					X.WriteAsGraphExprStr(out)
					fmt.Fprintln(out)
					X.Reclaim()
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asExpr, "expr", false, "print graph expressions instead of graph6")
	return cmd
}

func (a *app) canonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canon [graph6...]",
		Short: "Reduce graph6 strings (args or stdin lines) to canonical class representatives",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := args
			if len(batch) == 0 {
				fam, err := store.ReadFamilyNoHeader(cmd.InOrStdin())
				if err != nil {
					return err
				}
				batch = fam
			}
			return a.withWorkspace(func(ws *workspace.Workspace) error {
				fam, err := ws.Oracle.Canonize(cmd.Context(), batch)
				if err != nil {
					return err
				}
				for _, g6 := range fam {
					fmt.Fprintln(cmd.OutOrStdout(), g6)
				}
				return nil
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every persisted family as graph6 text files under dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(func(ws *workspace.Workspace) error {
				dst, err := store.OpenTextStore(gokn.StoreOpts{
					Kind: store.TextKind,
					Root: args[0],
				})
				if err != nil {
					return err
				}
				defer dst.Close()

				keys, err := store.CopyAll(dst, ws.Store)
				if err != nil {
					return err
				}
				for _, key := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), dst.PathFor(key))
				}
				return nil
			})
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	var startup string
	cmd := &cobra.Command{
		Use:   "run [script.py]",
		Short: "Run a python script against the _gokn module, or start a REPL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathname := ""
			if len(args) > 0 {
				pathname = args[0]
			}
			return runPython(cmd.OutOrStdout(), pathname, startup)
		},
	}
	cmd.Flags().StringVar(&startup, "startup", "", "script run before the REPL starts")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cfg.WriteYAML(cmd.OutOrStdout())
		},
	}
}
