package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/inklive/internal/config"
	"github.com/roach88/inklive/internal/i18n"
	"github.com/roach88/inklive/internal/live"
	"github.com/roach88/inklive/internal/project"
	"github.com/roach88/inklive/internal/store"
	"github.com/roach88/inklive/internal/wire"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Supervisor   string
	Database     string
	Watch        bool
	ReplayPacing string
	Lang         string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <project-dir>",
		Short: "Start the live compiler for a project",
		Long: `Start the live compiler for an ink project.

The project is loaded from the directory (honouring inklive.cue when
present), the compiler supervisor command is started, and every compile,
story event, and prompt is logged. With --watch, edits on disk trigger a
recompile once typing pauses. With --db, every message is journaled to
SQLite for later inspection with "inklive trace".

Settings can also come from the environment: INKLIVE_SUPERVISOR,
INKLIVE_JOURNAL, INKLIVE_TICK_INTERVAL, INKLIVE_QUIET_PERIOD,
INKLIVE_INITIAL_DELAY, INKLIVE_REPLAY_PACING, INKLIVE_LANG. Flags win.

Example:
  inklive run ./story --supervisor "inklecate-supervisor --stdio"
  inklive run ./story --supervisor ./supervisor --db ./story.db --watch -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Supervisor, "supervisor", "", "compiler supervisor command line")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "recompile when project files change on disk")
	cmd.Flags().StringVar(&opts.ReplayPacing, "replay-pacing", config.PacingAuto, "replay pacing (auto|sink)")
	cmd.Flags().StringVar(&opts.Lang, "lang", "en", "language for user-facing messages")

	return cmd
}

// resolveConfig layers flags the user set over the environment.
func resolveConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("supervisor") {
		cfg.Supervisor = opts.Supervisor
	}
	if flags.Changed("db") {
		cfg.Journal = opts.Database
	}
	if flags.Changed("replay-pacing") {
		cfg.ReplayPacing = opts.ReplayPacing
	}
	if flags.Changed("lang") {
		cfg.Lang = opts.Lang
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(cfg.Supervisor) == "" {
		return config.Config{}, errors.New("no supervisor command: use --supervisor or INKLIVE_SUPERVISOR")
	}
	return cfg, nil
}

func runLive(opts *RunOptions, dir string, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger.Info("loading project", "dir", dir)
	proj, err := LoadProject(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}
	logger.Info("project loaded", "main", proj.Manifest.Main, "files", len(proj.Workspace.Files()))

	var st *store.Store
	if cfg.Journal != "" {
		logger.Info("opening journal", "path", cfg.Journal)
		st, err = store.Open(cfg.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
	}

	// The loop is created after the manager, which needs the supervisor,
	// which needs a delivery target. deliver closes over the loop variable.
	var loop *live.Loop
	deliver := wire.InboundFunc(func(msg wire.Inbound) { loop.Deliver(msg) })

	fields := strings.Fields(cfg.Supervisor)
	var inbound wire.InboundFunc = deliver
	if st != nil {
		inbound = store.Tap(st, logger, deliver)
	}
	proc := wire.NewProcessSupervisor(fields[0], fields[1:], inbound)

	var sup wire.Supervisor = proc
	var sink live.EventSink = live.LogSink{Logger: logger}
	if st != nil {
		sup = store.NewSupervisor(proc, st, logger)
		sink = store.NewSink(sink, st, logger)
	}

	m := live.New(cfg, sup, sink,
		live.WithLogger(logger),
		live.WithLocalizer(i18n.New(cfg.Lang)),
	)
	m.SetProject(proj.Workspace)
	loop = live.NewLoop(m)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	sigCtx, stopSignals := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	if err := proc.Start(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to start supervisor", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := loop.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		err := proc.Wait()
		loop.Stop()
		if ctx.Err() != nil {
			// Killed by our own shutdown.
			return nil
		}
		if err != nil {
			return fmt.Errorf("supervisor: %w", err)
		}
		logger.Info("supervisor exited")
		return nil
	})

	if opts.Watch {
		w := project.NewWatcher(dir, proj.Workspace, proj.Manifest, loop.FileChanged)
		if err := w.Start(gctx); err != nil {
			cancel()
			_ = g.Wait()
			return WrapExitError(ExitCommandError, "failed to watch project", err)
		}
		g.Go(func() error {
			w.Wait()
			w.Stop()
			return nil
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Live compiler started for %s.\n", dir)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "live compiler error", err)
	}

	logger.Info("live compiler stopped gracefully")
	return nil
}
