package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Phreno/lazymvn-sub002/internal/cache"
	"github.com/Phreno/lazymvn-sub002/internal/command"
	"github.com/Phreno/lazymvn-sub002/internal/config"
	"github.com/Phreno/lazymvn-sub002/internal/ctxlog"
	"github.com/Phreno/lazymvn-sub002/internal/executor"
	"github.com/Phreno/lazymvn-sub002/internal/orchestrator"
	"github.com/Phreno/lazymvn-sub002/internal/project"
	"github.com/Phreno/lazymvn-sub002/internal/ui"
)

// session is an opened project plus the context carrying its logger.
type session struct {
	ctx   context.Context
	orch  *orchestrator.Orchestrator
	close func()
}

func projectRoot(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = cwd
	}
	return project.FindRoot(dir)
}

// stateDir holds the session log and the persisted module state.
func stateDir(cfg config.Config) (string, error) {
	if cfg.OverrideDir != "" {
		return filepath.Dir(filepath.Clean(cfg.OverrideDir)), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "lazymvn"), nil
}

// openSession loads the project around --dir. When tui is set the
// diagnostics go to a log file so they do not tear the dashboard.
func openSession(cmd *cobra.Command, tui bool) (*session, error) {
	root, err := projectRoot(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	dir, err := stateDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("state directory: %w", err)
	}

	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logPath, _ := cmd.Flags().GetString("log-file")
	if logPath == "" && tui {
		logPath = filepath.Join(dir, "lazymvn.log")
	}

	var w io.Writer = os.Stderr
	closeLog := func() {}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	}
	ctx := ctxlog.WithLogger(cmd.Context(), ctxlog.New(w, level))

	orch, err := orchestrator.New(ctx, orchestrator.Options{
		Root:   root,
		Config: cfg,
		Store:  cache.NewFile(filepath.Join(dir, "state.yaml")),
	})
	if err != nil {
		closeLog()
		return nil, err
	}
	return &session{ctx: ctx, orch: orch, close: closeLog}, nil
}

// interactive reports whether stdin and stdout are both terminals.
func interactive() bool {
	tty := func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return tty(os.Stdin) && tty(os.Stdout)
}

// chooseModule returns --module, or asks when --pick is set. fallback is
// used when neither is given.
func chooseModule(cmd *cobra.Command, s *session, fallback string) (string, error) {
	module, _ := cmd.Flags().GetString("module")
	if module != "" {
		return module, nil
	}
	if pick, _ := cmd.Flags().GetBool("pick"); pick && interactive() {
		options := []ui.SelectOption{{Label: "(root)", Value: command.RootModule, Description: s.orch.Project().Name}}
		for _, m := range s.orch.Project().Modules {
			options = append(options, ui.SelectOption{Label: m, Value: m})
		}
		choice, ok, err := ui.RunSelectPrompt("Select a module", options)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("no module selected")
		}
		return choice.Value, nil
	}
	if fallback == "" {
		fallback = command.RootModule
	}
	return fallback, nil
}

func addModuleFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("module", "m", "", "Module path relative to the project root")
	cmd.Flags().Bool("pick", false, "Choose the module interactively")
}

func addAlsoMakeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("also-make", false, "Also build the modules the target depends on (-am)")
	cmd.Flags().Bool("also-make-dependents", false, "Also build the modules that depend on the target (-amd)")
}

func alsoMake(cmd *cobra.Command) command.AlsoMake {
	up, _ := cmd.Flags().GetBool("also-make")
	down, _ := cmd.Flags().GetBool("also-make-dependents")
	switch {
	case up && down:
		return command.AlsoMakeBoth
	case up:
		return command.AlsoMakeUpstream
	case down:
		return command.AlsoMakeDownstream
	default:
		return command.AlsoMakeNone
	}
}

// supervise shows a started process until it ends: the dashboard on a
// terminal, plain scrolling output otherwise. The returned error carries
// a non-zero exit status.
func supervise(cmd *cobra.Command, s *session, sess *ui.Session) error {
	noTUI, _ := cmd.Flags().GetBool("no-tui")
	if noTUI || !interactive() {
		final := ui.Follow(s.ctx, sess.Handle(), os.Stdout, os.Stderr)
		return outcome(final)
	}

	if err := ui.RunDashboard(s.ctx, s.orch.Supervisor(), []*ui.Session{sess}); err != nil {
		return err
	}
	switch sess.Status() {
	case ui.StatusError:
		if code := sess.ExitCode(); code != 0 {
			return &exitError{code: code}
		}
		return fmt.Errorf("%s failed", sess.Name)
	case ui.StatusStopped:
		return &exitError{code: 130}
	}
	return nil
}

func outcome(final executor.Message) error {
	switch final.Kind {
	case executor.KindExit:
		if final.ExitCode != 0 {
			return &exitError{code: final.ExitCode}
		}
		return nil
	case executor.KindKilled:
		return &exitError{code: 130}
	default:
		return fmt.Errorf("%s", final.String())
	}
}
