package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/config"
	"github.com/papapumpkin/casmproj/internal/dirs"
	"github.com/papapumpkin/casmproj/internal/engine"
	"github.com/papapumpkin/casmproj/internal/project"
	"github.com/papapumpkin/casmproj/internal/telemetry"
	"github.com/papapumpkin/casmproj/internal/ui"
)

// errNoProject is returned when no project root is configured and none is
// found above the working directory.
var errNoProject = errors.New("not inside a CASM project (no .casm directory found); use --project")

// session bundles what a project command needs.
type session struct {
	cfg     config.Config
	printer *ui.Printer
	engine  *engine.Engine
	tel     *telemetry.Emitter
	proj    *project.Project
}

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads the configuration and builds the printer.
func loadConfig() (config.Config, *ui.Printer, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	mode, err := ui.ParseColorMode(cfg.Color)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, ui.New(mode), nil
}

// newEngine builds the engine for root from the configuration and the
// optional manifest.
func newEngine(cfg config.Config, root string) (*engine.Engine, error) {
	ec := engine.Config{Command: cfg.Engine.Command, Args: cfg.Engine.Args, Verbose: cfg.Verbose}
	if cfg.Engine.Manifest != "" {
		m, err := engine.LoadManifest(cfg.Engine.Manifest)
		if err != nil {
			return nil, err
		}
		ec = ec.Merge(m)
	}
	return engine.New(ec, root), nil
}

// projectRoot returns the configured project root or searches upward from
// the working directory.
func projectRoot(cfg config.Config) (string, error) {
	if cfg.Project != "" {
		return cfg.Project, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := project.FindPath(wd)
	if err != nil {
		return "", err
	}
	if root == "" {
		return "", errNoProject
	}
	return root, nil
}

// openSession loads the configuration and opens the project.
func openSession(ctx context.Context) (*session, error) {
	cfg, printer, err := loadConfig()
	if err != nil {
		return nil, err
	}
	root, err := projectRoot(cfg)
	if err != nil {
		return nil, err
	}
	eng, err := newEngine(cfg, root)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, printer: printer, engine: eng}
	if cfg.Telemetry {
		if s.tel, err = telemetry.NewEmitter(dirs.New(root).EnumRunLog()); err != nil {
			return nil, err
		}
	}
	s.proj, err = project.Open(ctx, root, project.Options{
		Engine:    eng,
		Printer:   printer,
		Telemetry: s.tel,
		Verbose:   cfg.Verbose,
	})
	if err != nil {
		_ = s.tel.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the telemetry file.
func (s *session) Close() {
	_ = s.tel.Close()
}
