package cli

import (
	"context"

	"github.com/spf13/cobra"

	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/log"
)

// annotationNoStore marks commands that must not open the ledger store.
const annotationNoStore = "conti/no-store"

// session carries state shared by the root command and its subcommands.
type session struct {
	configFile string
	noProcess  bool

	cfg    *config.Config
	logger *log.Logger
	app    *App
	// owned is true when the session opened app and must close it.
	owned bool
}

// Execute runs the conti command line with args taken from os.Args.
func Execute(ctx context.Context) error {
	s := &session{}
	defer s.close()
	return newRootCommand(s).ExecuteContext(ctx)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch core.KindOf(err) {
	case core.KindNone:
		return 0
	case core.KindValidation:
		return 2
	case core.KindNotFound:
		return 3
	default:
		return 1
	}
}

func newRootCommand(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "conti",
		Short: "Personal finance ledger",
		Long: `conti records income and expenses, tracks per-category budgets,
materializes recurring transactions and prints reports.

Due recurring templates are fired once every time a command starts.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.setup,
	}

	root.PersistentFlags().StringVar(&s.configFile, "config", "", "config file (YAML, optional)")
	root.PersistentFlags().BoolVar(&s.noProcess, "no-process", false, "do not fire due recurring templates on start")

	root.AddCommand(txCmd(s))
	root.AddCommand(budgetCmd(s))
	root.AddCommand(recurringCmd(s))
	root.AddCommand(reportCmd(s))
	root.AddCommand(importCmd(s))
	root.AddCommand(exportCmd(s))
	root.AddCommand(dbCmd(s))

	return root
}

func (s *session) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if s.cfg == nil {
		LoadEnvFile()
		cfg, err := LoadConfig(s.configFile)
		if err != nil {
			return err
		}
		logger, err := SetupLogger(cfg, log.ComponentCLI)
		if err != nil {
			return err
		}
		s.cfg = cfg
		s.logger = logger
	}

	if skipsStore(cmd) {
		return nil
	}

	if s.app == nil {
		app, err := OpenApp(ctx, s.cfg, s.logger)
		if err != nil {
			return err
		}
		s.app = app
		s.owned = true
	}

	if s.cfg.ProcessOnStart && !s.noProcess {
		// A failed pass is logged; the requested command still runs.
		_, _ = s.app.ProcessOnStart(ctx)
	}
	return nil
}

func (s *session) close() {
	if s.owned && s.app != nil {
		if err := s.app.Close(); err != nil && s.logger != nil {
			s.logger.Error("Failed to close store", log.FieldError, err)
		}
	}
}

func skipsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoStore] == "true" {
			return true
		}
	}
	return false
}
