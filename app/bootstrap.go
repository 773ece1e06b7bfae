package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nullstore/snapvault/config"
	"github.com/nullstore/snapvault/engine/commands"
	"github.com/nullstore/snapvault/engine/localfs"
	"github.com/nullstore/snapvault/engine/pathfilter"
	"github.com/nullstore/snapvault/engine/store"
	"github.com/nullstore/snapvault/ui"
)

// Bootstrap loads configuration and wires the backup/list/restore
// subcommands into a root cobra command. Each phase is separate for
// testability.
func Bootstrap(ctx context.Context) (*Application, error) {
	cfg, warnings, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	for _, w := range warnings {
		ui.Warning(os.Stderr, w)
	}

	root := &cobra.Command{
		Use:           "snapvault",
		Short:         "Incremental, content-deduplicating directory backup",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newBackupCmd(cfg))
	root.AddCommand(newListCmd(cfg))
	root.AddCommand(newRestoreCmd(cfg))

	return &Application{Config: cfg, RootCmd: root}, nil
}

// loadConfig loads configuration from disk and ensures its directories
// exist.
func loadConfig() (config.Config, []string, error) {
	cfg, warnings, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, warnings, nil
}

// remoteFlags holds the options shared by every subcommand that talks to a
// remote store.
type remoteFlags struct {
	remote  string
	region  string
	profile string
}

func (f *remoteFlags) addTo(cmd *cobra.Command, cfg config.Config) {
	cmd.Flags().StringVar(&f.remote, "remote", "", "remote bucket/prefix URI (required)")
	cmd.Flags().StringVar(&f.region, "region", cfg.AWSRegion, "AWS region for the remote store")
	cmd.Flags().StringVar(&f.profile, "profile", cfg.AWSProfile, "AWS shared-config profile")
}

func (f *remoteFlags) openStore(ctx context.Context) (store.Store, store.Location, error) {
	loc, err := store.ParseLocation(f.remote)
	if err != nil {
		return nil, store.Location{}, err
	}
	st, err := store.NewS3Store(ctx, f.remote, f.region, f.profile)
	if err != nil {
		return nil, store.Location{}, err
	}
	return st, loc, nil
}

func newBackupCmd(cfg config.Config) *cobra.Command {
	var rf remoteFlags
	var source string
	var flushAfter int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Capture the current state of a directory as a new snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, loc, err := rf.openStore(cmd.Context())
			if err != nil {
				return err
			}

			filt := pathfilter.New(cfg.ExcludeGlobs...)
			cmds := commands.New(st, loc, filt)
			cmds.Progress = cmd.ErrOrStderr()

			src := localfs.NewDiskSource(source)
			if err := cmds.Backup(cmd.Context(), src, flushAfter); err != nil {
				return err
			}
			ui.Success(cmd.ErrOrStderr(), "Backup complete.")
			return nil
		},
	}

	rf.addTo(cmd, cfg)
	cmd.Flags().StringVar(&source, "source", "", "local directory to back up (required)")
	cmd.Flags().IntVar(&flushAfter, "flush-after", cfg.FlushAfter, "registrations per snapshot checkpoint")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("remote")
	return cmd
}

func newListCmd(cfg config.Config) *cobra.Command {
	var rf remoteFlags
	var glob string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print backed-up paths matching a glob",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, loc, err := rf.openStore(cmd.Context())
			if err != nil {
				return err
			}

			cmds := commands.New(st, loc, pathfilter.New(cfg.ExcludeGlobs...))
			paths, err := cmds.List(cmd.Context(), glob)
			if err != nil {
				return err
			}
			for _, p := range paths {
				ui.Path(cmd.OutOrStdout(), p)
			}
			ui.Info(cmd.ErrOrStderr(), fmt.Sprintf("%d path(s) matched.", len(paths)))
			return nil
		},
	}

	rf.addTo(cmd, cfg)
	cmd.Flags().StringVar(&glob, "glob", "*", "glob pattern to filter paths")
	cmd.MarkFlagRequired("remote")
	return cmd
}

func newRestoreCmd(cfg config.Config) *cobra.Command {
	var rf remoteFlags
	var destination string
	var glob string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Materialize the latest matching snapshot contents into a fresh directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, loc, err := rf.openStore(cmd.Context())
			if err != nil {
				return err
			}

			cmds := commands.New(st, loc, pathfilter.New(cfg.ExcludeGlobs...))
			sink := localfs.NewDiskSink(destination)

			err = cmds.Restore(cmd.Context(), sink, glob)
			if errors.Is(err, commands.ErrDestinationExists) {
				return exitError{code: 1, cause: err}
			}
			if err != nil {
				return err
			}
			ui.Success(cmd.ErrOrStderr(), "Restore complete.")
			return nil
		},
	}

	rf.addTo(cmd, cfg)
	cmd.Flags().StringVar(&destination, "destination", "", "destination directory to materialize into (required)")
	cmd.Flags().StringVar(&glob, "glob", "*", "glob pattern to filter paths")
	cmd.MarkFlagRequired("destination")
	cmd.MarkFlagRequired("remote")
	return cmd
}

// exitError carries the process exit code a command failure should produce.
// main inspects it via ExitCode.
type exitError struct {
	code  int
	cause error
}

func (e exitError) Error() string { return e.cause.Error() }
func (e exitError) Unwrap() error { return e.cause }

// ExitCode returns the process exit code err should produce: 1 for a
// restore against an existing destination, 2 for any other failure, 0 for
// nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 2
}
