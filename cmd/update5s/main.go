package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nickandperla.net/sss"
)

type options struct {
	configPath string
	changelog  string
	dryRun     bool
	watch      bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "update5s <candidates>",
		Short: "Merge candidate ships into the ship collections",
		Long: "Reads sss records and RLE blocks from the candidates file (\"-\" for stdin), " +
			"keeps the smallest ship for every speed and appends what changed to the changelog.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "./config.toml", "tool config file, TOML or YAML")
	f.StringVar(&opts.changelog, "changelog", "", "changelog file to append to")
	f.BoolVar(&opts.dryRun, "dry-run", false, "only write the changelog")
	f.BoolVar(&opts.watch, "watch", false, "update again whenever the candidates file changes")
	return cmd
}

func run(cmd *cobra.Command, opts *options, inbox string) error {
	config, err := sss.LoadToolConfigIfPresent(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("changelog") {
		config.Update.ChangelogFile = opts.changelog
	}
	if opts.dryRun {
		config.Update.Write = false
	}

	log, err := sss.NewLogger(config.Log, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updater := sss.NewUpdater(config.Update, log)

	if inbox == "-" {
		return update(ctx, updater, os.Stdin, log)
	}
	if err := updateFile(ctx, updater, inbox, log); err != nil && !opts.watch {
		return err
	}
	if !opts.watch {
		return nil
	}

	w, err := sss.NewInboxWatcher(inbox, sss.DefaultInboxDebounce, log)
	if err != nil {
		return err
	}
	return w.Run(ctx, func(path string) {
		if err := updateFile(ctx, updater, path, log); err != nil {
			log.WithError(err).Error("Update failed")
		}
	})
}

func updateFile(ctx context.Context, updater *sss.Updater, path string, log logrus.FieldLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return update(ctx, updater, f, log)
}

func update(ctx context.Context, updater *sss.Updater, r io.Reader, log logrus.FieldLogger) error {
	report, err := updater.UpdateFrom(ctx, r)
	if report != nil {
		for _, c := range report.Collections {
			log.WithFields(logrus.Fields{
				"collection": c.Kind.String(),
				"new":        len(c.Result.New),
				"improved":   len(c.Result.Improved),
			}).Info("Collection merged")
		}
	}
	return err
}
