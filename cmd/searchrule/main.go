package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nickandperla.net/sss"
	"nickandperla.net/sss/hensel"
	"nickandperla.net/sss/life"
)

type options struct {
	configPath  string
	rule        string
	generations int
	seed        int64
	results     string
	known       []string
	maxRules    uint64
	ledger      bool
	cpuProfile  string
	metricsAddr string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "searchrule <pattern-rle>",
		Short: "Search the rules in which a pattern evolves unchanged for ships",
		Long: "Finds every isotropic rule in which the pattern follows the same trajectory " +
			"for the given number of generations, then tests each of them for ships.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "./config.toml", "tool config file, TOML or YAML")
	f.StringVar(&opts.rule, "rule", life.DefaultRule, "rule the pattern evolves in")
	f.IntVar(&opts.generations, "gens", 1, "generations the pattern must match")
	f.Int64Var(&opts.seed, "seed", 1, "seed of the rule enumeration")
	f.StringVar(&opts.results, "results", "", "results file to append to")
	f.StringSliceVar(&opts.known, "known", nil, "sss files holding already known speeds")
	f.Uint64Var(&opts.maxRules, "max-rules", 0, "stop after this many rules, 0 for all")
	f.BoolVar(&opts.ledger, "ledger", false, "record the run in the ledger database")
	f.StringVar(&opts.cpuProfile, "cpuprofile", "", "write a CPU profile to this directory")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func run(cmd *cobra.Command, opts *options, patternRLE string) error {
	config, err := sss.LoadToolConfigIfPresent(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, config)

	log, err := sss.NewLogger(config.Log, os.Stderr)
	if err != nil {
		return err
	}

	if opts.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.cpuProfile), profile.Quiet).Stop()
	}

	pattern, err := sss.DecodeRLE(patternRLE)
	if err != nil {
		return err
	}
	rule, err := hensel.ParseRule(opts.rule)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier := sss.NewClassifier(config.Classifier, sss.NewSelector(config.Selector))
	searcher := sss.NewSearcher(config.Search, life.NewUniverse(), classifier, log)

	if config.Metrics.Addr != "" {
		searcher.Metrics = serveMetrics(config.Metrics.Addr, log)
	}

	sc := sss.NewSearchContext(config.Search.Seed)
	if err := sc.LoadKnownSpeedFiles(config.Search.KnownSpeedFiles, log); err != nil {
		return err
	}

	if opts.ledger {
		if config.Persistence == nil {
			return fmt.Errorf("No [persistence] section in %s", opts.configPath)
		}
		ledger, err := sss.NewPersistence(config.Persistence, log)
		if err != nil {
			return err
		}
		defer ledger.Shutdown()
		known, err := ledger.KnownSpeeds()
		if err != nil {
			return err
		}
		sc.LoadKnownSpeedMap(known)
		searcher.Ledger = ledger
	}

	err = searcher.Run(ctx, pattern, rule, sc)

	snap, serr := sc.Snapshot()
	if serr != nil {
		return errors.Join(err, serr)
	}
	log.WithFields(logrus.Fields{
		"tested":      snap.Tested,
		"found":       len(snap.Found),
		"index":       snap.Index,
		"state":       snap.State,
		"interrupted": snap.Interrupted,
		"outcomes":    snap.Outcomes,
	}).Info("Search finished")
	for _, ship := range snap.Found {
		fmt.Fprintln(cmd.OutOrStdout(), ship.String())
	}
	return err
}

func applyFlags(cmd *cobra.Command, opts *options, config *sss.ToolConfig) {
	f := cmd.Flags()
	if f.Changed("gens") {
		config.Search.Generations = opts.generations
	}
	if f.Changed("seed") {
		config.Search.Seed = opts.seed
	}
	if f.Changed("results") {
		config.Search.ResultsFile = opts.results
	}
	if f.Changed("known") {
		config.Search.KnownSpeedFiles = append(config.Search.KnownSpeedFiles, opts.known...)
	}
	if f.Changed("max-rules") {
		config.Search.MaxRules = opts.maxRules
	}
	if f.Changed("metrics-addr") {
		config.Metrics.Addr = opts.metricsAddr
	}
}

func serveMetrics(addr string, log logrus.FieldLogger) *sss.SearchMetrics {
	reg := prometheus.NewRegistry()
	metrics := sss.NewSearchMetrics(reg)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()
	log.WithField("addr", addr).Info("Serving metrics")
	return metrics
}
