package sss

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"nickandperla.net/sss/hensel"
	"nickandperla.net/sss/life"
)

type SearchConfig struct {
	// Generations the pattern must evolve unchanged in every tested rule.
	Generations int   `toml:"generations" yaml:"generations"`
	Seed        int64 `toml:"seed" yaml:"seed"`
	// The classifier stabilizes for StabCycles * Generations generations.
	StabCycles  int    `toml:"stab_cycles" yaml:"stab_cycles"`
	ResultsFile string `toml:"results_file" yaml:"results_file"`
	// UniqueSpeeds reports a speed again only with a smaller population.
	UniqueSpeeds    bool     `toml:"unique_speeds" yaml:"unique_speeds"`
	KnownSpeedFiles []string `toml:"known_speed_files" yaml:"known_speed_files"`
	ProgressEvery   int      `toml:"progress_every" yaml:"progress_every"`
	// MaxRules stops the search early. 0 searches the whole space.
	MaxRules uint64 `toml:"max_rules" yaml:"max_rules"`
}

// SearchContext is the state of one search, safe to report at any checkpoint.
type SearchContext struct {
	Seed        int64
	Index       uint64
	State       string
	Tested      uint64
	KnownSpeeds map[Speed]int
	Found       []Ship
	Outcomes    map[string]uint64
	Interrupted bool
}

func NewSearchContext(seed int64) *SearchContext {
	return &SearchContext{
		Seed:        seed,
		KnownSpeeds: make(map[Speed]int),
		Outcomes:    make(map[string]uint64),
	}
}

// LoadKnownSpeeds keeps the smallest population seen for each speed.
func (sc *SearchContext) LoadKnownSpeeds(ships []*Ship) {
	for _, s := range ships {
		sc.rememberSpeed(s.Speed(), s.MinPop)
	}
}

// LoadKnownSpeedFiles loads the ships of every sss file in paths. Missing
// files are skipped with a warning.
func (sc *SearchContext) LoadKnownSpeedFiles(paths []string, log logrus.FieldLogger) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if log != nil {
				log.WithField("path", path).Warn("Known speed file not found")
			}
			continue
		}
		doc, err := LoadDocument(path, log)
		if err != nil {
			return err
		}
		sc.LoadKnownSpeeds(doc.Ships())
	}
	return nil
}

func (sc *SearchContext) LoadKnownSpeedMap(known map[Speed]int) {
	for sp, pop := range known {
		sc.rememberSpeed(sp, pop)
	}
}

func (sc *SearchContext) rememberSpeed(sp Speed, pop int) {
	if known, ok := sc.KnownSpeeds[sp]; ok && known <= pop {
		return
	}
	sc.KnownSpeeds[sp] = pop
}

// Snapshot deep copies the context so it can be reported while the search
// keeps running.
func (sc *SearchContext) Snapshot() (*SearchContext, error) {
	out := &SearchContext{}
	opt := copier.Option{
		DeepCopy: true,
		// map keys are copied by value
		Converters: []copier.TypeConverter{{
			SrcType: Speed{},
			DstType: Speed{},
			Fn:      func(src any) (any, error) { return src, nil },
		}},
	}
	if err := copier.CopyWithOption(out, sc, opt); err != nil {
		return nil, fmt.Errorf("Failed to snapshot search context: %w", err)
	}
	return out, nil
}

// Searcher tests the rules of a rule space one at a time on a single oracle.
type Searcher struct {
	Config     *SearchConfig
	Oracle     Oracle
	Classifier *Classifier
	Metrics    *SearchMetrics
	Ledger     *Persistence
	Log        logrus.FieldLogger
	// OnShip is called for every reported ship.
	OnShip func(Ship)
}

func NewSearcher(config *SearchConfig, o Oracle, classifier *Classifier, log logrus.FieldLogger) *Searcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Searcher{Config: config, Oracle: o, Classifier: classifier, Log: log}
}

// Prepare finds the rule range in which pattern evolves as it does under
// rule for the configured number of generations.
func (s *Searcher) Prepare(pattern []life.Cell, rule hensel.Rule) (RuleRange, RuleSpace, error) {
	if len(pattern) == 0 {
		return RuleRange{}, RuleSpace{}, ErrEmptyPattern
	}
	if s.Config.Generations < 1 {
		return RuleRange{}, RuleSpace{}, fmt.Errorf("Generations to match must be at least 1, got %d", s.Config.Generations)
	}
	rr, err := ComputeRuleRange(s.Oracle, pattern, rule, s.Config.Generations, RangeMinMax)
	if err != nil {
		return RuleRange{}, RuleSpace{}, err
	}
	// the classifier config may be shared with other searchers
	cc := *s.Classifier.Config
	cc.StabilizeGenerations = s.Config.StabCycles * s.Config.Generations
	s.Classifier = NewClassifier(&cc, s.Classifier.Selector)
	return rr, NewRuleSpace(rr), nil
}

// LoadResults adds the speeds already in the results file to the known
// speeds, so repeated runs only report improvements.
func (s *Searcher) LoadResults(sc *SearchContext) error {
	if !s.Config.UniqueSpeeds || s.Config.ResultsFile == "" {
		return nil
	}
	doc, err := LoadDocument(s.Config.ResultsFile, s.Log)
	if err != nil {
		return err
	}
	sc.LoadKnownSpeeds(doc.Ships())
	return nil
}

// Run searches the rule space of pattern in rule.
func (s *Searcher) Run(ctx context.Context, pattern []life.Cell, rule hensel.Rule, sc *SearchContext) error {
	rr, rs, err := s.Prepare(pattern, rule)
	if err != nil {
		return err
	}
	if err := s.LoadResults(sc); err != nil {
		return err
	}
	s.Log.WithFields(logrus.Fields{
		"bits":  rs.Bits(),
		"range": rr.String(),
		"known": len(sc.KnownSpeeds),
	}).Infof("Matching pattern works in 2^%d rules", rs.Bits())

	if s.Config.ResultsFile != "" {
		header := SearchHeader(EncodeRLE(pattern), s.Config.Generations, rule.String(), sc.Seed)
		if err := AppendLines(s.Config.ResultsFile, "", header, "# Rule range: "+rr.String()); err != nil {
			return err
		}
	}

	var run *SearchRun
	if s.Ledger != nil {
		run = &SearchRun{
			Pattern:     EncodeRLE(pattern),
			Rule:        rule.String(),
			RuleRange:   rr.String(),
			Generations: s.Config.Generations,
			Seed:        sc.Seed,
			Bits:        rs.Bits(),
		}
		if err := s.Ledger.BeginRun(run); err != nil {
			return err
		}
	}

	err = s.RunSpace(ctx, pattern, rs, sc, run)

	if run != nil {
		run.Tested = sc.Tested
		run.Found = len(sc.Found)
		run.Interrupted = sc.Interrupted
		if ferr := s.Ledger.FinishRun(run); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

// RunSpace walks rs from sc.Seed. Cancelling ctx stops the search between
// two candidates and marks sc interrupted.
func (s *Searcher) RunSpace(ctx context.Context, pattern []life.Cell, rs RuleSpace, sc *SearchContext, run *SearchRun) error {
	s.Metrics.RuleSpace(rs.Bits())
	every := s.Config.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}
	progress := rate.Sometimes{Every: every}
	start := time.Now()

	it := rs.Iterate(sc.Seed)
	for {
		if err := ctx.Err(); err != nil {
			sc.Interrupted = true
			s.Log.WithField("index", sc.Index).Info("Search interrupted")
			return nil
		}
		if s.Config.MaxRules > 0 && it.Index() >= s.Config.MaxRules {
			return nil
		}
		r, ok := it.Next()
		if !ok {
			return nil
		}

		ship, err := s.TestRule(pattern, r, sc)
		sc.Index = it.Index()
		sc.State = it.State().String()
		if err != nil {
			s.Log.WithError(err).WithField("rule", r.String()).Warn("Skipping rule")
			continue
		}
		if ship != nil {
			if err := s.report(ship, sc, run); err != nil {
				return err
			}
		}

		progress.Do(func() {
			elapsed := time.Since(start).Seconds()
			s.Log.WithFields(logrus.Fields{
				"found":  len(sc.Found),
				"tested": sc.Tested,
				"bits":   rs.Bits(),
				"rate":   fmt.Sprintf("%.0f", float64(sc.Tested)/max(elapsed, 1e-9)),
			}).Infof("%d ships found after testing %d candidate rules out of 2^%d rule space", len(sc.Found), sc.Tested, rs.Bits())
		})
	}
}

func (s *Searcher) report(ship *Ship, sc *SearchContext, run *SearchRun) error {
	sc.Found = append(sc.Found, *ship)
	s.Metrics.ShipFound(ship.Kind())
	s.Log.WithField("ship", ship.String()).Info("Found " + ship.Speed().Describe())
	if s.Config.ResultsFile != "" {
		if err := AppendLines(s.Config.ResultsFile, ship.String()); err != nil {
			return err
		}
	}
	if run != nil {
		if err := s.Ledger.RecordShip(run.ID, ship, sc.Index); err != nil {
			return err
		}
	}
	if s.OnShip != nil {
		s.OnShip(*ship)
	}
	return nil
}

// TestRule classifies pattern under rule. It returns nil without error when
// the rule yields nothing worth reporting.
func (s *Searcher) TestRule(pattern []life.Cell, rule hensel.Rule, sc *SearchContext) (*Ship, error) {
	var phase []life.Cell
	var speed Speed
	minPop := 0

	err := lease(s.Oracle, pattern, rule.String(), func() error {
		cls := s.Classifier.Classify(s.Oracle)
		sc.Tested++
		sc.Outcomes[cls.State.String()]++
		s.Metrics.RuleTested(cls.State)
		if cls.State != Classified {
			return nil
		}

		minPop = s.Oracle.Population()
		minGen := 0
		for gen := 1; gen < cls.Speed.Period; gen++ {
			s.Oracle.Step(1)
			if pop := s.Oracle.Population(); pop < minPop {
				minPop, minGen = pop, gen
			}
		}
		s.Oracle.Step(1)

		if s.Config.UniqueSpeeds {
			if known, ok := sc.KnownSpeeds[cls.Speed]; ok && known <= minPop {
				return nil
			}
			sc.KnownSpeeds[cls.Speed] = minPop
		}
		s.Oracle.Step(minGen)
		phase = s.Oracle.LiveCells()
		speed = cls.Speed
		return nil
	})
	if err != nil || phase == nil {
		return nil, err
	}

	minimal, err := MinimalRule(s.Oracle, phase, rule, speed.Period)
	if err != nil {
		return nil, err
	}
	return &Ship{
		MinPop: minPop,
		Rule:   minimal.String(),
		DX:     speed.DX,
		DY:     speed.DY,
		Period: speed.Period,
		RLE:    EncodeRLE(phase),
	}, nil
}
