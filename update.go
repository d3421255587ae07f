package sss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nickandperla.net/sss/life"
)

type CollectionFile struct {
	Kind string `toml:"kind" yaml:"kind"`
	Path string `toml:"path" yaml:"path"`
}

type UpdateConfig struct {
	Collections    []CollectionFile `toml:"collections" yaml:"collections"`
	ChangelogFile  string           `toml:"changelog_file" yaml:"changelog_file"`
	MaxGenerations int              `toml:"max_generations" yaml:"max_generations"`
	// Write replaces the collection files. Without it only the changelog is
	// written.
	Write bool `toml:"write" yaml:"write"`
}

// CollectionProcessor merges candidates into one collection file. Each
// processor owns its oracle.
type CollectionProcessor struct {
	File   CollectionFile
	Kind   Kind
	Canon  *Canonicalizer
	Write  bool
	Log    logrus.FieldLogger
	Report CollectionReport
}

type CollectionReport struct {
	Kind   Kind
	Path   string
	Result MergeResult
	// Ships stored for the new then the improved speeds.
	Ships []*Ship
	Err   error
}

func NewCollectionProcessor(file CollectionFile, maxGen int, write bool, log logrus.FieldLogger) (*CollectionProcessor, error) {
	kind, err := ParseKind(file.Kind)
	if err != nil {
		return nil, err
	}
	if kind == KindOscillator {
		return nil, fmt.Errorf("Oscillators can't form a ship collection: %s", file.Path)
	}
	log = log.WithFields(logrus.Fields{"collection": kind.String(), "path": file.Path})
	return &CollectionProcessor{
		File:   file,
		Kind:   kind,
		Canon:  NewCanonicalizer(life.NewUniverse(), maxGen, log),
		Write:  write,
		Log:    log,
		Report: CollectionReport{Kind: kind, Path: file.Path},
	}, nil
}

// Run loads the collection, merges candidates and, when anything changed,
// writes the sorted collection back in place.
func (p *CollectionProcessor) Run(ctx context.Context, candidates []Ship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := LoadDocument(p.File.Path, p.Log)
	if err != nil {
		return err
	}
	coll := NewCollection(p.Kind, p.Log)
	existing := doc.Ships()
	coll.Load(existing)
	p.Log.WithField("ships", len(existing)).Info("Loaded collection")

	r := coll.Merge(candidates, p.Canon.Canonicalize)
	p.Report.Result = r
	for _, sp := range r.New {
		p.Report.Ships = append(p.Report.Ships, coll.Ships[sp])
	}
	for _, sp := range r.Improved {
		p.Report.Ships = append(p.Report.Ships, coll.Ships[sp])
	}
	if !r.Changed() {
		return nil
	}
	p.Log.WithFields(logrus.Fields{"new": len(r.New), "improved": len(r.Improved)}).Info("Collection updated")
	if !p.Write {
		return nil
	}
	return doc.SaveAtomic(coll.Sorted())
}

// UpdateReport sums up one update over every collection.
type UpdateReport struct {
	Candidates  int
	Collections []CollectionReport
}

func (r *UpdateReport) Counts() (newSpeeds, improved int) {
	for _, c := range r.Collections {
		newSpeeds += len(c.Result.New)
		improved += len(c.Result.Improved)
	}
	return newSpeeds, improved
}

func (r *UpdateReport) Summary() string {
	n, i := r.Counts()
	return UpdateSummary(n, i, r.Candidates)
}

// Changelog is empty when no collection changed.
func (r *UpdateReport) Changelog() *Changelog {
	c := &Changelog{}
	var changes []string
	for _, coll := range r.Collections {
		if text := CollectionChanges(coll.Kind, coll.Result); text != "" {
			changes = append(changes, text)
		}
	}
	if len(changes) == 0 {
		return c
	}
	c.Comment("%s", r.Summary())
	for _, text := range changes {
		c.Raw(text)
	}
	for _, coll := range r.Collections {
		for _, s := range coll.Ships {
			c.Ship(s)
		}
	}
	return c
}

// Updater merges imported ships into every configured collection.
type Updater struct {
	Config  *UpdateConfig
	Metrics *SearchMetrics
	Log     logrus.FieldLogger
	Now     func() time.Time
}

func NewUpdater(config *UpdateConfig, log logrus.FieldLogger) *Updater {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Updater{Config: config, Log: log, Now: time.Now}
}

// Import reads and analyses the candidates in r.
func (u *Updater) Import(r io.Reader) ([]Ship, error) {
	cands, err := ImportCandidates(r, u.Log)
	if err != nil {
		return nil, err
	}
	ships := AnalyzeCandidates(life.NewUniverse(), cands, u.Config.MaxGenerations, u.Log)
	u.Log.WithFields(logrus.Fields{"imported": len(cands), "analysed": len(ships)}).Info("New ships imported")
	return ships, nil
}

// Update merges candidates into the collections concurrently. A collection
// that fails does not stop the others; their results are still written and
// reported, and the failures are joined into the returned error.
func (u *Updater) Update(ctx context.Context, candidates []Ship) (*UpdateReport, error) {
	procs := make([]*CollectionProcessor, 0, len(u.Config.Collections))
	for _, f := range u.Config.Collections {
		p, err := NewCollectionProcessor(f, u.Config.MaxGenerations, u.Config.Write, u.Log)
		if err != nil {
			return nil, err
		}
		procs = append(procs, p)
	}

	var g errgroup.Group
	for _, p := range procs {
		p := p
		g.Go(func() error {
			p.Report.Err = p.Run(ctx, candidates)
			if p.Report.Err != nil {
				p.Log.WithError(p.Report.Err).Error("Collection update failed")
			}
			return p.Report.Err
		})
	}
	waitErr := g.Wait()

	report := &UpdateReport{Candidates: len(candidates)}
	var errs []error
	for _, p := range procs {
		report.Collections = append(report.Collections, p.Report)
		u.Metrics.Merged(p.Kind, p.Report.Result)
		if p.Report.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.File.Path, p.Report.Err))
		}
	}

	if cl := report.Changelog(); !cl.Empty() && u.Config.ChangelogFile != "" {
		if err := cl.AppendTo(u.Config.ChangelogFile, u.Now()); err != nil {
			errs = append(errs, err)
		}
	}
	u.Log.Info(report.Summary())

	if waitErr != nil || len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}

// UpdateFrom imports r and merges the result.
func (u *Updater) UpdateFrom(ctx context.Context, r io.Reader) (*UpdateReport, error) {
	ships, err := u.Import(r)
	if err != nil {
		return nil, err
	}
	return u.Update(ctx, ships)
}
