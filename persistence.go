package sss

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PersistenceConfig struct {
	Name          string   `toml:"name" yaml:"name"`
	Path          string   `toml:"path" yaml:"path"`
	SQLitePragmas []string `toml:"sqlite_pragmas" yaml:"sqlite_pragmas"`
	SQLiteOptions []string `toml:"sqlite_options" yaml:"sqlite_options"`
}

// SearchRun is one pass over a rule space.
type SearchRun struct {
	ID          string `gorm:"primaryKey"`
	Pattern     string
	Rule        string
	RuleRange   string
	Generations int
	Seed        int64
	Bits        int
	Tested      uint64
	Found       int
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  *time.Time
	Ships       []FoundShip `gorm:"foreignKey:RunID"`
}

// FoundShip is a result reported by a search run.
type FoundShip struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	MinPop    int
	Rule      string
	DX        int `gorm:"index:idx_speed"`
	DY        int `gorm:"index:idx_speed"`
	Period    int `gorm:"index:idx_speed"`
	RLE       string
	RuleIndex uint64
	CreatedAt time.Time
}

func (f *FoundShip) Ship() *Ship {
	return &Ship{MinPop: f.MinPop, Rule: f.Rule, DX: f.DX, DY: f.DY, Period: f.Period, RLE: f.RLE}
}

// Persistence is the search ledger.
type Persistence struct {
	Config *PersistenceConfig
	DB     *gorm.DB
	Log    logrus.FieldLogger
}

func NewPersistence(config *PersistenceConfig, log logrus.FieldLogger) (*Persistence, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if len(config.Path) == 0 {
		return nil, fmt.Errorf("Path to database must be defined")
	}

	if len(config.Name) == 0 {
		return nil, fmt.Errorf("Name of database must be defined")
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	params := make([]string, 0, len(config.SQLitePragmas)+len(config.SQLiteOptions))
	for _, prag := range config.SQLitePragmas {
		params = append(params, fmt.Sprintf("_pragma=%s", prag))
	}
	params = append(params, config.SQLiteOptions...)

	var path strings.Builder
	path.WriteString(filepath.Join(config.Path, config.Name))
	if len(params) > 0 {
		path.WriteRune('?')
		path.WriteString(strings.Join(params, "&"))
	}

	db, err := gorm.Open(sqlite.Open(path.String()), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})

	if err != nil {
		return nil, fmt.Errorf("%w: Failed to open ledger %s: %v", ErrPersistenceFailure, path.String(), err)
	}

	db = db.Session(&gorm.Session{PrepareStmt: true, CreateBatchSize: 1000})

	p := &Persistence{Config: config, DB: db, Log: log}
	if err = p.initialize(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Persistence) initialize() error {
	if err := p.DB.AutoMigrate(
		&SearchRun{},
		&FoundShip{},
	); err != nil {
		return fmt.Errorf("%w: Failed to migrate ledger: %v", ErrPersistenceFailure, err)
	}

	return nil
}

func (p *Persistence) Shutdown() {
	if sqldb, err := p.DB.DB(); err != nil {
		p.Log.WithError(err).Error("Failed to retrieve raw DB")
	} else {
		sqldb.Close()
	}
}

// BeginRun assigns the run an id and stores it.
func (p *Persistence) BeginRun(run *SearchRun) error {
	if run == nil {
		return fmt.Errorf("SearchRun cannot be nil")
	}
	run.ID = uuid.NewString()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if result := p.DB.Create(run); result.Error != nil {
		return fmt.Errorf("%w: Failed to call gorm.Create(): %v", ErrPersistenceFailure, result.Error)
	}
	return nil
}

func (p *Persistence) RecordShip(runID string, ship *Ship, ruleIndex uint64) error {
	row := &FoundShip{
		RunID:     runID,
		MinPop:    ship.MinPop,
		Rule:      ship.Rule,
		DX:        ship.DX,
		DY:        ship.DY,
		Period:    ship.Period,
		RLE:       ship.RLE,
		RuleIndex: ruleIndex,
	}
	if result := p.DB.Create(row); result.Error != nil {
		return fmt.Errorf("%w: Failed to record ship: %v", ErrPersistenceFailure, result.Error)
	}
	return nil
}

// FinishRun stores the final counters of run.
func (p *Persistence) FinishRun(run *SearchRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	result := p.DB.Model(run).Select("Tested", "Found", "Interrupted", "FinishedAt").Updates(run)
	if result.Error != nil {
		return fmt.Errorf("%w: Failed to finish run %s: %v", ErrPersistenceFailure, run.ID, result.Error)
	}
	return nil
}

// LoadRun returns a run with its ships.
func (p *Persistence) LoadRun(id string) (*SearchRun, error) {
	run := &SearchRun{}
	if result := p.DB.Preload("Ships").First(run, "id = ?", id); result.Error != nil {
		return nil, fmt.Errorf("%w: Failed to load run %s: %v", ErrPersistenceFailure, id, result.Error)
	}
	return run, nil
}

// KnownSpeeds is the smallest population recorded for every speed.
func (p *Persistence) KnownSpeeds() (map[Speed]int, error) {
	var rows []struct {
		DX, DY, Period int
		MinPop         int
	}
	result := p.DB.Model(&FoundShip{}).
		Select("dx, dy, period, MIN(min_pop) AS min_pop").
		Group("dx, dy, period").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: Failed to query known speeds: %v", ErrPersistenceFailure, result.Error)
	}
	out := make(map[Speed]int, len(rows))
	for _, r := range rows {
		out[Speed{DX: r.DX, DY: r.DY, Period: r.Period}] = r.MinPop
	}
	return out, nil
}
