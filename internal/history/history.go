// Package history keeps a log of finished matches in a SQL database
// through gorm.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yookoala/battleship/game"
)

// Drivers understood by Open.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// DefaultLimit is used by Recent when the limit given is not positive.
const DefaultLimit = 10

// ErrNotFinished is returned by NewRecord for a match still in play.
var ErrNotFinished = errors.New("match is not finished")

// Record is a finished match.
type Record struct {
	ID            string                      `json:"id" gorm:"primaryKey;size:36"`
	Winner        game.Player                 `json:"winner"`
	Turns         int                         `json:"turns"`
	StartedAt     time.Time                   `json:"startedAt"`
	EndedAt       time.Time                   `json:"endedAt" gorm:"index:idx_record_ended_at"`
	SunkByPlayer1 datatypes.JSONSlice[string] `json:"sunkByPlayer1"`
	SunkByPlayer2 datatypes.JSONSlice[string] `json:"sunkByPlayer2"`
	Actions       datatypes.JSON              `json:"actions"`
}

func (*Record) TableName() string {
	return "match_records"
}

// NewRecord builds the record of a finished match.
func NewRecord(m *game.Match) (*Record, error) {
	if m.Phase() != game.PhaseFinished {
		return nil, ErrNotFinished
	}
	actions := m.Actions()
	b, err := json.Marshal(actions)
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}
	turns := 0
	for _, a := range actions {
		if a.Kind != game.ActionPlace {
			turns++
		}
	}
	return &Record{
		ID:            uuid.NewString(),
		Winner:        m.Winner(),
		Turns:         turns,
		StartedAt:     m.StartedAt(),
		EndedAt:       m.EndedAt(),
		SunkByPlayer1: m.Sunk(game.Player1),
		SunkByPlayer2: m.Sunk(game.Player2),
		Actions:       datatypes.JSON(b),
	}, nil
}

// DecodeActions returns the action log stored in the record.
func (r *Record) DecodeActions() ([]game.Action, error) {
	var actions []game.Action
	if len(r.Actions) == 0 {
		return actions, nil
	}
	if err := json.Unmarshal(r.Actions, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// Recorder stores finished matches.
type Recorder interface {
	Save(ctx context.Context, r *Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Config selects and configures the storage behind a Recorder.
type Config struct {
	// Driver is one of "sqlite", "memory", "postgres" or "none".
	Driver string

	// Path is the sqlite database file. Empty means in memory.
	Path string

	// DSN is the postgres connection string.
	DSN string
}

// Open returns the Recorder for cfg. If postgres cannot be reached, it
// falls back to an in-memory sqlite database.
func Open(cfg Config, log zerolog.Logger) (Recorder, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverNone:
		log.Info().Msg("match history disabled")
		return Discard, nil
	case DriverSQLite, "":
		db, err = openSQLite(cfg.Path, log)
	case DriverMemory:
		db, err = openSQLite("", log)
	case DriverPostgres:
		db, err = openPostgres(cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to postgres, using sqlite in memory")
			db, err = openSQLite("", log)
		} else {
			log.Info().Msg("connected to postgres")
		}
	default:
		return nil, fmt.Errorf("unknown history driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &gormRecorder{db: db, log: log}, nil
}

func openPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// openSQLite opens the sqlite file at path, or a private in-memory
// database if path is empty.
func openSQLite(path string, log zerolog.Logger) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if path == "" {
		// Every connection to :memory: is a new database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		log.Info().Msg("using sqlite in memory for match history")
	} else {
		log.Info().Str("path", path).Msg("using sqlite for match history")
	}
	return db, nil
}

type gormRecorder struct {
	db  *gorm.DB
	log zerolog.Logger
}

func (g *gormRecorder) Save(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := g.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("save match %s: %w", r.ID, err)
	}
	g.log.Debug().Str("id", r.ID).Int("winner", int(r.Winner)).Int("turns", r.Turns).Msg("match saved")
	return nil
}

func (g *gormRecorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var records []Record
	err := g.db.WithContext(ctx).
		Order("ended_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (g *gormRecorder) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Discard is a Recorder that keeps nothing.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Save(context.Context, *Record) error           { return nil }
func (discard) Recent(context.Context, int) ([]Record, error) { return []Record{}, nil }
func (discard) Close() error                                  { return nil }
