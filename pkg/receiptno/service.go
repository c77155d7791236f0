// Package receiptno provides sequential receipt numbering.
// Numbers follow the pattern PREFIX-YEAR-XXXXX (e.g. S-2026-00042).
package receiptno

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses an UPSERT with RETURNING for every number.
	// Sequential without gaps; right for receipts and fiscal documents.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory. Faster,
	// but restarts leave gaps. Fine for internal document kinds.
	StrategyCached
)

// Options tunes number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once in cached
	// mode. Defaults to 50.
	RangeSize int64
}

// Config holds a numbering series definition.
type Config struct {
	// Prefix added to all numbers (e.g. "S" for sales)
	Prefix string

	// IncludeYear adds the year segment to the number
	IncludeYear bool

	// PadWidth is the minimum digit width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month" or "never"
	ResetPeriod string
}

// DefaultConfig returns the standard yearly series for a prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Querier is the subset of pgx needed for sequence upserts.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service issues receipt numbers backed by the sys_sequences table.
type Service struct {
	querier Querier
	cfg     Config
	opts    Options

	mu     sync.Mutex
	ranges map[string]*cachedRange
}

// New creates a numbering service for one series.
func New(querier Querier, cfg Config, opts Options) *Service {
	return &Service{
		querier: querier,
		cfg:     cfg,
		opts:    opts,
		ranges:  make(map[string]*cachedRange),
	}
}

// Next generates the next number of the series for the given period.
func (s *Service) Next(ctx context.Context, at time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("receiptno service is not initialized")
	}

	key := s.buildKey(at)

	var num int64
	var err error
	switch s.opts.Strategy {
	case StrategyCached:
		num, err = s.nextCached(ctx, key)
	default:
		num, err = s.nextStrict(ctx, key)
	}
	if err != nil {
		return "", err
	}
	return s.format(at, num), nil
}

// nextStrict bumps the sequence row by one and returns the new value.
func (s *Service) nextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next number: %w", err)
	}
	return num, nil
}

// nextCached serves from an in-memory range, reserving a new block from
// the database when the range runs out. current_val stays the last
// value handed out, so a reserved block is (newMax-size, newMax].
func (s *Service) nextCached(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := s.opts.RangeSize
		if size <= 0 {
			size = 50
		}

		var newMax int64
		err := s.querier.QueryRow(ctx, `
            INSERT INTO sys_sequences (key, current_val)
            VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
            RETURNING current_val
		`, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNext sets the sequence value directly, for migrations.
func (s *Service) SetNext(ctx context.Context, at time.Time, value int64) error {
	key := s.buildKey(at)

	var result int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)

	s.mu.Lock()
	delete(s.ranges, key)
	s.mu.Unlock()

	return err
}

func (s *Service) buildKey(at time.Time) string {
	switch s.cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", s.cfg.Prefix, at.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", s.cfg.Prefix, at.Format("2006"))
	default:
		return s.cfg.Prefix
	}
}

func (s *Service) format(at time.Time, num int64) string {
	padWidth := s.cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if s.cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", s.cfg.Prefix, at.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", s.cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}
	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}
	return -1
}

// Memory is an in-process number source for non-database deployments.
// Sequences are kept per series key and reset with the process.
type Memory struct {
	cfg Config

	mu   sync.Mutex
	seqs map[string]int64
}

// NewMemory creates an in-process numbering source.
func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, seqs: make(map[string]int64)}
}

// Next generates the next number of the series for the given period.
func (m *Memory) Next(ctx context.Context, at time.Time) (string, error) {
	svc := Service{cfg: m.cfg}
	key := svc.buildKey(at)

	m.mu.Lock()
	m.seqs[key]++
	num := m.seqs[key]
	m.mu.Unlock()

	return svc.format(at, num), nil
}
