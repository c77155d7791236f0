package receiptno

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}
	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func TestNext_StrictSequence(t *testing.T) {
	ctx := context.Background()
	q := &mockQuerier{}
	svc := New(q, DefaultConfig("S"), Options{Strategy: StrategyStrict})

	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	got, err := svc.Next(ctx, at)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "S-2026-00001" {
		t.Errorf("got %q, want S-2026-00001", got)
	}

	got, err = svc.Next(ctx, at)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "S-2026-00002" {
		t.Errorf("got %q, want S-2026-00002", got)
	}
}

func TestNext_CachedReservesRanges(t *testing.T) {
	ctx := context.Background()
	q := &mockQuerier{}
	svc := New(q, DefaultConfig("ORD"), Options{Strategy: StrategyCached, RangeSize: 10})

	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 10; i++ {
		got, err := svc.Next(ctx, at)
		if err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
		want := svc.format(at, i)
		if got != want {
			t.Errorf("call %d: got %q, want %q", i, got, want)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected one range reservation, got %d queries", q.calls)
	}

	// 11th number triggers a second reservation.
	if _, err := svc.Next(ctx, at); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.calls != 2 {
		t.Errorf("expected second reservation, got %d queries", q.calls)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		num  int64
		want string
	}{
		{
			name: "with year and default pad",
			cfg:  Config{Prefix: "S", IncludeYear: true},
			num:  42,
			want: "S-2026-00042",
		},
		{
			name: "without year",
			cfg:  Config{Prefix: "ADJ", PadWidth: 3},
			num:  7,
			want: "ADJ-007",
		},
		{
			name: "wide number overflows pad",
			cfg:  Config{Prefix: "S", IncludeYear: true, PadWidth: 4},
			num:  123456,
			want: "S-2026-123456",
		},
	}

	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := Service{cfg: tt.cfg}
			if got := svc.format(at, tt.num); got != tt.want {
				t.Errorf("format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		period string
		want   string
	}{
		{"year", "S_2026"},
		{"month", "S_2026_06"},
		{"never", "S"},
	}
	for _, tt := range tests {
		svc := Service{cfg: Config{Prefix: "S", ResetPeriod: tt.period}}
		if got := svc.buildKey(at); got != tt.want {
			t.Errorf("buildKey(%s) = %q, want %q", tt.period, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"S-2026-00042", 42},
		{"ADJ-007", 7},
		{"garbage", -1},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMemory_PerPeriodSequences(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(DefaultConfig("S"))

	y2026 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	y2027 := time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC)

	first, err := mem.Next(ctx, y2026)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first != "S-2026-00001" {
		t.Errorf("got %q, want S-2026-00001", first)
	}

	// A new year starts its own sequence.
	other, err := mem.Next(ctx, y2027)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if other != "S-2027-00001" {
		t.Errorf("got %q, want S-2027-00001", other)
	}

	second, err := mem.Next(ctx, y2026)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second != "S-2026-00002" {
		t.Errorf("got %q, want S-2026-00002", second)
	}
}
