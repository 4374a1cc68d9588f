package feed

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testStart = time.UnixMilli(1700000000000)

func newTestGenerator(t *testing.T, preset Preset, seed int64) *Generator {
	t.Helper()
	g, err := New(Config{
		InitialPrice: 100,
		Preset:       preset,
		Seed:         seed,
		TickInterval: time.Second,
		StartTime:    testStart,
	})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return g
}

func TestNew_InvalidConfig(t *testing.T) {
	valid := Config{InitialPrice: 100, Preset: PresetLow, Seed: 1, TickInterval: time.Second}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero price", func(c *Config) { c.InitialPrice = 0 }},
		{"negative price", func(c *Config) { c.InitialPrice = -5 }},
		{"NaN price", func(c *Config) { c.InitialPrice = math.NaN() }},
		{"infinite price", func(c *Config) { c.InitialPrice = math.Inf(1) }},
		{"zero interval", func(c *Config) { c.TickInterval = 0 }},
		{"sub-millisecond interval", func(c *Config) { c.TickInterval = time.Microsecond }},
		{"unknown preset", func(c *Config) { c.Preset = "extreme" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := New(cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestGenerator_KnownPath(t *testing.T) {
	g := newTestGenerator(t, PresetMedium, 12345)
	want := []float64{100.03428723781033, 100.02525095505202, 100.0293313847626}

	for i, w := range want {
		tick := g.NextTick()
		if math.Abs(tick.Price-w) > 1e-9 {
			t.Errorf("tick %d: price = %v, want %v", i, tick.Price, w)
		}
	}
}

func TestGenerator_SameConfigSameTicks(t *testing.T) {
	a := newTestGenerator(t, PresetMedium, 12345)
	b := newTestGenerator(t, PresetMedium, 12345)

	ta := a.GenerateTicks(100)
	tb := b.GenerateTicks(100)
	for i := range ta {
		if ta[i] != tb[i] {
			t.Fatalf("tick %d differs: %+v vs %+v", i, ta[i], tb[i])
		}
	}
}

func TestGenerator_TimeAdvancesByInterval(t *testing.T) {
	g := newTestGenerator(t, PresetLow, 54321)
	ticks := g.GenerateTicks(10)

	if ticks[0].Timestamp != testStart.UnixMilli()+1000 {
		t.Errorf("first timestamp = %d, want %d", ticks[0].Timestamp, testStart.UnixMilli()+1000)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Timestamp != ticks[i-1].Timestamp+1000 {
			t.Fatalf("tick %d: timestamp = %d, want %d", i, ticks[i].Timestamp, ticks[i-1].Timestamp+1000)
		}
	}
}

func TestGenerator_ChangeFields(t *testing.T) {
	g := newTestGenerator(t, PresetHigh, 99999)
	prev := 100.0
	for i, tick := range g.GenerateTicks(20) {
		if tick.Change != tick.Price-prev {
			t.Errorf("tick %d: change = %v, want %v", i, tick.Change, tick.Price-prev)
		}
		if want := tick.Change / prev * 100; tick.ChangePercent != want {
			t.Errorf("tick %d: changePercent = %v, want %v", i, tick.ChangePercent, want)
		}
		prev = tick.Price
	}
}

func TestGenerator_VolatilityOrdering(t *testing.T) {
	meanAbsChange := func(p Preset) float64 {
		ticks := newTestGenerator(t, p, 42).GenerateTicks(50)
		var sum float64
		for _, tick := range ticks {
			sum += math.Abs(tick.ChangePercent)
		}
		return sum / float64(len(ticks))
	}

	low, medium, high := meanAbsChange(PresetLow), meanAbsChange(PresetMedium), meanAbsChange(PresetHigh)
	if !(low < medium && medium < high) {
		t.Errorf("mean |change%%|: low=%v medium=%v high=%v, want strictly increasing", low, medium, high)
	}
}

func TestGenerator_PriceFloor(t *testing.T) {
	g, err := New(Config{
		InitialPrice: 0.011,
		Preset:       PresetHigh,
		Seed:         3,
		TickInterval: 24 * 365 * time.Hour,
		StartTime:    testStart,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, tick := range g.GenerateTicks(500) {
		if tick.Price < MinPrice {
			t.Fatalf("tick %d: price %v below floor", i, tick.Price)
		}
	}
}

func TestGenerator_ResetReplaysSequence(t *testing.T) {
	g := newTestGenerator(t, PresetMedium, 11111)
	before := g.GenerateTicks(5)

	g.Reset(nil)
	if s := g.State(); s.CurrentPrice != 100 || s.TickCount != 0 || s.CurrentTime != testStart.UnixMilli() {
		t.Fatalf("State after Reset = %+v, want initial conditions", s)
	}

	after := g.GenerateTicks(5)
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("tick %d: before reset %+v, after reset %+v", i, before[i], after[i])
		}
	}
}

func TestGenerator_ResetWithSeedReplacesConfiguredSeed(t *testing.T) {
	g := newTestGenerator(t, PresetMedium, 1)
	g.GenerateTicks(3)

	seed := int64(777)
	g.Reset(&seed)
	first := g.GenerateTicks(5)

	g.Reset(nil)
	second := g.GenerateTicks(5)

	fresh := newTestGenerator(t, PresetMedium, 777).GenerateTicks(5)
	for i := range first {
		if first[i] != fresh[i] {
			t.Errorf("tick %d after Reset(777) = %+v, want %+v", i, first[i], fresh[i])
		}
		if second[i] != fresh[i] {
			t.Errorf("tick %d after Reset(nil) = %+v, want %+v", i, second[i], fresh[i])
		}
	}
	if g.Config().Seed != 777 {
		t.Errorf("Config().Seed = %d, want 777", g.Config().Seed)
	}
}

func TestGenerator_State(t *testing.T) {
	g := newTestGenerator(t, PresetLow, 5)
	ticks := g.GenerateTicks(3)

	s := g.State()
	if s.TickCount != 3 {
		t.Errorf("TickCount = %d, want 3", s.TickCount)
	}
	if s.CurrentPrice != ticks[2].Price {
		t.Errorf("CurrentPrice = %v, want %v", s.CurrentPrice, ticks[2].Price)
	}
	if s.CurrentTime != ticks[2].Timestamp {
		t.Errorf("CurrentTime = %d, want %d", s.CurrentTime, ticks[2].Timestamp)
	}
}

func TestGenerateTicks_NonPositiveCount(t *testing.T) {
	g := newTestGenerator(t, PresetLow, 5)
	if got := g.GenerateTicks(0); len(got) != 0 {
		t.Errorf("GenerateTicks(0) returned %d ticks", len(got))
	}
	if got := g.GenerateTicks(-3); len(got) != 0 {
		t.Errorf("GenerateTicks(-3) returned %d ticks", len(got))
	}
	if g.State().TickCount != 0 {
		t.Errorf("TickCount = %d, want 0", g.State().TickCount)
	}
}

func TestParsePreset(t *testing.T) {
	for _, s := range []string{"low", "medium", "high"} {
		if p, err := ParsePreset(s); err != nil || string(p) != s {
			t.Errorf("ParsePreset(%q) = %q, %v", s, p, err)
		}
	}
	if _, err := ParsePreset("wild"); err == nil {
		t.Error("ParsePreset(wild) expected error")
	}
}

func TestVolatility_Presets(t *testing.T) {
	tests := []struct {
		preset Preset
		sigma  float64
	}{
		{PresetLow, 0.15},
		{PresetMedium, 0.30},
		{PresetHigh, 0.50},
	}
	for _, tt := range tests {
		v, ok := Volatility(tt.preset)
		if !ok {
			t.Fatalf("Volatility(%q) not found", tt.preset)
		}
		if v.Sigma != tt.sigma || v.Mu != 0 {
			t.Errorf("Volatility(%q) = %+v, want sigma %v, mu 0", tt.preset, v, tt.sigma)
		}
	}
}
