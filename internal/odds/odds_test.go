package odds

import (
	"math"
	"testing"
)

const eps = 1e-12

func TestLoseProbabilityFixedValues(t *testing.T) {
	tests := []struct {
		bound int
		want  float64
	}{
		{1, 0},
		{2, 0.5},
		{3, 2.0 / 3.0},
		{5, 0.8},
		{10, 0.9},
		{100, 0.99},
	}

	for _, tt := range tests {
		got := LoseProbability(tt.bound)
		if math.Abs(got-tt.want) > eps {
			t.Errorf("LoseProbability(%d) = %.15f, want %.15f", tt.bound, got, tt.want)
		}
	}
}

func TestLoseProbabilityMatchesProduct(t *testing.T) {
	// 1 - 4/5 * 3/4 * 2/3 * 1/2
	want := 1 - (4.0/5.0)*(3.0/4.0)*(2.0/3.0)*(1.0/2.0)
	if got := LoseProbability(5); math.Abs(got-want) > eps {
		t.Errorf("LoseProbability(5) = %f, want %f", got, want)
	}
}

func TestLoseProbabilityRange(t *testing.T) {
	for bound := 1; bound <= 1000; bound++ {
		p := LoseProbability(bound)
		if p < 0 || p > 1 {
			t.Fatalf("LoseProbability(%d) = %f, outside [0, 1]", bound, p)
		}
	}
}

func TestLoseProbabilityNonPositive(t *testing.T) {
	for _, bound := range []int{0, -1, -50} {
		if got := LoseProbability(bound); got != 0 {
			t.Errorf("LoseProbability(%d) = %f, want 0", bound, got)
		}
	}
}

func TestWinProbability(t *testing.T) {
	if got := WinProbability(10); math.Abs(got-0.1) > eps {
		t.Errorf("WinProbability(10) = %f, want 0.1", got)
	}
	if got := WinProbability(1); got != 1 {
		t.Errorf("WinProbability(1) = %f, want 1", got)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, "0.00%"},
		{0.5, "50.00%"},
		{2.0 / 3.0, "66.67%"},
		{0.9, "90.00%"},
		{1, "100.00%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.p); got != tt.want {
			t.Errorf("FormatPercent(%f) = %s, want %s", tt.p, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	rows := Table(DefaultWagers)
	if len(rows) != len(DefaultWagers) {
		t.Fatalf("Table() returned %d rows, want %d", len(rows), len(DefaultWagers))
	}
	for i, row := range rows {
		if row.Wager != DefaultWagers[i] {
			t.Errorf("row %d wager = %d, want %d", i, row.Wager, DefaultWagers[i])
		}
		if row.LoseProbability != LoseProbability(row.Wager) {
			t.Errorf("row %d probability mismatch", i)
		}
	}
	if got := rows[1].Percent.StringFixed(2); got != "90.00" {
		t.Errorf("wager 10 percent = %s, want 90.00", got)
	}
}
