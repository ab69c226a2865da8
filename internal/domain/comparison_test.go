package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeVariance(t *testing.T) {
	tests := []struct {
		name     string
		current  decimal.Decimal
		previous decimal.Decimal
		variance string
		percent  string
	}{
		{"growth", d(150), d(100), "50", "50"},
		{"decline", d(75), d(100), "-25", "-25"},
		{"zero previous", d(100), d(0), "100", "0"},
		{"both zero", d(0), d(0), "0", "0"},
		{"rounded", d(100), d(3), "97", "3233.33"},
		{"rounded negative", d(2), d(3), "-1", "-33.33"},
		{"half rounds away from zero", decimal.RequireFromString("200.01"), d(200), "0.01", "0.01"},
		{"negative half rounds away from zero", decimal.RequireFromString("199.99"), d(200), "-0.01", "-0.01"},
		{"negative previous", d(-50), d(-100), "50", "-50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, pct := ComputeVariance(tt.current, tt.previous)
			assert.Equal(t, tt.variance, v.String())
			assert.Equal(t, tt.percent, pct.String())
		})
	}
}

func TestCompareFigures_MissingPreviousIsZero(t *testing.T) {
	vs := CompareFigures(
		[]Figure{{"a", d(10)}, {"b", d(20)}},
		[]Figure{{"a", d(5)}},
	)
	require.Len(t, vs, 2)
	assert.Equal(t, "100", vs[0].VariancePercent.String())
	assert.True(t, vs[1].Previous.IsZero())
	assert.True(t, vs[1].VariancePercent.IsZero())
}

func TestPriorWindow_Range(t *testing.T) {
	dept := uuid.New()
	w := NewRange(date("2024-03-01"), date("2024-03-31"), &dept)

	prev, err := PriorWindow(w, ComparisonRequest{Type: ComparisonPreviousPeriod})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", prev.Start.Format(DateLayout))
	assert.Equal(t, "2024-02-29", prev.End.Format(DateLayout))
	assert.Equal(t, &dept, prev.DepartmentID)

	yoy, err := PriorWindow(w, ComparisonRequest{Type: ComparisonYearOverYear})
	require.NoError(t, err)
	assert.Equal(t, "2023-03-01", yoy.Start.Format(DateLayout))
	assert.Equal(t, "2023-03-31", yoy.End.Format(DateLayout))

	explicit := date("2023-12-31")
	ex, err := PriorWindow(w, ComparisonRequest{Type: ComparisonExplicitDate, Date: &explicit})
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", ex.End.Format(DateLayout))
	assert.Equal(t, "2023-12-01", ex.Start.Format(DateLayout))
}

func TestPriorWindow_AsOf(t *testing.T) {
	w := NewAsOf(date("2024-06-30"), nil)

	prev, err := PriorWindow(w, ComparisonRequest{Type: ComparisonPreviousPeriod})
	require.NoError(t, err)
	assert.False(t, prev.IsRange())
	assert.Equal(t, "2024-05-31", prev.End.Format(DateLayout))

	yoy, err := PriorWindow(w, ComparisonRequest{Type: ComparisonYearOverYear})
	require.NoError(t, err)
	assert.Equal(t, "2023-06-30", yoy.End.Format(DateLayout))

	explicit := date("2023-12-31")
	ex, err := PriorWindow(w, ComparisonRequest{Type: ComparisonExplicitDate, Date: &explicit})
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", ex.End.Format(DateLayout))
}

func TestPriorWindow_ExplicitWithoutDate(t *testing.T) {
	_, err := PriorWindow(NewAsOf(date("2024-06-30"), nil), ComparisonRequest{Type: ComparisonExplicitDate})
	assert.ErrorIs(t, err, ErrInvalidComparison)
}

func TestPriorWindow_RangePreviousPeriod(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  string
		wantEnd    string
	}{
		{"quarter", "2024-01-01", "2024-03-31", "2023-10-01", "2023-12-31"},
		{"leap february", "2024-02-01", "2024-02-29", "2024-01-01", "2024-01-31"},
		{"partial month keeps length", "2024-03-10", "2024-03-19", "2024-02-29", "2024-03-09"},
		{"spans months keeps length", "2024-01-15", "2024-02-14", "2023-12-15", "2024-01-14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, err := PriorWindow(NewRange(date(tt.start), date(tt.end), nil),
				ComparisonRequest{Type: ComparisonPreviousPeriod})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, prev.Start.Format(DateLayout))
			assert.Equal(t, tt.wantEnd, prev.End.Format(DateLayout))
		})
	}
}

func TestPriorWindow_AsOfMonthEnds(t *testing.T) {
	tests := []struct {
		asOf string
		typ  ComparisonType
		want string
	}{
		{"2024-03-31", ComparisonPreviousPeriod, "2024-02-29"},
		{"2024-05-31", ComparisonPreviousPeriod, "2024-04-30"},
		{"2024-12-31", ComparisonPreviousPeriod, "2024-11-30"},
		{"2024-03-30", ComparisonPreviousPeriod, "2024-02-29"},
		{"2024-03-15", ComparisonPreviousPeriod, "2024-02-15"},
		{"2024-01-31", ComparisonPreviousPeriod, "2023-12-31"},
		{"2024-02-29", ComparisonYearOverYear, "2023-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.asOf+"/"+string(tt.typ), func(t *testing.T) {
			prev, err := PriorWindow(NewAsOf(date(tt.asOf), nil), ComparisonRequest{Type: tt.typ})
			require.NoError(t, err)
			assert.Equal(t, tt.want, prev.End.Format(DateLayout))
		})
	}
}
