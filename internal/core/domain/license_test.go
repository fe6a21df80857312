package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input   string
		want    Unit
		wantErr bool
	}{
		{"hour", UnitHour, false},
		{"day", UnitDay, false},
		{"week", UnitWeek, false},
		{"days", UnitDay, false},
		{"WEEK", UnitWeek, false},
		{" hours ", UnitHour, false},
		{"month", "", true},
		{"", "", true},
		{"s", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUnit(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUnit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnit_Length(t *testing.T) {
	assert.Equal(t, time.Hour, UnitHour.Length())
	assert.Equal(t, 24*time.Hour, UnitDay.Length())
	assert.Equal(t, 168*time.Hour, UnitWeek.Length())
	assert.Equal(t, time.Duration(0), Unit("month").Length())
}

func TestRateCard_Price(t *testing.T) {
	rates := DefaultRateCard()

	for _, u := range AllUnits() {
		for _, amount := range []int64{1, 2, 7, 100} {
			price, err := rates.Price(amount, u)
			require.NoError(t, err)
			assert.Equal(t, rates[u]*amount, price, "%d %s", amount, u)
		}
	}
}

func TestRateCard_Price_Defaults(t *testing.T) {
	rates := DefaultRateCard()

	price, err := rates.Price(2, UnitHour)
	require.NoError(t, err)
	assert.Equal(t, int64(20), price)

	price, err = rates.Price(1, UnitDay)
	require.NoError(t, err)
	assert.Equal(t, int64(80), price)
}

func TestRateCard_Price_Rejections(t *testing.T) {
	rates := DefaultRateCard()

	_, err := rates.Price(0, UnitHour)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = rates.Price(-3, UnitDay)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = rates.Price(1, Unit("month"))
	assert.ErrorIs(t, err, ErrInvalidUnit)

	_, err = rates.Price(math.MaxInt64, UnitWeek)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPlanLabel(t *testing.T) {
	assert.Equal(t, "1 day", PlanLabel(1, UnitDay))
	assert.Equal(t, "3 hours", PlanLabel(3, UnitHour))
	assert.Equal(t, "2 weeks", PlanLabel(2, UnitWeek))
}
