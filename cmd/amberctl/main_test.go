package main

import (
	"testing"

	"github.com/shopspring/decimal"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargets(t *testing.T) {
	targets, err := parseTargets([]string{"2025-06=1,500,000", "2025-05=3000000"})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "2025-05", targets[0].Month)
	assert.True(t, targets[0].Amount.Equal(decimal.NewFromInt(3000000)))
	assert.True(t, targets[1].Amount.Equal(decimal.NewFromInt(1500000)))

	_, err = parseTargets([]string{"2025-05"})
	assert.Error(t, err)

	_, err = parseTargets([]string{"2025-05=lots"})
	assert.ErrorIs(t, err, budgetdomain.ErrInvalidTarget)

	_, err = parseTargets(nil)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	cfg := config.Config{PropertyTimezone: "Asia/Seoul"}

	date, err := parseDate(cfg, "")
	require.NoError(t, err)
	assert.Nil(t, date)

	date, err = parseDate(cfg, "2025-05-12")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, "2025-05-12", date.Format("2006-01-02"))

	_, err = parseDate(cfg, "12/05/2025")
	assert.Error(t, err)
}
