package view

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine("en")
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestNewEngineFallsBackOnBadLocale(t *testing.T) {
	engine, err := NewEngine("not a locale!")
	require.NoError(t, err)
	assert.Equal(t, "$0.00", engine.Money(decimal.Zero))
}

func TestMoney(t *testing.T) {
	engine, err := NewEngine("en")
	require.NoError(t, err)

	assert.Equal(t, "$133.40", engine.Money(decimal.RequireFromString("133.4")))
	assert.Equal(t, "$0.00", engine.Money(decimal.Zero))
	assert.Equal(t, "$2.01", engine.Money(decimal.RequireFromString("2.005")))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3))
	assert.Equal(t, 42.5, Clamp(42.5))
	assert.Equal(t, 100.0, Clamp(180))
}

func TestFixed1(t *testing.T) {
	assert.Equal(t, "66.7", fixed1(decimal.RequireFromString("66.66")))
	assert.Equal(t, "12.5", fixed1(12.5))
	assert.Equal(t, "3.0", fixed1(int64(3)))
	assert.Equal(t, "N/A", fixed1("N/A"))
}

func TestExecuteEmptyPartial(t *testing.T) {
	engine, err := NewEngine("en")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.Execute(&buf, "partials/empty", "No records found."))
	assert.Contains(t, buf.String(), `<p class="empty-state">No records found.</p>`)
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Execute(&bytes.Buffer{}, "partials/empty", nil))
}
