package workflow

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketflow/pkg/model"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflows.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, `
- name: day trade dax
  index: DAX.I
  cfd: GER40.I
  enable: true
  end_date: 2026/12/31
  conditions:
    - indicator:
        name: ma50
        ut: h1
      close:
        direction: below
        ut: h1
        spread: 1.5
  trigger:
    ut: h1
    signal: breakout
    location: lower
    order_direction: sell
    quantity: 9
- name: cac zone watch
  index: CAC40.I
  cfd: FRA40.I
  enable: false
  end_date: 2026-12-31
  is_us: false
  conditions:
    - indicator:
        name: zone
        ut: h4
        value: 8100
        zone_value: 8150
      close:
        direction: above
        ut: h1
      element: low
`)

	workflows, err := LoadCatalog(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, workflows, 2)

	dax := workflows[0]
	assert.Equal(t, "day trade dax", dax.Name)
	assert.Equal(t, "GER40.I", dax.CFD)
	assert.True(t, dax.Enabled)
	require.NotNil(t, dax.EndDate)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), *dax.EndDate)
	assert.Equal(t, model.IndicatorMA50, dax.Conditions[0].Indicator.Name)
	assert.Equal(t, 1.5, dax.Conditions[0].Close.Spread)
	assert.Equal(t, model.LocationLower, dax.Trigger.Location)
	assert.NotEmpty(t, dax.ID)

	cac := workflows[1]
	require.NotNil(t, cac.EndDate)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), *cac.EndDate)
	assert.False(t, cac.Enabled)
	require.NotNil(t, cac.Conditions[0].Element)
	assert.Equal(t, model.ElementLow, *cac.Conditions[0].Element)
	require.NotNil(t, cac.Conditions[0].Indicator.Value)
	assert.Equal(t, 8100.0, *cac.Conditions[0].Indicator.Value)
	// Spread is optional and defaults to zero.
	assert.Equal(t, 0.0, cac.Conditions[0].Close.Spread)
	// Missing trigger is defaulted from the close direction.
	assert.Equal(t, model.H1, cac.Trigger.UnitTime)
	assert.Equal(t, model.SignalBreakout, cac.Trigger.Signal)
	assert.Equal(t, model.LocationHigher, cac.Trigger.Location)
	assert.Equal(t, model.Buy, cac.Trigger.OrderDirection)
	assert.Equal(t, 0.1, cac.Trigger.Quantity)
}

func TestLoadCatalogDefaultTriggerBelow(t *testing.T) {
	path := writeCatalog(t, `
- name: short the pop
  index: DAX.I
  cfd: GER40.I
  enable: true
  conditions:
    - indicator:
        name: bbh
        ut: h1
      close:
        direction: below
        ut: h1
`)
	workflows, err := LoadCatalog(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, model.LocationLower, workflows[0].Trigger.Location)
	assert.Equal(t, model.Sell, workflows[0].Trigger.OrderDirection)
	assert.Nil(t, workflows[0].EndDate)
}

func TestLoadCatalogRejectsUnknownIndicator(t *testing.T) {
	path := writeCatalog(t, `
- name: bad
  index: DAX.I
  cfd: GER40.I
  enable: true
  conditions:
    - indicator:
        name: rsi
        ut: h1
      close:
        direction: below
        ut: h1
`)
	_, err := LoadCatalog(path, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnsupportedIndicator)
}

func TestLoadCatalogRejectsBadDate(t *testing.T) {
	path := writeCatalog(t, `
- name: bad date
  index: DAX.I
  cfd: GER40.I
  enable: true
  end_date: 31/12/2026
  conditions:
    - indicator:
        name: ma50
        ut: h1
      close:
        direction: below
        ut: h1
`)
	_, err := LoadCatalog(path, zerolog.Nop())
	require.Error(t, err)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yml"), zerolog.Nop())
	require.Error(t, err)
}
