package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/domain/inventory"
)

func TestInStock(t *testing.T) {
	assert.Equal(t, int64(130), inventory.InStock(100, 50, 20))
	assert.Equal(t, int64(0), inventory.InStock(0, 10, 10))
}

func TestCanShip(t *testing.T) {
	assert.True(t, inventory.CanShip(10, 10))
	assert.False(t, inventory.CanShip(10, 11))
	assert.False(t, inventory.CanShip(10, 0))
	assert.False(t, inventory.CanShip(0, 1))
}

// El stock sale de allTime aunque el periodo no tenga actividad del producto.
func TestCompose_StockIndependienteDelPeriodo(t *testing.T) {
	period := inventory.PeriodTotals{
		Produced: map[string]int64{"HSRP": 10},
		Outward:  map[string]int64{"HSRP": 4},
		Used:     map[string]int64{"HSRP": 2},
	}
	allTime := inventory.PeriodTotals{
		Produced: map[string]int64{"HSRP": 100, "SNAP": 30},
		Inward:   map[string]int64{"HSRP": 5},
		Outward:  map[string]int64{"HSRP": 40, "SNAP": 10},
	}

	rows, total := inventory.Compose(period, allTime)
	require.Len(t, rows, 2)

	assert.Equal(t, inventory.ProductStats{ProductCode: "HSRP", Inward: 10, Outward: 4, Used: 2, InStock: 65}, rows[0])
	assert.Equal(t, inventory.ProductStats{ProductCode: "SNAP", InStock: 20}, rows[1])
	assert.Equal(t, int64(85), total.InStock)
	assert.Equal(t, int64(10), total.Inward)
}

// Conservación: con el periodo igual a toda la historia, inStock = inward − outward.
func TestCompose_Conservacion(t *testing.T) {
	all := inventory.PeriodTotals{
		Produced: map[string]int64{"A": 7, "B": 3},
		Inward:   map[string]int64{"A": 2},
		Outward:  map[string]int64{"A": 5, "B": 3},
	}
	rows, _ := inventory.Compose(all, all)
	for _, r := range rows {
		assert.Equal(t, r.Inward-r.Outward, r.InStock, r.ProductCode)
	}
}
