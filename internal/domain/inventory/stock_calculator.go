package inventory

import "sort"

// ProductStats cifras de un producto: actividad del periodo (Inward, Outward, Used)
// y stock puntual (InStock), este último siempre calculado con toda la historia.
type ProductStats struct {
	ProductCode string
	Inward      int64
	Outward     int64
	InStock     int64
	Used        int64
}

// PeriodTotals sumas por producto de un mismo rango (o de toda la historia).
type PeriodTotals struct {
	Produced map[string]int64 // lotes COMPLETED
	Inward   map[string]int64 // movimientos INWARD
	Outward  map[string]int64 // movimientos OUTWARD
	Used     map[string]int64 // certificados emitidos
}

// InStock implementa el stock puntual (servicio de dominio).
// InStock = Σ lotes COMPLETED + Σ INWARD − Σ OUTWARD
func InStock(produced, inward, outward int64) int64 {
	return produced + inward - outward
}

// CanShip indica si una salida de qty deja el stock en cero o más.
func CanShip(inStock, qty int64) bool {
	return qty > 0 && qty <= inStock
}

// Compose arma las cifras por producto: period aporta inward/outward/used y
// allTime aporta únicamente el stock. Devuelve filas ordenadas por código y el total.
func Compose(period, allTime PeriodTotals) ([]ProductStats, ProductStats) {
	codes := make(map[string]struct{})
	for _, m := range []map[string]int64{
		period.Produced, period.Inward, period.Outward, period.Used,
		allTime.Produced, allTime.Inward, allTime.Outward,
	} {
		for c := range m {
			codes[c] = struct{}{}
		}
	}

	rows := make([]ProductStats, 0, len(codes))
	total := ProductStats{ProductCode: "TOTAL"}
	for c := range codes {
		r := ProductStats{
			ProductCode: c,
			Inward:      period.Produced[c] + period.Inward[c],
			Outward:     period.Outward[c],
			Used:        period.Used[c],
			InStock:     InStock(allTime.Produced[c], allTime.Inward[c], allTime.Outward[c]),
		}
		rows = append(rows, r)
		total.Inward += r.Inward
		total.Outward += r.Outward
		total.Used += r.Used
		total.InStock += r.InStock
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductCode < rows[j].ProductCode })
	return rows, total
}
