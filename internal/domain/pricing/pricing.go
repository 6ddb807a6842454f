package pricing

import "errors"

// Overheads are percentages applied to the base cost (10 means 10%).
type Overheads struct {
	Labor       float64 `json:"porcentajeManoObra" msgpack:"porcentajeManoObra"`
	Utilities   float64 `json:"porcentajeServicios" msgpack:"porcentajeServicios"`
	Disposables float64 `json:"porcentajeDesechables" msgpack:"porcentajeDesechables"`
}

func (o Overheads) Validate() error {
	if o.Labor < 0 || o.Utilities < 0 || o.Disposables < 0 {
		return errors.New("overhead percentages must be >= 0")
	}
	return nil
}

// PackagingLine is a packaging selection with its price snapshot.
type PackagingLine struct {
	PackagingID     string  `json:"id" msgpack:"id"`
	Name            string  `json:"nombre" msgpack:"nombre"`
	QuantityPerUnit int     `json:"cantidad" msgpack:"cantidad"`
	Price           float64 `json:"precio" msgpack:"precio"`
}

// Breakdown contains every intermediate value of the cost basis.
type Breakdown struct {
	CostPerUnit   float64 `json:"costoPorUnidad"`
	Units         int     `json:"unidades"`
	RecipeCost    float64 `json:"costoReceta"`
	PackagingCost float64 `json:"costoPackaging"`
	Base          float64 `json:"baseRecetaPackaging"`
	Labor         float64 `json:"costoManoObra"`
	Utilities     float64 `json:"costoServicios"`
	Disposables   float64 `json:"costoDesechables"`
	Total         float64 `json:"costoTotal"`
}

// CostBasis computes the cost of selling units at costPerUnit with the given
// packaging and overheads. Packaging is charged once per line
// (price * quantity per unit), not per unit sold.
func CostBasis(costPerUnit float64, units int, lines []PackagingLine, o Overheads) Breakdown {
	var packagingCost float64
	for _, l := range lines {
		packagingCost += l.Price * float64(l.QuantityPerUnit)
	}
	recipeCost := costPerUnit * float64(units)
	base := recipeCost + packagingCost
	labor := base * o.Labor / 100
	utilities := base * o.Utilities / 100
	disposables := base * o.Disposables / 100

	return Breakdown{
		CostPerUnit:   costPerUnit,
		Units:         units,
		RecipeCost:    recipeCost,
		PackagingCost: packagingCost,
		Base:          base,
		Labor:         labor,
		Utilities:     utilities,
		Disposables:   disposables,
		Total:         base + labor + utilities + disposables,
	}
}

// Profit returns price-cost and the margin as a percentage of price
// (0 when price is not positive).
func Profit(price, cost float64) (profit, margin float64) {
	profit = price - cost
	if price > 0 {
		margin = profit / price * 100
	}
	return profit, margin
}
