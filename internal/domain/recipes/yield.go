package recipes

const DozenSize = 12

// AbsoluteUnits is the number of sellable units one full batch yields.
func AbsoluteUnits(r Recipe) int {
	q := r.YieldQuantity
	if q < 1 {
		q = 1
	}
	if r.YieldUnit == YieldDozen {
		return q * DozenSize
	}
	return q
}

func CostPerUnit(r Recipe, totalCost float64) float64 {
	return totalCost / float64(AbsoluteUnits(r))
}

func CostPerDozen(costPerUnit float64) float64 {
	return costPerUnit * DozenSize
}

// ShowsDozen reports whether a per-dozen figure is meaningful for r.
func ShowsDozen(r Recipe) bool {
	return r.YieldUnit == YieldDozen || (r.YieldUnit == YieldPiece && r.YieldQuantity >= DozenSize)
}
