package pricing

import (
	"errors"

	"github.com/Spok95/esencia/internal/domain/recipes"
)

// SaleUnit is the granularity a per-unit price is quoted in.
type SaleUnit string

const (
	SalePiece     SaleUnit = "unidad"
	SaleDozen     SaleUnit = "docena"
	SaleHalfDozen SaleUnit = "media_docena"
	SaleKilo      SaleUnit = "kilo"
	SalePortion   SaleUnit = "porcion"
)

// Multiplier is the number of sellable units in one sale unit.
func (u SaleUnit) Multiplier() int {
	switch u {
	case SaleDozen:
		return 12
	case SaleHalfDozen:
		return 6
	default:
		return 1
	}
}

func (u SaleUnit) Valid() bool {
	switch u {
	case SalePiece, SaleDozen, SaleHalfDozen, SaleKilo, SalePortion:
		return true
	}
	return false
}

// QuoteInput describes a proposed sale. Units defaults to one full batch.
// Either TotalPrice, Price (per PriceUnit) or both may be set.
type QuoteInput struct {
	Units      int             `json:"unidades"`
	Packaging  []PackagingLine `json:"packagings"`
	Overheads  Overheads       `json:"overheads"`
	TotalPrice float64         `json:"precioVentaTotal"`
	Price      float64         `json:"precioVentaPorUnidad"`
	PriceUnit  SaleUnit        `json:"tipoVenta"`
}

func (in QuoteInput) Validate() error {
	if in.Units < 0 {
		return errors.New("units must be >= 0")
	}
	if in.TotalPrice < 0 || in.Price < 0 {
		return errors.New("prices must be >= 0")
	}
	if in.PriceUnit != "" && !in.PriceUnit.Valid() {
		return errors.New("unknown sale unit")
	}
	for _, l := range in.Packaging {
		if l.QuantityPerUnit <= 0 {
			return errors.New("packaging quantity must be > 0")
		}
	}
	return in.Overheads.Validate()
}

// Granularity is a price/profit pair at one sale unit.
type Granularity struct {
	Price  float64 `json:"precio"`
	Profit float64 `json:"ganancia"`
}

type Quote struct {
	RecipeID     string        `json:"recetaId"`
	Breakdown    Breakdown     `json:"breakdown"`
	CostPerUnit  float64       `json:"costoPorUnidadTotal"` // total cost incl. overheads / units
	CostPerDozen float64       `json:"costoPorDocena"`
	Profit       float64       `json:"gananciaTotal"`
	Margin       float64       `json:"margenTotal"`
	PriceUnit    SaleUnit      `json:"tipoVenta"`
	UnitPrice    float64       `json:"precioRealPorUnidad"`
	UnitProfit   float64       `json:"gananciaPorUnidad"`
	UnitMargin   float64       `json:"margenPorUnidad"`
	PerDozen     Granularity   `json:"porDocena"`
	PerHalfDozen Granularity   `json:"porMediaDocena"`
	Gaps         []recipes.Gap `json:"faltantes,omitempty"`
}

// Calculate prices r without touching stock. Given the same units,
// packaging and overheads its Breakdown equals the one a committed sale
// records.
func Calculate(r recipes.Recipe, lookup recipes.Lookup, in QuoteInput) Quote {
	recipeCost, gaps := recipes.Cost(r, lookup)
	units := in.Units
	if units <= 0 {
		units = recipes.AbsoluteUnits(r)
	}
	b := CostBasis(recipes.CostPerUnit(r, recipeCost), units, in.Packaging, in.Overheads)

	q := Quote{
		RecipeID:  r.ID,
		Breakdown: b,
		PriceUnit: in.PriceUnit,
		Gaps:      gaps,
	}
	if q.PriceUnit == "" {
		q.PriceUnit = SalePiece
	}
	q.CostPerUnit = b.Total / float64(units)
	q.CostPerDozen = recipes.CostPerDozen(q.CostPerUnit)
	q.Profit, q.Margin = Profit(in.TotalPrice, b.Total)

	q.UnitPrice = in.Price / float64(q.PriceUnit.Multiplier())
	q.UnitProfit, q.UnitMargin = Profit(q.UnitPrice, q.CostPerUnit)
	q.PerDozen = Granularity{
		Price:  q.UnitPrice * float64(SaleDozen.Multiplier()),
		Profit: q.UnitProfit * float64(SaleDozen.Multiplier()),
	}
	q.PerHalfDozen = Granularity{
		Price:  q.UnitPrice * float64(SaleHalfDozen.Multiplier()),
		Profit: q.UnitProfit * float64(SaleHalfDozen.Multiplier()),
	}
	return q
}
