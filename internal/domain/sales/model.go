package sales

import (
	"time"

	"github.com/Spok95/esencia/internal/domain/pricing"
)

// Record is an immutable sale. Deleting it never restores the stock it debited.
type Record struct {
	ID           string                  `json:"id" msgpack:"id"`
	Client       string                  `json:"cliente" msgpack:"cliente"`
	RecipeID     string                  `json:"recetaId" msgpack:"recetaId"`
	RecipeName   string                  `json:"recetaNombre" msgpack:"recetaNombre"`
	Units        int                     `json:"cantidadUnidades" msgpack:"cantidadUnidades"`
	Price        float64                 `json:"precioVenta" msgpack:"precioVenta"`
	PricePerUnit float64                 `json:"precioPorUnidad" msgpack:"precioPorUnidad"`
	TotalCost    float64                 `json:"costoTotal" msgpack:"costoTotal"`
	CostPerUnit  float64                 `json:"costoPorUnidad" msgpack:"costoPorUnidad"`
	Profit       float64                 `json:"ganancia" msgpack:"ganancia"`
	Margin       float64                 `json:"margenGanancia" msgpack:"margenGanancia"`
	Packaging    []pricing.PackagingLine `json:"packagings" msgpack:"packagings"`
	pricing.Overheads
	Date      string    `json:"fecha" msgpack:"fecha"`
	CreatedAt time.Time `json:"timestamp" msgpack:"timestamp"`
}

func (r Record) Clone() Record {
	r.Packaging = append([]pricing.PackagingLine(nil), r.Packaging...)
	return r
}
