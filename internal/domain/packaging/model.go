package packaging

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/esencia/internal/domain/units"
)

// LowStock is the fixed alert threshold for packaging.
const LowStock = 10

// Item is a consumable debited per unit sold alongside a recipe.
type Item struct {
	ID        string     `json:"id" msgpack:"id"`
	Name      string     `json:"nombre" msgpack:"nombre"`
	Price     float64    `json:"precio" msgpack:"precio"`
	Stock     float64    `json:"stock" msgpack:"stock"`
	StockUnit units.Unit `json:"unidadStock" msgpack:"unidadStock"`
	UpdatedAt string     `json:"fechaActualizacion" msgpack:"fechaActualizacion"`
}

func New(it Item, now time.Time) Item {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.StockUnit == "" {
		it.StockUnit = units.Piece
	}
	if it.UpdatedAt == "" {
		it.UpdatedAt = now.Format(time.DateOnly)
	}
	return it
}

func (it Item) Validate() error {
	switch {
	case it.Name == "":
		return errors.New("packaging name is required")
	case it.Price < 0:
		return errors.New("price must be >= 0")
	case it.Stock < 0:
		return errors.New("stock must be >= 0")
	}
	return nil
}

func (it Item) IsLow() bool { return it.Stock < LowStock }
