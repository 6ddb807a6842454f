package inventory

import (
	"time"

	"github.com/Spok95/esencia/internal/domain/materials"
	"github.com/Spok95/esencia/internal/domain/packaging"
	"github.com/Spok95/esencia/internal/domain/recipes"
	"github.com/Spok95/esencia/internal/domain/sales"
)

type MoveType string

const (
	MoveIn  MoveType = "in"
	MoveOut MoveType = "out"
)

type ItemKind string

const (
	KindMaterial  ItemKind = "material"
	KindPackaging ItemKind = "packaging"
	KindRecipe    ItemKind = "recipe"
)

// Movement logs one stock change made by a production or a sale.
type Movement struct {
	ID        string    `json:"id" msgpack:"id"`
	CreatedAt time.Time `json:"createdAt" msgpack:"createdAt"`
	Kind      ItemKind  `json:"kind" msgpack:"kind"`
	ItemID    string    `json:"itemId" msgpack:"itemId"`
	Qty       float64   `json:"qty" msgpack:"qty"`
	Type      MoveType  `json:"type" msgpack:"type"`
	Note      string    `json:"note" msgpack:"note"`
}

// Snapshot is the full owned state of a Store.
type Snapshot struct {
	Materials []materials.Material `json:"insumos" msgpack:"insumos"`
	Packaging []packaging.Item     `json:"packaging" msgpack:"packaging"`
	Recipes   []recipes.Recipe     `json:"recetas" msgpack:"recetas"`
	Sales     []sales.Record       `json:"ventasRealizadas" msgpack:"ventasRealizadas"`
	Movements []Movement           `json:"movimientos,omitempty" msgpack:"movimientos,omitempty"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Materials: append([]materials.Material{}, s.Materials...),
		Packaging: append([]packaging.Item{}, s.Packaging...),
		Recipes:   make([]recipes.Recipe, len(s.Recipes)),
		Sales:     make([]sales.Record, len(s.Sales)),
		Movements: append([]Movement{}, s.Movements...),
	}
	for i, r := range s.Recipes {
		out.Recipes[i] = r.Clone()
	}
	for i, r := range s.Sales {
		out.Sales[i] = r.Clone()
	}
	return out
}
