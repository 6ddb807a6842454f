package recipes

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/esencia/internal/domain/materials"
	"github.com/Spok95/esencia/internal/domain/units"
)

type Kind string

const (
	KindMaterial Kind = "insumo"
	KindRecipe   Kind = "receta"
)

// Ingredient is one line of a recipe. Material lines hold the quantity in
// the material's package unit and a unit price snapshot; recipe lines hold
// the number of sub-recipe units consumed.
type Ingredient struct {
	Kind             Kind       `json:"tipo" msgpack:"tipo"`
	ID               string     `json:"id" msgpack:"id"`
	MaterialID       string     `json:"idInsumo,omitempty" msgpack:"idInsumo,omitempty"`
	RecipeID         string     `json:"idReferencia,omitempty" msgpack:"idReferencia,omitempty"`
	Name             string     `json:"nombre" msgpack:"nombre"`
	Quantity         float64    `json:"cantidad" msgpack:"cantidad"`
	Unit             units.Unit `json:"unidad,omitempty" msgpack:"unidad,omitempty"`
	OriginalQuantity float64    `json:"cantidadOriginal,omitempty" msgpack:"cantidadOriginal,omitempty"`
	OriginalUnit     units.Unit `json:"unidadOriginal,omitempty" msgpack:"unidadOriginal,omitempty"`
	UnitPrice        float64    `json:"precioUnitario,omitempty" msgpack:"precioUnitario,omitempty"`
}

// NewMaterialIngredient converts qty from the entered unit into the
// material's package unit and snapshots the current price per package unit.
func NewMaterialIngredient(m materials.Material, qty float64, unit units.Unit) Ingredient {
	return Ingredient{
		Kind:             KindMaterial,
		ID:               uuid.NewString(),
		MaterialID:       m.ID,
		Name:             m.Name,
		Quantity:         units.Convert(qty, unit, m.PackageUnit),
		Unit:             m.PackageUnit,
		OriginalQuantity: qty,
		OriginalUnit:     unit,
		UnitPrice:        m.PricePerBaseUnit(),
	}
}

func NewRecipeIngredient(ref Recipe, qty float64) Ingredient {
	return Ingredient{
		Kind:     KindRecipe,
		ID:       uuid.NewString(),
		RecipeID: ref.ID,
		Name:     ref.Name,
		Quantity: qty,
	}
}

type YieldUnit string

const (
	YieldPiece    YieldUnit = "unidad"
	YieldDozen    YieldUnit = "docena"
	YieldPortion  YieldUnit = "porcion"
	YieldKilogram YieldUnit = "kg"
)

func (y YieldUnit) Valid() bool {
	switch y {
	case YieldPiece, YieldDozen, YieldPortion, YieldKilogram:
		return true
	}
	return false
}

// Recipe is a bill of materials. Stock is always counted in sellable units.
type Recipe struct {
	ID            string       `json:"id" msgpack:"id"`
	Name          string       `json:"nombre" msgpack:"nombre"`
	Ingredients   []Ingredient `json:"ingredientes" msgpack:"ingredientes"`
	Cost          float64      `json:"costo" msgpack:"costo"`
	Stock         int          `json:"stock" msgpack:"stock"`
	YieldQuantity int          `json:"rendimientoUnidades" msgpack:"rendimientoUnidades"`
	YieldUnit     YieldUnit    `json:"unidadRendimiento" msgpack:"unidadRendimiento"`
	CreatedAt     string       `json:"fechaCreacion" msgpack:"fechaCreacion"`
	Image         string       `json:"imagen,omitempty" msgpack:"imagen,omitempty"`
}

// New returns r with every optional field populated.
func New(r Recipe, now time.Time) Recipe {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.YieldQuantity < 1 {
		r.YieldQuantity = 1
	}
	if r.YieldUnit == "" {
		r.YieldUnit = YieldPiece
	}
	if r.CreatedAt == "" {
		r.CreatedAt = now.Format(time.DateOnly)
	}
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	for i := range r.Ingredients {
		if r.Ingredients[i].ID == "" {
			r.Ingredients[i].ID = uuid.NewString()
		}
	}
	return r
}

func (r Recipe) Validate() error {
	if r.Name == "" {
		return errors.New("recipe name is required")
	}
	if !r.YieldUnit.Valid() {
		return fmt.Errorf("unknown yield unit %q", r.YieldUnit)
	}
	if r.Stock < 0 {
		return errors.New("stock must be >= 0")
	}
	for _, ing := range r.Ingredients {
		if ing.Quantity <= 0 {
			return fmt.Errorf("ingredient %q: quantity must be > 0", ing.Name)
		}
		switch ing.Kind {
		case KindMaterial:
			if ing.MaterialID == "" {
				return fmt.Errorf("ingredient %q: material reference is required", ing.Name)
			}
		case KindRecipe:
			if ing.RecipeID == "" {
				return fmt.Errorf("ingredient %q: recipe reference is required", ing.Name)
			}
			if ing.RecipeID == r.ID {
				return fmt.Errorf("ingredient %q: recipe cannot reference itself", ing.Name)
			}
		default:
			return fmt.Errorf("ingredient %q: unknown kind %q", ing.Name, ing.Kind)
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with r.
func (r Recipe) Clone() Recipe {
	r.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	return r
}
