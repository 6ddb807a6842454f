package inventory

import (
	"errors"
	"fmt"

	"github.com/Spok95/esencia/internal/domain/materials"
	"github.com/Spok95/esencia/internal/domain/packaging"
	"github.com/Spok95/esencia/internal/domain/recipes"
	"github.com/Spok95/esencia/internal/domain/sales"
	"github.com/Spok95/esencia/internal/domain/units"
)

func (s *Store) Materials() []materials.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]materials.Material(nil), s.state.Materials...)
}

func (s *Store) Material(id string) (materials.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.materialIndex(id); i >= 0 {
		return s.state.Materials[i], nil
	}
	return materials.Material{}, fmt.Errorf("material %s: %w", id, ErrNotFound)
}

func (s *Store) UpsertMaterial(m materials.Material) (materials.Material, error) {
	m.UpdatedAt = ""
	m = materials.New(m, s.now())
	if err := m.Validate(); err != nil {
		return materials.Material{}, invalid(err)
	}

	s.lock()
	next := append([]materials.Material(nil), s.state.Materials...)
	if i := s.materialIndex(m.ID); i >= 0 {
		next[i] = m
	} else {
		next = append(next, m)
	}
	s.state.Materials = next
	s.log.Debug("material saved", "material_id", m.ID, "stock", m.Stock, "unit", m.StockUnit)
	s.commitLocked(Event{Type: EventCatalog})
	return m, nil
}

func (s *Store) DeleteMaterial(id string) error {
	s.lock()
	i := s.materialIndex(id)
	if i < 0 {
		s.unlock()
		return fmt.Errorf("material %s: %w", id, ErrNotFound)
	}
	next := append([]materials.Material(nil), s.state.Materials[:i]...)
	s.state.Materials = append(next, s.state.Materials[i+1:]...)
	s.log.Debug("material deleted", "material_id", id)
	s.commitLocked(Event{Type: EventCatalog})
	return nil
}

// PriceChange sets the package price of one material.
type PriceChange struct {
	MaterialID string  `json:"id"`
	Price      float64 `json:"precio"`
}

// UpdatePrices applies every change or none. Ingredient lines keep the
// price they were added with.
func (s *Store) UpdatePrices(changes []PriceChange) (int, error) {
	for _, c := range changes {
		if c.Price < 0 {
			return 0, invalid(fmt.Errorf("material %s: price must be >= 0", c.MaterialID))
		}
	}

	s.lock()
	next := append([]materials.Material(nil), s.state.Materials...)
	today := s.today()
	updated := 0
	for _, c := range changes {
		i := s.materialIndex(c.MaterialID)
		if i < 0 {
			s.unlock()
			return 0, fmt.Errorf("material %s: %w", c.MaterialID, ErrNotFound)
		}
		if next[i].Price == c.Price {
			continue
		}
		next[i].Price = c.Price
		next[i].UpdatedAt = today
		updated++
	}
	if updated == 0 {
		s.unlock()
		return 0, nil
	}
	s.state.Materials = next
	s.log.Info("material prices updated", "rows", len(changes), "updated", updated)
	s.commitLocked(Event{Type: EventCatalog})
	return updated, nil
}

func (s *Store) Packaging() []packaging.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]packaging.Item(nil), s.state.Packaging...)
}

func (s *Store) UpsertPackaging(it packaging.Item) (packaging.Item, error) {
	it.UpdatedAt = ""
	it = packaging.New(it, s.now())
	if err := it.Validate(); err != nil {
		return packaging.Item{}, invalid(err)
	}

	s.lock()
	next := append([]packaging.Item(nil), s.state.Packaging...)
	if i := s.packagingIndex(it.ID); i >= 0 {
		next[i] = it
	} else {
		next = append(next, it)
	}
	s.state.Packaging = next
	s.log.Debug("packaging saved", "packaging_id", it.ID, "stock", it.Stock)
	s.commitLocked(Event{Type: EventCatalog})
	return it, nil
}

func (s *Store) DeletePackaging(id string) error {
	s.lock()
	i := s.packagingIndex(id)
	if i < 0 {
		s.unlock()
		return fmt.Errorf("packaging %s: %w", id, ErrNotFound)
	}
	next := append([]packaging.Item(nil), s.state.Packaging[:i]...)
	s.state.Packaging = append(next, s.state.Packaging[i+1:]...)
	s.log.Debug("packaging deleted", "packaging_id", id)
	s.commitLocked(Event{Type: EventCatalog})
	return nil
}

func (s *Store) Recipes() []recipes.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recipes.Recipe, len(s.state.Recipes))
	for i, r := range s.state.Recipes {
		out[i] = r.Clone()
	}
	return out
}

func (s *Store) Recipe(id string) (recipes.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.recipeIndex(id); i >= 0 {
		return s.state.Recipes[i].Clone(), nil
	}
	return recipes.Recipe{}, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
}

// UpsertRecipe saves r and caches its production cost. The finished-good
// stock of an existing recipe is kept: only Produce and Sell change it.
func (s *Store) UpsertRecipe(r recipes.Recipe) (recipes.Recipe, error) {
	r = recipes.New(r.Clone(), s.now())
	if err := r.Validate(); err != nil {
		return recipes.Recipe{}, invalid(err)
	}

	s.lock()
	next := append([]recipes.Recipe(nil), s.state.Recipes...)
	if i := s.recipeIndex(r.ID); i >= 0 {
		r.Stock = next[i].Stock
		next[i] = r
	} else {
		next = append(next, r)
	}
	r = s.saveRecipeLocked(r, next)
	s.commitLocked(Event{Type: EventCatalog})
	return r, nil
}

// saveRecipeLocked recomputes r's cost against list (which already holds r)
// and installs list.
func (s *Store) saveRecipeLocked(r recipes.Recipe, list []recipes.Recipe) recipes.Recipe {
	r.Cost = s.recipeCost(r, list)
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = r
		}
	}
	s.state.Recipes = list
	s.log.Debug("recipe saved", "recipe_id", r.ID, "cost", r.Cost, "ingredients", len(r.Ingredients))
	return r.Clone()
}

func (s *Store) DeleteRecipe(id string) error {
	s.lock()
	i := s.recipeIndex(id)
	if i < 0 {
		s.unlock()
		return fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	next := append([]recipes.Recipe(nil), s.state.Recipes[:i]...)
	s.state.Recipes = append(next, s.state.Recipes[i+1:]...)
	s.log.Debug("recipe deleted", "recipe_id", id)
	s.commitLocked(Event{Type: EventCatalog})
	return nil
}

// IngredientRequest adds either a material line (MaterialID, Quantity in
// Unit) or a sub-recipe line (RecipeID, Quantity in sellable units).
type IngredientRequest struct {
	MaterialID string     `json:"idInsumo"`
	RecipeID   string     `json:"idReferencia"`
	Quantity   float64    `json:"cantidad"`
	Unit       units.Unit `json:"unidad"`
}

func (r IngredientRequest) Validate() error {
	if (r.MaterialID == "") == (r.RecipeID == "") {
		return errors.New("exactly one of material or recipe reference is required")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	if r.MaterialID != "" && r.Unit != "" && !r.Unit.Valid() {
		return fmt.Errorf("unknown unit %q", r.Unit)
	}
	return nil
}

// AddIngredient appends a line to a recipe, snapshotting the material's
// current price, and recomputes the cached cost.
func (s *Store) AddIngredient(recipeID string, req IngredientRequest) (recipes.Recipe, error) {
	if err := req.Validate(); err != nil {
		return recipes.Recipe{}, invalid(err)
	}

	s.lock()
	ri := s.recipeIndex(recipeID)
	if ri < 0 {
		s.unlock()
		return recipes.Recipe{}, fmt.Errorf("recipe %s: %w", recipeID, ErrNotFound)
	}

	var line recipes.Ingredient
	if req.MaterialID != "" {
		mi := s.materialIndex(req.MaterialID)
		if mi < 0 {
			s.unlock()
			return recipes.Recipe{}, fmt.Errorf("material %s: %w", req.MaterialID, ErrNotFound)
		}
		m := s.state.Materials[mi]
		unit := req.Unit
		if unit == "" {
			unit = m.PackageUnit
		}
		line = recipes.NewMaterialIngredient(m, req.Quantity, unit)
	} else {
		if req.RecipeID == recipeID {
			s.unlock()
			return recipes.Recipe{}, invalid(errors.New("recipe cannot reference itself"))
		}
		ref := s.recipeIndex(req.RecipeID)
		if ref < 0 {
			s.unlock()
			return recipes.Recipe{}, fmt.Errorf("recipe %s: %w", req.RecipeID, ErrNotFound)
		}
		line = recipes.NewRecipeIngredient(s.state.Recipes[ref], req.Quantity)
	}

	r := s.state.Recipes[ri].Clone()
	r.Ingredients = append(r.Ingredients, line)
	next := append([]recipes.Recipe(nil), s.state.Recipes...)
	next[ri] = r
	r = s.saveRecipeLocked(r, next)
	s.commitLocked(Event{Type: EventCatalog})
	return r, nil
}

// Costing is a recipe's cost at every granularity.
type Costing struct {
	RecipeID      string  `json:"recetaId"`
	Total         float64 `json:"costo"`
	AbsoluteUnits int     `json:"unidades"`
	PerUnit       float64 `json:"costoPorUnidad"`
	PerDozen      float64 `json:"costoPorDocena,omitempty"`
}

func (s *Store) RecipeCosting(id string) (Costing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.recipeIndex(id)
	if i < 0 {
		return Costing{}, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	r := s.state.Recipes[i]
	total := s.recipeCost(r, s.state.Recipes)
	c := Costing{
		RecipeID:      r.ID,
		Total:         total,
		AbsoluteUnits: recipes.AbsoluteUnits(r),
		PerUnit:       recipes.CostPerUnit(r, total),
	}
	if recipes.ShowsDozen(r) {
		c.PerDozen = recipes.CostPerDozen(c.PerUnit)
	}
	return c, nil
}

type LowStockReport struct {
	Materials []materials.Material `json:"insumos"`
	Packaging []packaging.Item     `json:"packaging"`
}

func (r LowStockReport) Count() int { return len(r.Materials) + len(r.Packaging) }

func (s *Store) LowStock() LowStockReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep := LowStockReport{Materials: []materials.Material{}, Packaging: []packaging.Item{}}
	for _, m := range s.state.Materials {
		if m.IsLow() {
			rep.Materials = append(rep.Materials, m)
		}
	}
	for _, p := range s.state.Packaging {
		if p.IsLow() {
			rep.Packaging = append(rep.Packaging, p)
		}
	}
	return rep
}

type Dashboard struct {
	sales.Summary
	LowStockMaterials int `json:"insumosStockBajo"`
	Recipes           int `json:"recetas"`
}

// Dashboard summarizes sales for day (YYYY-MM-DD; today when empty).
func (s *Store) Dashboard(day string) Dashboard {
	if day == "" {
		day = s.today()
	}
	low := s.LowStock()
	s.mu.RLock()
	d := Dashboard{
		Summary:           sales.Summarize(s.state.Sales, day),
		LowStockMaterials: len(low.Materials),
		Recipes:           len(s.state.Recipes),
	}
	s.mu.RUnlock()
	return d
}
