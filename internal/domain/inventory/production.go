package inventory

import (
	"errors"
	"fmt"
	"math"

	"github.com/Spok95/esencia/internal/domain/materials"
	"github.com/Spok95/esencia/internal/domain/recipes"
	"github.com/Spok95/esencia/internal/domain/units"
)

type ProductionMode string

const (
	ModeWholeRecipe ProductionMode = "completa"
	ModeLooseUnits  ProductionMode = "unidades"
)

// epsilon absorbs float noise when comparing stock against a draw.
const epsilon = 1e-9

// maxQuantity bounds every requested count so products of two counts stay
// inside int.
const maxQuantity = 1_000_000_000

type ProductionRequest struct {
	RecipeID string         `json:"recetaId"`
	Mode     ProductionMode `json:"modo"`
	Quantity int            `json:"cantidad"`
}

func (r ProductionRequest) Validate() error {
	if r.RecipeID == "" {
		return errors.New("recipe id is required")
	}
	if r.Mode != ModeWholeRecipe && r.Mode != ModeLooseUnits {
		return fmt.Errorf("unknown production mode %q", r.Mode)
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	if r.Quantity > maxQuantity {
		return fmt.Errorf("quantity must be <= %d", maxQuantity)
	}
	return nil
}

// Draw is the amount taken from one material, in its stock unit.
type Draw struct {
	MaterialID string     `json:"idInsumo"`
	Name       string     `json:"nombre"`
	Qty        float64    `json:"cantidad"`
	Unit       units.Unit `json:"unidad"`
	StockAfter float64    `json:"stockFinal"`
}

type ProductionResult struct {
	RecipeID    string  `json:"recetaId"`
	RecipeName  string  `json:"recetaNombre"`
	TargetUnits int     `json:"unidades"`
	Factor      float64 `json:"factor"`
	Draws       []Draw  `json:"consumos"`
	StockBefore int     `json:"stockAnterior"`
	StockAfter  int     `json:"stockNuevo"`
	Message     string  `json:"mensaje"`
}

// productionPlan is the validated outcome of a production before it is applied.
type productionPlan struct {
	target     int
	factor     float64
	draws      []Draw
	index      []int // material index per draw
	shortfalls []Shortfall
}

// planProduction computes the draw per material, summing lines that share a
// material. Recipe lines and lines whose material no longer exists draw nothing.
func (s *Store) planProduction(r recipes.Recipe, req ProductionRequest) (productionPlan, error) {
	perBatch := recipes.AbsoluteUnits(r)
	if perBatch <= 0 {
		return productionPlan{}, fmt.Errorf("recipe %s: yield out of range", r.ID)
	}
	target := req.Quantity
	if req.Mode == ModeWholeRecipe {
		if req.Quantity > math.MaxInt/perBatch {
			return productionPlan{}, fmt.Errorf("%d batches of %d units overflow", req.Quantity, perBatch)
		}
		target = req.Quantity * perBatch
	}
	if target <= 0 || target > math.MaxInt-r.Stock {
		return productionPlan{}, fmt.Errorf("target of %d units out of range", target)
	}
	p := productionPlan{target: target, factor: float64(target) / float64(perBatch)}

	pos := map[string]int{}
	for _, ing := range r.Ingredients {
		if ing.Kind != recipes.KindMaterial {
			continue
		}
		mi := s.materialIndex(ing.MaterialID)
		if mi < 0 {
			s.log.Warn("ingredient material not found", "recipe_id", r.ID, "material_id", ing.MaterialID)
			continue
		}
		m := s.state.Materials[mi]
		need := units.Convert(ing.Quantity*p.factor, ing.Unit, m.StockUnit)
		if i, ok := pos[m.ID]; ok {
			p.draws[i].Qty += need
			continue
		}
		pos[m.ID] = len(p.draws)
		p.draws = append(p.draws, Draw{MaterialID: m.ID, Name: m.Name, Qty: need, Unit: m.StockUnit})
		p.index = append(p.index, mi)
	}

	for i, d := range p.draws {
		m := s.state.Materials[p.index[i]]
		if m.Stock+epsilon < d.Qty {
			p.shortfalls = append(p.shortfalls, Shortfall{
				Kind:      KindMaterial,
				ItemID:    m.ID,
				Name:      m.Name,
				Needed:    d.Qty,
				Available: m.Stock,
				Unit:      m.StockUnit,
			})
		}
	}
	return p, nil
}

// Produce converts raw-material stock into finished units of a recipe.
// Either every material is debited and the recipe credited, or, when any
// material is short, nothing changes and a *RejectionError lists them all.
func (s *Store) Produce(req ProductionRequest) (ProductionResult, error) {
	if err := req.Validate(); err != nil {
		return ProductionResult{}, invalid(err)
	}

	s.lock()
	ri := s.recipeIndex(req.RecipeID)
	if ri < 0 {
		s.unlock()
		return ProductionResult{}, fmt.Errorf("recipe %s: %w", req.RecipeID, ErrNotFound)
	}
	r := s.state.Recipes[ri]

	plan, err := s.planProduction(r, req)
	if err != nil {
		s.unlock()
		return ProductionResult{}, invalid(err)
	}
	if len(plan.shortfalls) > 0 {
		return ProductionResult{}, s.rejectLocked(&RejectionError{Operation: "production", Shortfalls: plan.shortfalls})
	}

	nextMaterials := append([]materials.Material(nil), s.state.Materials...)
	nextRecipes := append([]recipes.Recipe(nil), s.state.Recipes...)
	moves := append([]Movement(nil), s.state.Movements...)

	note := "production: " + r.Name
	for i, d := range plan.draws {
		m := &nextMaterials[plan.index[i]]
		m.Stock -= d.Qty
		if m.Stock < 0 {
			m.Stock = 0
		}
		plan.draws[i].StockAfter = m.Stock
		moves = append(moves, s.movement(KindMaterial, m.ID, d.Qty, MoveOut, note))
	}
	produced := nextRecipes[ri].Clone()
	produced.Stock += plan.target
	nextRecipes[ri] = produced
	moves = append(moves, s.movement(KindRecipe, r.ID, float64(plan.target), MoveIn, note))

	s.state.Materials = nextMaterials
	s.state.Recipes = nextRecipes
	s.state.Movements = moves

	res := ProductionResult{
		RecipeID:    r.ID,
		RecipeName:  r.Name,
		TargetUnits: plan.target,
		Factor:      plan.factor,
		Draws:       plan.draws,
		StockBefore: r.Stock,
		StockAfter:  produced.Stock,
	}
	res.Message = fmt.Sprintf("Produced %d units of %s. Stock: %d → %d units", res.TargetUnits, r.Name, res.StockBefore, res.StockAfter)

	s.log.Info("production committed",
		"recipe_id", r.ID,
		"units", res.TargetUnits,
		"factor", res.Factor,
		"stock_before", res.StockBefore,
		"stock_after", res.StockAfter,
	)
	s.commitLocked(Event{Type: EventProduced, Production: &res})
	return res, nil
}
