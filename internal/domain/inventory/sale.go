package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/esencia/internal/domain/packaging"
	"github.com/Spok95/esencia/internal/domain/pricing"
	"github.com/Spok95/esencia/internal/domain/recipes"
	"github.com/Spok95/esencia/internal/domain/sales"
	"github.com/Spok95/esencia/internal/domain/units"
)

// PackagingSelection asks for QuantityPerUnit of a packaging item for every unit sold.
type PackagingSelection struct {
	PackagingID     string `json:"id"`
	QuantityPerUnit int    `json:"cantidad"`
}

type SaleRequest struct {
	RecipeID   string               `json:"recetaId"`
	Client     string               `json:"cliente"`
	Units      int                  `json:"cantidadUnidades"`
	Packaging  []PackagingSelection `json:"packagings"`
	Overheads  pricing.Overheads    `json:"overheads"`
	TotalPrice float64              `json:"precioTotal"`
	Date       string               `json:"fecha"` // YYYY-MM-DD, defaults to today
}

func (r SaleRequest) Validate() error {
	if r.RecipeID == "" {
		return errors.New("recipe id is required")
	}
	if r.Units <= 0 {
		return errors.New("units must be > 0")
	}
	if r.Units > maxQuantity {
		return fmt.Errorf("units must be <= %d", maxQuantity)
	}
	if r.TotalPrice < 0 {
		return errors.New("total price must be >= 0")
	}
	if r.Date != "" {
		if _, err := time.Parse(time.DateOnly, r.Date); err != nil {
			return fmt.Errorf("date %q: expected YYYY-MM-DD", r.Date)
		}
	}
	for _, p := range r.Packaging {
		if p.PackagingID == "" {
			return errors.New("packaging selections need an id")
		}
		if err := p.validateQuantity(); err != nil {
			return err
		}
	}
	return r.Overheads.Validate()
}

func (p PackagingSelection) validateQuantity() error {
	if p.QuantityPerUnit <= 0 || p.QuantityPerUnit > maxQuantity {
		return fmt.Errorf("packaging %s: quantity must be in 1..%d", p.PackagingID, maxQuantity)
	}
	return nil
}

// packagingLines resolves selections into price snapshots. Caller holds mu.
func (s *Store) packagingLines(sel []PackagingSelection) ([]pricing.PackagingLine, []int, error) {
	lines := make([]pricing.PackagingLine, 0, len(sel))
	idx := make([]int, 0, len(sel))
	for _, p := range sel {
		pi := s.packagingIndex(p.PackagingID)
		if pi < 0 {
			return nil, nil, fmt.Errorf("packaging %s: %w", p.PackagingID, ErrNotFound)
		}
		it := s.state.Packaging[pi]
		lines = append(lines, pricing.PackagingLine{
			PackagingID:     it.ID,
			Name:            it.Name,
			QuantityPerUnit: p.QuantityPerUnit,
			Price:           it.Price,
		})
		idx = append(idx, pi)
	}
	return lines, idx, nil
}

// Sell records a sale: it debits finished units and packaging and appends
// an immutable record, all in one commit. Finished-good stock is checked
// first; then every short packaging item is reported.
func (s *Store) Sell(req SaleRequest) (sales.Record, error) {
	if err := req.Validate(); err != nil {
		return sales.Record{}, invalid(err)
	}

	s.lock()
	ri := s.recipeIndex(req.RecipeID)
	if ri < 0 {
		s.unlock()
		return sales.Record{}, fmt.Errorf("recipe %s: %w", req.RecipeID, ErrNotFound)
	}
	r := s.state.Recipes[ri]

	if r.Stock < req.Units {
		return sales.Record{}, s.rejectLocked(&RejectionError{Operation: "sale", Shortfalls: []Shortfall{{
			Kind:      KindRecipe,
			ItemID:    r.ID,
			Name:      r.Name,
			Needed:    float64(req.Units),
			Available: float64(r.Stock),
			Unit:      units.Piece,
		}}})
	}

	lines, idx, err := s.packagingLines(req.Packaging)
	if err != nil {
		s.unlock()
		return sales.Record{}, err
	}

	needed := map[int]float64{}
	var order []int
	for i, l := range lines {
		pi := idx[i]
		if _, ok := needed[pi]; !ok {
			order = append(order, pi)
		}
		needed[pi] += float64(l.QuantityPerUnit) * float64(req.Units)
	}
	var shortfalls []Shortfall
	for _, pi := range order {
		it := s.state.Packaging[pi]
		if it.Stock+epsilon < needed[pi] {
			shortfalls = append(shortfalls, Shortfall{
				Kind:      KindPackaging,
				ItemID:    it.ID,
				Name:      it.Name,
				Needed:    needed[pi],
				Available: it.Stock,
				Unit:      it.StockUnit,
			})
		}
	}
	if len(shortfalls) > 0 {
		return sales.Record{}, s.rejectLocked(&RejectionError{Operation: "sale", Shortfalls: shortfalls})
	}

	recipeCost := s.recipeCost(r, s.state.Recipes)
	b := pricing.CostBasis(recipes.CostPerUnit(r, recipeCost), req.Units, lines, req.Overheads)
	profit, margin := pricing.Profit(req.TotalPrice, b.Total)

	date := req.Date
	if date == "" {
		date = s.today()
	}
	rec := sales.Record{
		ID:           uuid.NewString(),
		Client:       req.Client,
		RecipeID:     r.ID,
		RecipeName:   r.Name,
		Units:        req.Units,
		Price:        req.TotalPrice,
		PricePerUnit: req.TotalPrice / float64(req.Units),
		TotalCost:    b.Total,
		CostPerUnit:  b.CostPerUnit,
		Profit:       profit,
		Margin:       margin,
		Packaging:    lines,
		Overheads:    req.Overheads,
		Date:         date,
		CreatedAt:    s.now(),
	}

	nextRecipes := append([]recipes.Recipe(nil), s.state.Recipes...)
	nextPackaging := append([]packaging.Item(nil), s.state.Packaging...)
	nextSales := append(append([]sales.Record(nil), s.state.Sales...), rec)
	moves := append([]Movement(nil), s.state.Movements...)

	note := "sale: " + rec.ID
	sold := nextRecipes[ri].Clone()
	sold.Stock -= req.Units
	nextRecipes[ri] = sold
	moves = append(moves, s.movement(KindRecipe, r.ID, float64(req.Units), MoveOut, note))
	for _, pi := range order {
		it := &nextPackaging[pi]
		it.Stock -= needed[pi]
		if it.Stock < 0 {
			it.Stock = 0
		}
		moves = append(moves, s.movement(KindPackaging, it.ID, needed[pi], MoveOut, note))
	}

	s.state.Recipes = nextRecipes
	s.state.Packaging = nextPackaging
	s.state.Sales = nextSales
	s.state.Movements = moves

	s.log.Info("sale committed",
		"sale_id", rec.ID,
		"recipe_id", r.ID,
		"units", rec.Units,
		"price", rec.Price,
		"cost", rec.TotalCost,
		"margin", rec.Margin,
		"stock_before", r.Stock,
		"stock_after", sold.Stock,
	)
	out := rec.Clone()
	s.commitLocked(Event{Type: EventSold, Sale: &out})
	return rec, nil
}

// DeleteSale removes a record from the log. Stock debited by the sale is
// not restored.
func (s *Store) DeleteSale(id string) error {
	s.lock()
	pos := -1
	for i, r := range s.state.Sales {
		if r.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		s.unlock()
		return fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	next := make([]sales.Record, 0, len(s.state.Sales)-1)
	next = append(next, s.state.Sales[:pos]...)
	next = append(next, s.state.Sales[pos+1:]...)
	s.state.Sales = next

	s.log.Info("sale deleted", "sale_id", id)
	s.commitLocked(Event{Type: EventSaleDeleted})
	return nil
}

// Quote prices a recipe without validating or touching stock.
func (s *Store) Quote(recipeID string, sel []PackagingSelection, in pricing.QuoteInput) (pricing.Quote, error) {
	if err := in.Validate(); err != nil {
		return pricing.Quote{}, invalid(err)
	}
	for _, p := range sel {
		if err := p.validateQuantity(); err != nil {
			return pricing.Quote{}, invalid(err)
		}
	}

	s.mu.RLock()
	ri := s.recipeIndex(recipeID)
	if ri < 0 {
		s.mu.RUnlock()
		return pricing.Quote{}, fmt.Errorf("recipe %s: %w", recipeID, ErrNotFound)
	}
	r := s.state.Recipes[ri].Clone()
	list := append([]recipes.Recipe(nil), s.state.Recipes...)
	lines, _, err := s.packagingLines(sel)
	s.mu.RUnlock()
	if err != nil {
		return pricing.Quote{}, err
	}

	in.Packaging = append(in.Packaging, lines...)
	q := pricing.Calculate(r, recipes.LookupFrom(list), in)
	for _, g := range q.Gaps {
		s.log.Warn("recipe reference not costed", "recipe_id", g.RecipeID, "ref_id", g.RefID, "cycle", g.Cycle)
	}
	return q, nil
}
