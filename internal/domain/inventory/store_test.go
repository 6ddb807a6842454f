package inventory

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/esencia/internal/domain/materials"
	"github.com/Spok95/esencia/internal/domain/packaging"
	"github.com/Spok95/esencia/internal/domain/pricing"
	"github.com/Spok95/esencia/internal/domain/recipes"
	"github.com/Spok95/esencia/internal/domain/units"
)

var fixedNow = time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

// breadStore holds Flour (5000 g at 0.01/g), Butter (1 kg at 8/kg),
// a Box packaging and Bread: 10 units from 500 g flour.
func breadStore(t *testing.T) *Store {
	t.Helper()
	snap := Snapshot{
		Materials: []materials.Material{
			{ID: "flour", Name: "Flour", PackageSize: 1000, PackageUnit: units.Gram, Price: 10, Stock: 5000, StockUnit: units.Gram},
			{ID: "butter", Name: "Butter", PackageSize: 1, PackageUnit: units.Kilo, Price: 8, Stock: 1, StockUnit: units.Kilo},
		},
		Packaging: []packaging.Item{
			{ID: "box", Name: "Box", Price: 0.5, Stock: 20, StockUnit: units.Piece},
			{ID: "ribbon", Name: "Ribbon", Price: 0.1, Stock: 4, StockUnit: units.Meter},
		},
		Recipes: []recipes.Recipe{{
			ID:            "bread",
			Name:          "Bread",
			YieldQuantity: 10,
			YieldUnit:     recipes.YieldPiece,
			Ingredients: []recipes.Ingredient{
				{Kind: recipes.KindMaterial, MaterialID: "flour", Name: "Flour", Quantity: 500, Unit: units.Gram, UnitPrice: 0.01},
			},
		}},
	}
	return NewStore(snap, nil, WithClock(func() time.Time { return fixedNow }))
}

func materialStock(t *testing.T, s *Store, id string) float64 {
	t.Helper()
	m, err := s.Material(id)
	if err != nil {
		t.Fatalf("Material(%s): %v", id, err)
	}
	return m.Stock
}

func recipeStock(t *testing.T, s *Store, id string) int {
	t.Helper()
	r, err := s.Recipe(id)
	if err != nil {
		t.Fatalf("Recipe(%s): %v", id, err)
	}
	return r.Stock
}

func TestProduce_WholeRecipe(t *testing.T) {
	s := breadStore(t)

	res, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if res.TargetUnits != 10 || res.StockBefore != 0 || res.StockAfter != 10 {
		t.Fatalf("result = %+v", res)
	}
	nearlyEqual(t, "factor", res.Factor, 1)
	nearlyEqual(t, "flour stock", materialStock(t, s, "flour"), 4500)
	nearlyEqual(t, "butter stock", materialStock(t, s, "butter"), 1)
	if got := recipeStock(t, s, "bread"); got != 10 {
		t.Fatalf("bread stock = %d, want 10", got)
	}
	if res.Message == "" {
		t.Fatalf("expected confirmation message")
	}
}

func TestProduce_LooseUnitsUsesFractionalFactor(t *testing.T) {
	s := breadStore(t)

	res, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeLooseUnits, Quantity: 3})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	nearlyEqual(t, "factor", res.Factor, 0.3)
	nearlyEqual(t, "flour stock", materialStock(t, s, "flour"), 4850)
	if got := recipeStock(t, s, "bread"); got != 3 {
		t.Fatalf("bread stock = %d, want 3", got)
	}
}

func TestProduce_ConvertsIntoStockUnit(t *testing.T) {
	s := breadStore(t)
	if _, err := s.UpsertRecipe(recipes.Recipe{
		ID:            "croissant",
		Name:          "Croissant",
		YieldQuantity: 2,
		YieldUnit:     recipes.YieldDozen,
		Ingredients: []recipes.Ingredient{
			// butter package unit is kilo; line holds 0.25 kg, stock is kept in kilo too
			{Kind: recipes.KindMaterial, MaterialID: "butter", Quantity: 0.25, Unit: units.Kilo, UnitPrice: 8},
			// flour line expressed in kilo against a gram stock
			{Kind: recipes.KindMaterial, MaterialID: "flour", Quantity: 1, Unit: units.Kilo, UnitPrice: 10},
		},
	}); err != nil {
		t.Fatalf("UpsertRecipe: %v", err)
	}

	res, err := s.Produce(ProductionRequest{RecipeID: "croissant", Mode: ModeWholeRecipe, Quantity: 2})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if res.TargetUnits != 48 {
		t.Fatalf("target = %d, want 48", res.TargetUnits)
	}
	nearlyEqual(t, "butter stock", materialStock(t, s, "butter"), 0.5)
	nearlyEqual(t, "flour stock", materialStock(t, s, "flour"), 3000)
}

func TestProduce_RejectionReportsEveryMaterialAndChangesNothing(t *testing.T) {
	s := breadStore(t)
	if _, err := s.UpsertRecipe(recipes.Recipe{
		ID:   "cake",
		Name: "Cake",
		Ingredients: []recipes.Ingredient{
			{Kind: recipes.KindMaterial, MaterialID: "flour", Quantity: 3000, Unit: units.Gram},
			{Kind: recipes.KindMaterial, MaterialID: "butter", Quantity: 0.6, Unit: units.Kilo},
		},
	}); err != nil {
		t.Fatalf("UpsertRecipe: %v", err)
	}
	before := s.Snapshot()

	_, err := s.Produce(ProductionRequest{RecipeID: "cake", Mode: ModeWholeRecipe, Quantity: 2})

	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if len(rej.Shortfalls) != 2 {
		t.Fatalf("shortfalls = %+v, want 2", rej.Shortfalls)
	}
	nearlyEqual(t, "flour needed", rej.Shortfalls[0].Needed, 6000)
	nearlyEqual(t, "flour available", rej.Shortfalls[0].Available, 5000)
	nearlyEqual(t, "butter needed", rej.Shortfalls[1].Needed, 1.2)
	if rej.Shortfalls[1].Unit != units.Kilo {
		t.Fatalf("butter unit = %s", rej.Shortfalls[1].Unit)
	}

	after := s.Snapshot()
	for i := range before.Materials {
		if before.Materials[i].Stock != after.Materials[i].Stock {
			t.Fatalf("material %s changed on rejection", before.Materials[i].ID)
		}
	}
	if recipeStock(t, s, "cake") != 0 {
		t.Fatalf("cake stock changed on rejection")
	}
	if len(after.Movements) != len(before.Movements) {
		t.Fatalf("movements appended on rejection")
	}
}

func TestProduce_SumsLinesSharingAMaterial(t *testing.T) {
	s := breadStore(t)
	if _, err := s.UpsertRecipe(recipes.Recipe{
		ID:   "double",
		Name: "Double",
		Ingredients: []recipes.Ingredient{
			{Kind: recipes.KindMaterial, MaterialID: "flour", Quantity: 3000, Unit: units.Gram},
			{Kind: recipes.KindMaterial, MaterialID: "flour", Quantity: 3000, Unit: units.Gram},
		},
	}); err != nil {
		t.Fatalf("UpsertRecipe: %v", err)
	}

	_, err := s.Produce(ProductionRequest{RecipeID: "double", Mode: ModeWholeRecipe, Quantity: 1})
	var rej *RejectionError
	if !errors.As(err, &rej) || len(rej.Shortfalls) != 1 {
		t.Fatalf("expected one aggregated shortfall, got %v", err)
	}
	nearlyEqual(t, "needed", rej.Shortfalls[0].Needed, 6000)
}

func TestProduce_InvalidInput(t *testing.T) {
	s := breadStore(t)
	for _, req := range []ProductionRequest{
		{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 0},
		{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: -2},
		{RecipeID: "bread", Mode: "lote", Quantity: 1},
	} {
		if _, err := s.Produce(req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Produce(%+v) err = %v, want ErrInvalidInput", req, err)
		}
	}
	if _, err := s.Produce(ProductionRequest{RecipeID: "nope", Mode: ModeLooseUnits, Quantity: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown recipe err = %v, want ErrNotFound", err)
	}
}

func TestSell_Scenario(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	rec, err := s.Sell(SaleRequest{RecipeID: "bread", Client: "Ana", Units: 3, TotalPrice: 30})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	nearlyEqual(t, "costPerUnit", rec.CostPerUnit, 0.5)
	nearlyEqual(t, "totalCost", rec.TotalCost, 1.5)
	nearlyEqual(t, "profit", rec.Profit, 28.5)
	nearlyEqual(t, "margin", rec.Margin, 95)
	nearlyEqual(t, "pricePerUnit", rec.PricePerUnit, 10)
	if rec.Date != "2024-06-02" || rec.RecipeName != "Bread" {
		t.Fatalf("record = %+v", rec)
	}
	if got := recipeStock(t, s, "bread"); got != 7 {
		t.Fatalf("bread stock = %d, want 7", got)
	}
	if got := s.Sales(); len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("sales = %+v", got)
	}
}

func TestSell_InsufficientFinishedGood(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	_, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 20, TotalPrice: 100})

	var rej *RejectionError
	if !errors.As(err, &rej) || len(rej.Shortfalls) != 1 {
		t.Fatalf("expected one shortfall, got %v", err)
	}
	if rej.Shortfalls[0].Needed != 20 || rej.Shortfalls[0].Available != 10 {
		t.Fatalf("shortfall = %+v", rej.Shortfalls[0])
	}
	if recipeStock(t, s, "bread") != 10 || len(s.Sales()) != 0 {
		t.Fatalf("state changed on rejection")
	}
}

func TestSell_PackagingDebitAndShortfalls(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	_, err := s.Sell(SaleRequest{
		RecipeID: "bread",
		Units:    5,
		Packaging: []PackagingSelection{
			{PackagingID: "box", QuantityPerUnit: 5},    // needs 25, has 20
			{PackagingID: "ribbon", QuantityPerUnit: 1}, // needs 5, has 4
		},
		TotalPrice: 50,
	})
	var rej *RejectionError
	if !errors.As(err, &rej) || len(rej.Shortfalls) != 2 {
		t.Fatalf("expected two packaging shortfalls, got %v", err)
	}
	if rej.Shortfalls[0].ItemID != "box" || rej.Shortfalls[0].Needed != 25 || rej.Shortfalls[1].ItemID != "ribbon" {
		t.Fatalf("shortfalls = %+v", rej.Shortfalls)
	}
	if recipeStock(t, s, "bread") != 10 {
		t.Fatalf("bread stock changed on rejection")
	}

	rec, err := s.Sell(SaleRequest{
		RecipeID:   "bread",
		Units:      4,
		Packaging:  []PackagingSelection{{PackagingID: "box", QuantityPerUnit: 2}},
		Overheads:  pricing.Overheads{Labor: 10},
		TotalPrice: 40,
	})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	// base = 0.5*4 + 0.5*2 = 3; labor 10% = 0.3
	nearlyEqual(t, "totalCost", rec.TotalCost, 3.3)
	nearlyEqual(t, "profit", rec.Profit, 36.7)
	if len(rec.Packaging) != 1 || rec.Packaging[0].Name != "Box" || rec.Packaging[0].Price != 0.5 {
		t.Fatalf("packaging snapshot = %+v", rec.Packaging)
	}

	snap := s.Snapshot()
	for _, p := range snap.Packaging {
		switch p.ID {
		case "box":
			nearlyEqual(t, "box stock", p.Stock, 12)
		case "ribbon":
			nearlyEqual(t, "ribbon stock", p.Stock, 4)
		}
	}
	if recipeStock(t, s, "bread") != 6 {
		t.Fatalf("bread stock = %d, want 6", recipeStock(t, s, "bread"))
	}
}

func TestSell_UnknownPackaging(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	_, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 1, Packaging: []PackagingSelection{{PackagingID: "bag", QuantityPerUnit: 1}}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSell_QuoteMatchesCommittedSale(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	sel := []PackagingSelection{{PackagingID: "box", QuantityPerUnit: 1}}
	o := pricing.Overheads{Labor: 10, Utilities: 5, Disposables: 3}

	q, err := s.Quote("bread", sel, pricing.QuoteInput{Units: 4, Overheads: o, TotalPrice: 20})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	rec, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 4, Packaging: sel, Overheads: o, TotalPrice: 20})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	nearlyEqual(t, "total cost", q.Breakdown.Total, rec.TotalCost)
	nearlyEqual(t, "profit", q.Profit, rec.Profit)
	nearlyEqual(t, "margin", q.Margin, rec.Margin)
}

func TestDeleteSale_DoesNotRestoreStock(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	rec, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 3, TotalPrice: 30})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}

	if err := s.DeleteSale(rec.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if len(s.Sales()) != 0 {
		t.Fatalf("sale not removed")
	}
	if got := recipeStock(t, s, "bread"); got != 7 {
		t.Fatalf("bread stock = %d, want 7 (no reversal)", got)
	}
	if err := s.DeleteSale(rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSell_ConcurrentSalesNeverOverdraw(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 1, Packaging: []PackagingSelection{{PackagingID: "box", QuantityPerUnit: 1}}, TotalPrice: 5})
			mu.Lock()
			defer mu.Unlock()
			var rej *RejectionError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &rej):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 10 || rejected != 15 {
		t.Fatalf("ok=%d rejected=%d, want 10/15", ok, rejected)
	}
	if got := recipeStock(t, s, "bread"); got != 0 {
		t.Fatalf("bread stock = %d, want 0", got)
	}
	if got := len(s.Sales()); got != 10 {
		t.Fatalf("sales = %d, want 10", got)
	}
}

func TestHooks_SeeCommitsAndRejections(t *testing.T) {
	s := breadStore(t)
	var events []EventType
	s.OnCommit(func(ev Event) error {
		events = append(events, ev.Type)
		if ev.Type == EventProduced && len(ev.Snapshot.Movements) != 2 {
			t.Errorf("produced snapshot movements = %d, want 2", len(ev.Snapshot.Movements))
		}
		return errors.New("persistence down")
	})

	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if _, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 50}); err == nil {
		t.Fatalf("expected rejection")
	}

	if len(events) != 2 || events[0] != EventProduced || events[1] != EventRejected {
		t.Fatalf("events = %v", events)
	}
	if recipeStock(t, s, "bread") != 10 {
		t.Fatalf("hook error must not undo commit")
	}
}

func TestProduce_RejectsOverflowingQuantities(t *testing.T) {
	s := breadStore(t)

	_, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: math.MaxInt/10 + 1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	huge := Snapshot{
		Materials: []materials.Material{{ID: "flour", Name: "Flour", PackageSize: 1000, PackageUnit: units.Gram, Price: 10, Stock: 5000, StockUnit: units.Gram}},
		Recipes: []recipes.Recipe{{
			ID: "crumbs", Name: "Crumbs", YieldQuantity: 1 << 40, YieldUnit: recipes.YieldPiece,
			Ingredients: []recipes.Ingredient{{Kind: recipes.KindMaterial, MaterialID: "flour", Quantity: 1, Unit: units.Gram, UnitPrice: 0.01}},
		}},
	}
	s = NewStore(huge, nil, WithClock(func() time.Time { return fixedNow }))
	_, err = s.Produce(ProductionRequest{RecipeID: "crumbs", Mode: ModeWholeRecipe, Quantity: maxQuantity})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("overflowing batches err = %v, want ErrInvalidInput", err)
	}
	nearlyEqual(t, "flour stock", materialStock(t, s, "flour"), 5000)
	if got := recipeStock(t, s, "crumbs"); got != 0 {
		t.Fatalf("crumbs stock = %d, want 0", got)
	}
	if got := len(s.Movements()); got != 0 {
		t.Fatalf("movements = %d, want 0", got)
	}
}

func TestSell_RejectsOversizedPackagingQuantity(t *testing.T) {
	s := breadStore(t)
	if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	sel := []PackagingSelection{{PackagingID: "box", QuantityPerUnit: math.MaxInt/2 + 1}}
	if _, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 2, Packaging: sel, TotalPrice: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Sell err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Quote("bread", sel, pricing.QuoteInput{Units: 2}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Quote err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Sell(SaleRequest{RecipeID: "bread", Units: maxQuantity + 1, TotalPrice: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized units err = %v, want ErrInvalidInput", err)
	}

	// Largest allowed counts still compare as a plain shortfall.
	sel[0].QuantityPerUnit = maxQuantity
	var rej *RejectionError
	if _, err := s.Sell(SaleRequest{RecipeID: "bread", Units: 2, Packaging: sel, TotalPrice: 10}); !errors.As(err, &rej) {
		t.Fatalf("err = %v, want *RejectionError", err)
	}
	nearlyEqual(t, "needed boxes", rej.Shortfalls[0].Needed, 2*maxQuantity)

	for _, p := range s.Packaging() {
		if p.ID == "box" {
			nearlyEqual(t, "box stock", p.Stock, 20)
		}
	}
	if got := len(s.Sales()); got != 0 {
		t.Fatalf("sales = %d, want 0", got)
	}
}

func TestProduce_ConcurrentProductionsNeverOverdraw(t *testing.T) {
	s := breadStore(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			var rej *RejectionError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &rej):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// 5000 g of flour covers exactly ten 500 g batches.
	if ok != 10 || rejected != 15 {
		t.Fatalf("ok=%d rejected=%d, want 10/15", ok, rejected)
	}
	nearlyEqual(t, "flour stock", materialStock(t, s, "flour"), 0)
	if got := recipeStock(t, s, "bread"); got != 100 {
		t.Fatalf("bread stock = %d, want 100", got)
	}
}

func TestHooks_SlowHookDoesNotBlockReads(t *testing.T) {
	s := breadStore(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	s.OnCommit(func(ev Event) error {
		if ev.Type == EventProduced {
			select {
			case entered <- struct{}{}:
				<-release
			default:
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Produce(ProductionRequest{RecipeID: "bread", Mode: ModeWholeRecipe, Quantity: 1}); err != nil {
				t.Errorf("Produce: %v", err)
			}
		}()
	}
	<-entered
	time.Sleep(50 * time.Millisecond)

	done := make(chan int, 1)
	go func() { done <- len(s.Materials()) }()
	select {
	case n := <-done:
		if n != 2 {
			t.Errorf("materials = %d, want 2", n)
		}
	case <-time.After(time.Second):
		t.Errorf("read blocked behind a running hook")
	}
	close(release)
	wg.Wait()

	if got := recipeStock(t, s, "bread"); got != 20 {
		t.Fatalf("bread stock = %d, want 20", got)
	}
}
