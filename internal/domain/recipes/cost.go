package recipes

// Lookup resolves a recipe by id.
type Lookup func(id string) (Recipe, bool)

// Gap is a recipe reference that could not be costed.
type Gap struct {
	RecipeID string // recipe holding the line
	RefID    string
	Cycle    bool
}

// Cost sums the production cost of r. Material lines cost quantity times the
// snapshotted unit price. A recipe line adds the full cost of the referenced
// recipe once, regardless of the quantity consumed. Missing or cyclic
// references contribute zero and are returned as gaps.
func Cost(r Recipe, lookup Lookup) (float64, []Gap) {
	var gaps []Gap
	total := cost(r, lookup, map[string]bool{}, &gaps)
	return total, gaps
}

func cost(r Recipe, lookup Lookup, visiting map[string]bool, gaps *[]Gap) float64 {
	visiting[r.ID] = true
	defer delete(visiting, r.ID)

	var total float64
	for _, ing := range r.Ingredients {
		switch ing.Kind {
		case KindMaterial:
			total += ing.Quantity * ing.UnitPrice
		case KindRecipe:
			if visiting[ing.RecipeID] {
				*gaps = append(*gaps, Gap{RecipeID: r.ID, RefID: ing.RecipeID, Cycle: true})
				continue
			}
			ref, ok := lookup(ing.RecipeID)
			if !ok {
				*gaps = append(*gaps, Gap{RecipeID: r.ID, RefID: ing.RecipeID})
				continue
			}
			total += cost(ref, lookup, visiting, gaps)
		}
	}
	return total
}

// LookupFrom indexes list by id.
func LookupFrom(list []Recipe) Lookup {
	idx := make(map[string]Recipe, len(list))
	for _, r := range list {
		idx[r.ID] = r
	}
	return func(id string) (Recipe, bool) {
		r, ok := idx[id]
		return r, ok
	}
}
