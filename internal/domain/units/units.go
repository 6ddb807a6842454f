package units

type Unit string

const (
	Gram       Unit = "gramo"
	Kilo       Unit = "kilo"
	Piece      Unit = "unidad"
	Milliliter Unit = "mililitro"
	Liter      Unit = "litro"
	Meter      Unit = "metro"
	Centimeter Unit = "centimetro"
)

// All lists every unit in menu order.
var All = []Unit{Gram, Kilo, Piece, Milliliter, Liter, Meter, Centimeter}

type pair struct{ from, to Unit }

// from * factor = to
var factors = map[pair]float64{
	{Kilo, Gram}:        1000,
	{Gram, Kilo}:        0.001,
	{Liter, Milliliter}: 1000,
	{Milliliter, Liter}: 0.001,
	{Meter, Centimeter}: 100,
	{Centimeter, Meter}: 0.01,
}

var groups = map[Unit][]Unit{
	Gram:       {Gram, Kilo},
	Kilo:       {Gram, Kilo},
	Milliliter: {Milliliter, Liter},
	Liter:      {Milliliter, Liter},
	Meter:      {Meter, Centimeter},
	Centimeter: {Meter, Centimeter},
	Piece:      {Piece},
}

// Convert returns qty expressed in the target unit. Pairs without a
// registered factor (including cross-group pairs) come back unchanged.
func Convert(qty float64, from, to Unit) float64 {
	if from == to {
		return qty
	}
	if f, ok := factors[pair{from, to}]; ok {
		return qty * f
	}
	return qty
}

// Convertible reports whether a factor is registered for the pair.
func Convertible(from, to Unit) bool {
	if from == to {
		return true
	}
	_, ok := factors[pair{from, to}]
	return ok
}

// Compatible returns the units u may be entered as. Unknown units only
// convert to themselves.
func Compatible(u Unit) []Unit {
	if g, ok := groups[u]; ok {
		return append([]Unit(nil), g...)
	}
	return []Unit{u}
}

func (u Unit) Valid() bool {
	_, ok := groups[u]
	return ok
}

func Parse(s string) (Unit, bool) {
	u := Unit(s)
	return u, u.Valid()
}
