package materials

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/esencia/internal/domain/units"
)

// DefaultLowStock is the alert threshold used when none is configured.
const DefaultLowStock = 10

// Material is a purchasable ingredient. Stock and StockUnit are
// independent of the package the material is bought in.
type Material struct {
	ID          string     `json:"id" msgpack:"id"`
	Name        string     `json:"nombre" msgpack:"nombre"`
	PackageSize float64    `json:"cantidadPorEnvase" msgpack:"cantidadPorEnvase"`
	PackageUnit units.Unit `json:"unidad" msgpack:"unidad"`
	Supplier    string     `json:"proveedor,omitempty" msgpack:"proveedor,omitempty"`
	Stock       float64    `json:"stock" msgpack:"stock"`
	StockUnit   units.Unit `json:"unidadStock" msgpack:"unidadStock"`
	Price       float64    `json:"precio" msgpack:"precio"` // per package
	LowStock    float64    `json:"stockBajo" msgpack:"stockBajo"`
	UpdatedAt   string     `json:"fechaActualizacion" msgpack:"fechaActualizacion"`
}

// New returns m with every optional field populated.
func New(m Material, now time.Time) Material {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.PackageUnit == "" {
		m.PackageUnit = units.Gram
	}
	if m.StockUnit == "" {
		m.StockUnit = units.Gram
	}
	if m.LowStock <= 0 {
		m.LowStock = DefaultLowStock
	}
	if m.UpdatedAt == "" {
		m.UpdatedAt = now.Format(time.DateOnly)
	}
	return m
}

func (m Material) Validate() error {
	switch {
	case m.Name == "":
		return errors.New("material name is required")
	case m.PackageSize <= 0:
		return errors.New("package size must be > 0")
	case m.Price < 0:
		return errors.New("price must be >= 0")
	case m.Stock < 0:
		return errors.New("stock must be >= 0")
	case !m.PackageUnit.Valid() || !m.StockUnit.Valid():
		return errors.New("unknown unit")
	}
	return nil
}

// PricePerBaseUnit is the cost of one package unit (e.g. one gram).
func (m Material) PricePerBaseUnit() float64 {
	if m.PackageSize <= 0 {
		return 0
	}
	return m.Price / m.PackageSize
}

func (m Material) IsLow() bool { return m.Stock < m.threshold() }

func (m Material) Level() Level { return LevelFor(m.Stock, m.threshold()) }

func (m Material) threshold() float64 {
	if m.LowStock <= 0 {
		return DefaultLowStock
	}
	return m.LowStock
}

type Level string

const (
	LevelLow     Level = "low"
	LevelWarning Level = "warning"
	LevelOK      Level = "ok"
)

// LevelFor grades stock against threshold: below it is low, below twice it a warning.
func LevelFor(stock, threshold float64) Level {
	switch {
	case stock < threshold:
		return LevelLow
	case stock < threshold*2:
		return LevelWarning
	default:
		return LevelOK
	}
}
