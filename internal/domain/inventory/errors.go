package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/esencia/internal/domain/units"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

func invalid(err error) error { return fmt.Errorf("%w: %v", ErrInvalidInput, err) }

// Shortfall is one item without enough stock.
type Shortfall struct {
	Kind      ItemKind   `json:"kind"`
	ItemID    string     `json:"itemId"`
	Name      string     `json:"name"`
	Needed    float64    `json:"needed"`
	Available float64    `json:"available"`
	Unit      units.Unit `json:"unit"`
}

func (s Shortfall) String() string {
	return fmt.Sprintf("%s: need %.2f %s, have %.2f %s", s.Name, s.Needed, s.Unit, s.Available, s.Unit)
}

// RejectionError reports every insufficient item of a production or sale.
// Nothing is mutated when it is returned.
type RejectionError struct {
	Operation  string      `json:"operation"`
	Shortfalls []Shortfall `json:"shortfalls"`
}

func (e *RejectionError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s rejected: insufficient stock: %s", e.Operation, strings.Join(parts, "; "))
}
