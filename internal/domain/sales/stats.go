package sales

import (
	"sort"
	"strings"
)

// Filter keeps records whose client and recipe name contain the given
// fragments, case-insensitively. Empty fragments match everything.
func Filter(records []Record, client, product string) []Record {
	client = strings.ToLower(strings.TrimSpace(client))
	product = strings.ToLower(strings.TrimSpace(product))

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if client != "" && !strings.Contains(strings.ToLower(r.Client), client) {
			continue
		}
		if product != "" && !strings.Contains(strings.ToLower(r.RecipeName), product) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type ProductUnits struct {
	Name  string `json:"nombre"`
	Units int    `json:"cantidad"`
}

type Summary struct {
	Count         int            `json:"ventas"`
	TotalSold     float64        `json:"totalVendido"`
	TotalProfit   float64        `json:"totalGanancias"`
	AverageMargin float64        `json:"margenPromedio"`
	TodayCount    int            `json:"ventasHoy"`
	TodaySold     float64        `json:"totalHoy"`
	TodayProfit   float64        `json:"gananciaHoy"`
	TopProducts   []ProductUnits `json:"porProducto"`
}

// TopProductsLimit bounds Summary.TopProducts.
const TopProductsLimit = 6

// Summarize aggregates records; day is a YYYY-MM-DD date.
func Summarize(records []Record, day string) Summary {
	var s Summary
	byProduct := map[string]int{}
	for _, r := range records {
		s.Count++
		s.TotalSold += r.Price
		s.TotalProfit += r.Profit
		if r.Date == day {
			s.TodayCount++
			s.TodaySold += r.Price
			s.TodayProfit += r.Profit
		}
		byProduct[r.RecipeName] += r.Units
	}
	if s.TotalSold > 0 {
		s.AverageMargin = s.TotalProfit / s.TotalSold * 100
	}

	for name, u := range byProduct {
		s.TopProducts = append(s.TopProducts, ProductUnits{Name: name, Units: u})
	}
	sort.Slice(s.TopProducts, func(i, j int) bool {
		if s.TopProducts[i].Units != s.TopProducts[j].Units {
			return s.TopProducts[i].Units > s.TopProducts[j].Units
		}
		return s.TopProducts[i].Name < s.TopProducts[j].Name
	})
	if len(s.TopProducts) > TopProductsLimit {
		s.TopProducts = s.TopProducts[:TopProductsLimit]
	}
	return s
}
