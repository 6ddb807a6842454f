package sales

import (
	"math"
	"testing"
)

func sample() []Record {
	return []Record{
		{ID: "1", Client: "Ana Pérez", RecipeName: "Empanadas", Units: 24, Price: 100, Profit: 40, Date: "2024-06-01"},
		{ID: "2", Client: "Bruno", RecipeName: "Pan", Units: 3, Price: 30, Profit: 28.5, Date: "2024-06-02"},
		{ID: "3", Client: "ana", RecipeName: "Pan dulce", Units: 5, Price: 50, Profit: -10, Date: "2024-06-02"},
	}
}

func TestFilter(t *testing.T) {
	got := Filter(sample(), "ANA", "")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("client filter = %+v", got)
	}
	// substring match: "Empanadas" contains "pan" too
	got = Filter(sample(), "", "pan")
	if len(got) != 3 {
		t.Fatalf("product filter len = %d, want 3", len(got))
	}
	got = Filter(sample(), "", "empan")
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("product filter = %+v", got)
	}
	got = Filter(sample(), "ana", "dulce")
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("combined filter = %+v", got)
	}
	if got := Filter(sample(), "", ""); len(got) != 3 {
		t.Fatalf("empty filter len = %d, want 3", len(got))
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample(), "2024-06-02")

	if s.Count != 3 || s.TodayCount != 2 {
		t.Fatalf("counts = %d/%d", s.Count, s.TodayCount)
	}
	if math.Abs(s.TotalSold-180) > 1e-9 || math.Abs(s.TotalProfit-58.5) > 1e-9 {
		t.Fatalf("totals = %v/%v", s.TotalSold, s.TotalProfit)
	}
	if math.Abs(s.TodaySold-80) > 1e-9 || math.Abs(s.TodayProfit-18.5) > 1e-9 {
		t.Fatalf("today = %v/%v", s.TodaySold, s.TodayProfit)
	}
	if math.Abs(s.AverageMargin-58.5/180*100) > 1e-9 {
		t.Fatalf("average margin = %v", s.AverageMargin)
	}
	if len(s.TopProducts) != 3 || s.TopProducts[0].Name != "Empanadas" || s.TopProducts[0].Units != 24 {
		t.Fatalf("top products = %+v", s.TopProducts)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, "2024-06-02")
	if s.Count != 0 || s.AverageMargin != 0 || len(s.TopProducts) != 0 {
		t.Fatalf("empty summary = %+v", s)
	}
}
