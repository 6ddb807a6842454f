package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/esencia/internal/domain/inventory"
	"github.com/Spok95/esencia/internal/domain/materials"
	"github.com/Spok95/esencia/internal/domain/packaging"
	"github.com/Spok95/esencia/internal/domain/pricing"
	"github.com/Spok95/esencia/internal/domain/recipes"
	"github.com/Spok95/esencia/internal/domain/report"
	"github.com/Spok95/esencia/internal/domain/sales"
	"github.com/Spok95/esencia/internal/infra/backup"
)

const maxBody = 16 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error      string                `json:"error"`
	Shortfalls []inventory.Shortfall `json:"shortfalls,omitempty"`
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *inventory.RejectionError
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Shortfalls: rej.Shortfalls})
	case errors.Is(err, inventory.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, inventory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		a.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		return fmt.Errorf("%w: body: %v", inventory.ErrInvalidInput, err)
	}
	return nil
}

func (a *api) listMaterials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.Materials())
}

func (a *api) getMaterial(w http.ResponseWriter, r *http.Request) {
	m, err := a.Store.Material(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *api) saveMaterial(w http.ResponseWriter, r *http.Request) {
	var m materials.Material
	if err := decode(r, &m); err != nil {
		a.writeError(w, r, err)
		return
	}
	saved, err := a.Store.UpsertMaterial(m)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (a *api) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteMaterial(chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) exportPrices(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WritePriceSheet(&buf, a.Store.Materials()); err != nil {
		a.writeError(w, r, err)
		return
	}
	sendFile(w, report.FileName("precios_insumos", a.Now()), xlsxType, buf.Bytes())
}

func (a *api) importPrices(w http.ResponseWriter, r *http.Request) {
	rows, err := report.ReadPriceSheet(io.LimitReader(r.Body, maxBody))
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", inventory.ErrInvalidInput, err))
		return
	}
	changes := make([]inventory.PriceChange, len(rows))
	for i, row := range rows {
		changes[i] = inventory.PriceChange{MaterialID: row.MaterialID, Price: row.Price}
	}
	n, err := a.Store.UpdatePrices(changes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"filas": len(rows), "actualizados": n})
}

func (a *api) listPackaging(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.Packaging())
}

func (a *api) savePackaging(w http.ResponseWriter, r *http.Request) {
	var it packaging.Item
	if err := decode(r, &it); err != nil {
		a.writeError(w, r, err)
		return
	}
	saved, err := a.Store.UpsertPackaging(it)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (a *api) deletePackaging(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeletePackaging(chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listRecipes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.Recipes())
}

func (a *api) getRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := a.Store.Recipe(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) saveRecipe(w http.ResponseWriter, r *http.Request) {
	var rec recipes.Recipe
	if err := decode(r, &rec); err != nil {
		a.writeError(w, r, err)
		return
	}
	saved, err := a.Store.UpsertRecipe(rec)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (a *api) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteRecipe(chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) recipeCosting(w http.ResponseWriter, r *http.Request) {
	c, err := a.Store.RecipeCosting(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *api) addIngredient(w http.ResponseWriter, r *http.Request) {
	var req inventory.IngredientRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	rec, err := a.Store.AddIngredient(chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) produce(w http.ResponseWriter, r *http.Request) {
	var req inventory.ProductionRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	req.RecipeID = chi.URLParam(r, "id")
	res, err := a.Store.Produce(req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, sales.Filter(a.Store.Sales(), q.Get("client"), q.Get("product")))
}

// saleBody lets overheads be omitted so the configured defaults apply.
type saleBody struct {
	inventory.SaleRequest
	Overheads *pricing.Overheads `json:"overheads"`
}

func (a *api) sell(w http.ResponseWriter, r *http.Request) {
	var body saleBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	req := body.SaleRequest
	req.Overheads = a.overheads(body.Overheads)
	rec, err := a.Store.Sell(req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *api) deleteSale(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteSale(chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quoteBody struct {
	RecipeID   string                         `json:"recetaId"`
	Packaging  []inventory.PackagingSelection `json:"packagings"`
	Units      int                            `json:"unidades"`
	Overheads  *pricing.Overheads             `json:"overheads"`
	TotalPrice float64                        `json:"precioVentaTotal"`
	Price      float64                        `json:"precioVentaPorUnidad"`
	PriceUnit  pricing.SaleUnit               `json:"tipoVenta"`
}

func (a *api) quote(w http.ResponseWriter, r *http.Request) {
	var body quoteBody
	if err := decode(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	q, err := a.Store.Quote(body.RecipeID, body.Packaging, pricing.QuoteInput{
		Units:      body.Units,
		Overheads:  a.overheads(body.Overheads),
		TotalPrice: body.TotalPrice,
		Price:      body.Price,
		PriceUnit:  body.PriceUnit,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *api) overheads(o *pricing.Overheads) pricing.Overheads {
	if o == nil {
		return a.DefaultOverheads
	}
	return *o
}

func (a *api) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.Dashboard(r.URL.Query().Get("day")))
}

func (a *api) lowStock(w http.ResponseWriter, _ *http.Request) {
	rep := a.Store.LowStock()
	writeJSON(w, http.StatusOK, struct {
		inventory.LowStockReport
		Count int `json:"total"`
	}{rep, rep.Count()})
}

func (a *api) movements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.Movements())
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func sendFile(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *api) salesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := a.Now()
	records := sales.Filter(a.Store.Sales(), q.Get("client"), q.Get("product"))
	rep := report.Build(a.ReportTitle, now, records, a.ReportRowsPerPage)

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rep); err != nil {
		a.writeError(w, r, err)
		return
	}
	sendFile(w, report.FileName("ventas", now), xlsxType, buf.Bytes())
}

func (a *api) exportBackup(w http.ResponseWriter, r *http.Request) {
	f, err := backup.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", inventory.ErrInvalidInput, err))
		return
	}
	var buf bytes.Buffer
	if err := backup.Encode(&buf, a.Store.Snapshot(), f); err != nil {
		a.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("esencia_backup_%s.%s", a.Now().Format("20060102_150405"), f.Extension())
	sendFile(w, name, f.ContentType(), buf.Bytes())
}

func (a *api) importBackup(w http.ResponseWriter, r *http.Request) {
	f, err := backup.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", inventory.ErrInvalidInput, err))
		return
	}
	snap, err := backup.Decode(io.LimitReader(r.Body, maxBody), f)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", inventory.ErrInvalidInput, err))
		return
	}
	if err := a.Store.Restore(snap); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"insumos":          len(snap.Materials),
		"packaging":        len(snap.Packaging),
		"recetas":          len(snap.Recipes),
		"ventasRealizadas": len(snap.Sales),
	})
}
