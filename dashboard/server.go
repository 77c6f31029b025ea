package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"churnguard/db"
)

// ChurnedLabel is the dataset label that marks a churned customer.
const ChurnedLabel = "Yes"

// Stats is the read side of the dataset store.
type Stats interface {
	ChurnDistribution(ctx context.Context) ([]db.LabelCount, error)
	ChurnByContract(ctx context.Context, churnedLabel string) ([]db.ContractChurn, error)
}

// LatestSource fetches the latest prediction of the service.
type LatestSource interface {
	FetchLatest(ctx context.Context) Latest
}

// Handlers serve the dashboard page and its JSON feeds.
type Handlers struct {
	stats  Stats
	latest LatestSource
	logger *zap.Logger
}

func NewHandlers(stats Stats, latest LatestSource, logger *zap.Logger) *Handlers {
	return &Handlers{stats: stats, latest: latest, logger: logger}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handlePage)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/distribution", h.handleDistribution)
	mux.HandleFunc("GET /api/contracts", h.handleContracts)
	mux.HandleFunc("GET /api/latest", h.handleLatest)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := h.stats.ChurnDistribution(r.Context())
	if err != nil {
		h.logger.Error("churn distribution query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"distribution": dist})
}

func (h *Handlers) handleContracts(w http.ResponseWriter, r *http.Request) {
	rates, err := h.stats.ChurnByContract(r.Context(), ChurnedLabel)
	if err != nil {
		h.logger.Error("contract churn query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contracts": rates})
}

func (h *Handlers) handleLatest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.latest.FetchLatest(r.Context()))
}

type pageData struct {
	Distribution []db.LabelCount
	Contracts    []db.ContractChurn
	Latest       string
}

var page = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"pct": func(f float64) float64 { return f * 100 },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Customer Churn Prediction Dashboard</title></head>
<body>
<h1 style="text-align:center">Customer Churn Prediction Dashboard</h1>
<h3>Churn Distribution</h3>
<table>
<tr><th>Churn Label</th><th>Customers</th><th>Share</th></tr>
{{range .Distribution}}<tr><td>{{.Label}}</td><td>{{.Count}}</td><td>{{printf "%.1f" (pct .Share)}}%</td></tr>
{{end}}</table>
<h3>Churn Rate by Contract</h3>
<table>
<tr><th>Contract</th><th>Customers</th><th>Churned</th><th>Rate</th></tr>
{{range .Contracts}}<tr><td>{{.Contract}}</td><td>{{.Customers}}</td><td>{{.Churned}}</td><td>{{printf "%.1f" (pct .ChurnRate)}}%</td></tr>
{{end}}</table>
<h3>Live Churn Prediction</h3>
<form method="get" action="/"><button type="submit" name="refresh" value="1">Get Latest Prediction</button></form>
<div id="prediction-output" style="font-size:24px;margin-top:20px">{{.Latest}}</div>
</body>
</html>
`))

// handlePage only polls the service once the refresh button was pressed.
func (h *Handlers) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Latest: "Click the button to fetch the latest prediction."}

	dist, err := h.stats.ChurnDistribution(r.Context())
	if err != nil {
		h.logger.Error("churn distribution query failed", zap.Error(err))
		http.Error(w, "dataset unavailable", http.StatusInternalServerError)
		return
	}
	data.Distribution = dist

	if rates, err := h.stats.ChurnByContract(r.Context(), ChurnedLabel); err == nil {
		data.Contracts = rates
	} else {
		h.logger.Warn("contract churn query failed", zap.Error(err))
	}

	if r.URL.Query().Get("refresh") != "" {
		data.Latest = h.latest.FetchLatest(r.Context()).Text
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		h.logger.Error("render dashboard", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
