package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"churnguard/inference"
	"churnguard/ml"
)

const noPredictionMessage = "No predictions yet. Please submit data first."

// Handlers serves the prediction API.
type Handlers struct {
	service *inference.Service
	schema  *ml.Schema
	logger  *zap.Logger
}

func NewHandlers(service *inference.Service, schema *ml.Schema, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, schema: schema, logger: logger}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /predict", h.handleLatest)
}

func (h *Handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Churn Prediction API is running!"})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"features":    h.schema.FeatureOrder(),
		"numeric":     h.schema.NumericFeatures(),
		"categorical": h.schema.CategoricalFeatures(),
		"threshold":   ml.Threshold,
	})
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeRecord(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.service.Predict(r.Context(), raw)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var internal *inference.InternalError
	switch {
	case errors.Is(err, inference.ErrEmptyInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No input data provided"})
	case errors.Is(err, inference.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, inference.ErrNoPredictionYet):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": noPredictionMessage})
	case errors.As(err, &internal):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": internal.Err.Error()})
	default:
		h.logger.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// decodeRecord reads a JSON object. An empty body or null decodes to a nil
// record so the service reports it as empty input.
func decodeRecord(body io.Reader) (ml.Record, error) {
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw ml.Record
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
