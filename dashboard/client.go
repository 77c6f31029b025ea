package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"churnguard/inference"
)

// LatestState says whether the service had a prediction to show.
type LatestState string

const (
	StateAvailable   LatestState = "available"
	StateNone        LatestState = "none"
	StateUnreachable LatestState = "unreachable"
)

// Latest is one poll of the prediction service.
type Latest struct {
	State  LatestState       `json:"state"`
	Result *inference.Result `json:"result,omitempty"`
	Text   string            `json:"text"`
}

// Client polls the inference service for its latest prediction.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchLatest never fails: transport problems are reported as StateUnreachable.
func (c *Client) FetchLatest(ctx context.Context) Latest {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predict", nil)
	if err != nil {
		return unreachable()
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return unreachable()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return none()
	}

	var payload struct {
		ChurnPrediction  *int    `json:"churn_prediction"`
		ChurnProbability float64 `json:"churn_probability"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return unreachable()
	}
	if payload.ChurnPrediction == nil {
		return none()
	}

	result := inference.Result{Label: *payload.ChurnPrediction, Probability: payload.ChurnProbability / 100}
	return Latest{State: StateAvailable, Result: &result, Text: Describe(result)}
}

// Describe renders a result the way the dashboard shows it.
func Describe(r inference.Result) string {
	label := "No Churn"
	if r.Label == 1 {
		label = "Churn"
	}
	return fmt.Sprintf("Latest Prediction: %s (Probability: %.2f%%)", label, r.Percent())
}

func none() Latest {
	return Latest{State: StateNone, Text: "No predictions yet. Submit data via the frontend."}
}

func unreachable() Latest {
	return Latest{State: StateUnreachable, Text: "API not reachable. Ensure the prediction service is running."}
}
