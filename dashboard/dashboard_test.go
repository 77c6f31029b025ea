package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"churnguard/db"
	"churnguard/inference"
)

const sampleCSV = "Customer ID,Contract,Monthly Charge,Tenure in Months,Churn Label\n" +
	"0001,Month-to-Month,70.5,12,Yes\n" +
	"0002,Two Year,20,60,No\n" +
	"0003,One Year,,,No\n" +
	"0004,One Year,10,1,\n"

func TestReadDataset(t *testing.T) {
	customers, err := ReadDataset(strings.NewReader("\ufeff"+sampleCSV), "")
	require.NoError(t, err)
	require.Len(t, customers, 3)

	assert.Equal(t, db.Customer{
		CustomerID: "0001", ChurnLabel: "Yes", Contract: "Month-to-Month", MonthlyCharge: 70.5, TenureMonths: 12,
	}, customers[0])
	assert.Equal(t, 0.0, customers[2].MonthlyCharge)
}

func TestReadDatasetCharset(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Churn Label,Contract\nNo,Año\n")
	require.NoError(t, err)
	require.NotEqual(t, "Churn Label,Contract\nNo,Año\n", encoded)

	customers, err := ReadDataset(strings.NewReader(encoded), "windows-1252")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Año", customers[0].Contract)
}

func TestReadDatasetErrors(t *testing.T) {
	_, err := ReadDataset(strings.NewReader(""), "")
	assert.Error(t, err)

	_, err = ReadDataset(strings.NewReader("Contract\nOne Year\n"), "")
	assert.ErrorContains(t, err, "Churn Label")

	_, err = ReadDataset(strings.NewReader(sampleCSV), "klingon")
	assert.Error(t, err)
}

func serveLatest(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchLatest(t *testing.T) {
	srv := serveLatest(t, http.StatusOK, `{"churn_prediction": 1, "churn_probability": 80.0}`)
	latest := NewClient(srv.URL+"/", time.Second).FetchLatest(context.Background())
	require.Equal(t, StateAvailable, latest.State)
	assert.Equal(t, "Latest Prediction: Churn (Probability: 80.00%)", latest.Text)
	assert.InDelta(t, 0.8, latest.Result.Probability, 1e-9)

	srv = serveLatest(t, http.StatusNotFound, `{"message": "No predictions yet. Please submit data first."}`)
	latest = NewClient(srv.URL, time.Second).FetchLatest(context.Background())
	assert.Equal(t, StateNone, latest.State)
	assert.Nil(t, latest.Result)

	srv = serveLatest(t, http.StatusOK, `not json`)
	latest = NewClient(srv.URL, time.Second).FetchLatest(context.Background())
	assert.Equal(t, StateUnreachable, latest.State)

	srv = serveLatest(t, http.StatusOK, `{}`)
	srv.Close()
	latest = NewClient(srv.URL, time.Second).FetchLatest(context.Background())
	assert.Equal(t, StateUnreachable, latest.State)
	assert.Contains(t, latest.Text, "not reachable")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Latest Prediction: No Churn (Probability: 12.35%)",
		Describe(inference.Result{Label: 0, Probability: 0.123456}))
}

type fakeStats struct {
	err error
}

func (f fakeStats) ChurnDistribution(context.Context) ([]db.LabelCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []db.LabelCount{{Label: "No", Count: 3, Share: 0.75}, {Label: "Yes", Count: 1, Share: 0.25}}, nil
}

func (f fakeStats) ChurnByContract(context.Context, string) ([]db.ContractChurn, error) {
	return []db.ContractChurn{{Contract: "Two Year", Customers: 2, Churned: 1, ChurnRate: 0.5}}, f.err
}

type fakeLatest struct {
	calls int
}

func (f *fakeLatest) FetchLatest(context.Context) Latest {
	f.calls++
	return Latest{State: StateAvailable, Text: "Latest Prediction: Churn (Probability: 80.00%)"}
}

func TestHandlers(t *testing.T) {
	latest := &fakeLatest{}
	mux := http.NewServeMux()
	NewHandlers(fakeStats{}, latest, zap.NewNop()).Register(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/distribution", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var dist struct {
		Distribution []db.LabelCount `json:"distribution"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dist))
	assert.Len(t, dist.Distribution, 2)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Click the button to fetch the latest prediction.")
	assert.Contains(t, w.Body.String(), "75.0%")
	assert.Zero(t, latest.calls)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?refresh=1", nil))
	assert.Contains(t, w.Body.String(), "Latest Prediction: Churn (Probability: 80.00%)")
	assert.Equal(t, 1, latest.calls)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/latest", nil))
	assert.Contains(t, w.Body.String(), `"state":"available"`)
}

func TestHandlersStoreFailure(t *testing.T) {
	mux := http.NewServeMux()
	NewHandlers(fakeStats{err: errors.New("disk gone")}, &fakeLatest{}, zap.NewNop()).Register(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/distribution", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
