package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fair-risk-engine/internal/domain"
)

func newTestServer() *Server {
	s := NewServer(Options{NSimulations: 2000})
	s.newID = func() string { return "run-test" }
	return s
}

func est(p10, p50, p90 float64) domain.PercentileEstimate {
	return domain.PercentileEstimate{P10: p10, P50: p50, P90: p90}
}

func validScenario() domain.ScenarioInput {
	return domain.ScenarioInput{
		TEF: domain.FrequencyFactor{
			Estimate: est(1.2, 2.5, 4.0),
			Model:    domain.FrequencyModelPoisson,
		},
		Susceptibility: domain.SusceptibilityFactor{Estimate: est(20, 35, 55)},
		Losses: domain.LossForms{
			Productivity: domain.LossForm{Estimate: est(150000, 400000, 900000)},
			Response:     domain.LossForm{Estimate: est(150000, 250000, 500000)},
			Fines:        domain.LossForm{Estimate: est(50000, 100000, 300000)},
		},
		SLEF: est(35, 65, 85),
	}
}

func post(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCalculate(t *testing.T) {
	mux := newTestServer().Routes()
	rec := post(t, mux, "/calculate", CalculateRequest{Scenario: validScenario()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-test", resp.RunID)
	assert.Equal(t, uint64(DefaultSeed), resp.Seed)
	assert.Equal(t, 2000, resp.Result.NSimulations)
	assert.Greater(t, resp.Result.ALE.Mean, 0.0)
	assert.LessOrEqual(t, resp.Result.ALE.P50, resp.Result.ALE.P90)
	assert.Contains(t, resp.Result.LossFormMeans, domain.LossFormProductivity)
}

func TestCalculateIsDeterministicAcrossCalls(t *testing.T) {
	mux := newTestServer().Routes()

	first := post(t, mux, "/calculate", CalculateRequest{Scenario: validScenario()})
	second := post(t, mux, "/calculate", CalculateRequest{Scenario: validScenario()})
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String(),
		"identical inputs with the default seed must return identical numbers")
}

func TestCalculateSeedOverride(t *testing.T) {
	mux := newTestServer().Routes()
	seed := uint64(7)

	base := post(t, mux, "/calculate", CalculateRequest{Scenario: validScenario()})
	other := post(t, mux, "/calculate", CalculateRequest{Scenario: validScenario(), Seed: &seed})
	require.Equal(t, http.StatusOK, other.Code)

	var baseResp, otherResp CalculateResponse
	require.NoError(t, json.Unmarshal(base.Body.Bytes(), &baseResp))
	require.NoError(t, json.Unmarshal(other.Body.Bytes(), &otherResp))
	assert.Equal(t, seed, otherResp.Seed)
	assert.NotEqual(t, baseResp.Result.ALE.Mean, otherResp.Result.ALE.Mean)
}

func TestCalculateRejectsNonMonotoneTriple(t *testing.T) {
	scenario := validScenario()
	scenario.TEF.Estimate = est(5, 2, 4)

	rec := post(t, newTestServer().Routes(), "/calculate", CalculateRequest{Scenario: scenario})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation", resp.Error.Type)
	assert.Equal(t, "tef", resp.Error.Field)
}

func TestSensitivity(t *testing.T) {
	mux := newTestServer().Routes()
	rec := post(t, mux, "/sensitivity", SensitivityRequest{
		Scenario:        validScenario(),
		Factor:          "tef",
		Steps:           11,
		IncludeVariance: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SensitivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tef", resp.Result.Factor)
	assert.Len(t, resp.Result.Curve, 11)
	assert.InDelta(t, 1.0, resp.Result.Elasticity, 1e-9, "ALE is linear in TEF")
	require.NotEmpty(t, resp.VarianceContributions)

	sum := 0.0
	for _, c := range resp.VarianceContributions {
		sum += c
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestSensitivityUnknownFactor(t *testing.T) {
	rec := post(t, newTestServer().Routes(), "/sensitivity", SensitivityRequest{
		Scenario: validScenario(),
		Factor:   "moon_phase",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAggregateRequiresMode(t *testing.T) {
	scenarios := map[string]domain.ScenarioInput{"a": validScenario(), "b": validScenario()}

	rec := post(t, newTestServer().Routes(), "/aggregate", AggregateRequest{Scenarios: scenarios})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "aggregation_mode", resp.Error.Field)
}

func TestAggregate(t *testing.T) {
	scenarios := map[string]domain.ScenarioInput{"a": validScenario(), "b": validScenario()}

	rec := post(t, newTestServer().Routes(), "/aggregate", AggregateRequest{
		Scenarios:   scenarios,
		Mode:        "correlated",
		Correlation: 0.4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AggregateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "correlated", resp.Result.Mode)
	assert.InDelta(t, 0.4, resp.Result.Correlation, 1e-12)
	assert.Greater(t, resp.Result.TotalALEStats.P90, 0.0)
	assert.Len(t, resp.Result.ScenarioALEs, 2)
}

func TestPortfolioMetrics(t *testing.T) {
	scenarios := map[string]domain.ScenarioInput{"big": validScenario(), "small": validScenario()}
	small := scenarios["small"]
	small.TEF.Estimate = est(0.05, 0.1, 0.3)
	scenarios["small"] = small

	rec := post(t, newTestServer().Routes(), "/portfolio/metrics", PortfolioMetricsRequest{
		Scenarios: scenarios,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PortfolioMetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "big", resp.TopScenarioID)
	assert.True(t, resp.HighConcentration)
	require.NotNil(t, resp.WeightedAverageLM)

	sum := 0.0
	for _, ale := range resp.ScenarioALEs {
		sum += ale
	}
	assert.InDelta(t, resp.TotalALE, sum, 1e-6*sum)
}

func TestValidate(t *testing.T) {
	mux := newTestServer().Routes()

	rec := post(t, mux, "/validate", ValidateRequest{Scenario: validScenario()})
	require.Equal(t, http.StatusOK, rec.Code)
	var ok ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.Valid)
	assert.Nil(t, ok.Error)

	bad := validScenario()
	bad.Susceptibility.Estimate = est(20, 35, 120)
	rec = post(t, mux, "/validate", ValidateRequest{Scenario: bad})
	require.Equal(t, http.StatusOK, rec.Code, "validation outcome is a result, not an HTTP failure")
	var notOK ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notOK))
	assert.False(t, notOK.Valid)
	require.NotNil(t, notOK.Error)
	assert.Equal(t, "susceptibility", notOK.Error.Field)
}

func TestMalformedBody(t *testing.T) {
	mux := newTestServer().Routes()
	req := httptest.NewRequest(http.MethodPost, "/calculate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndStatus(t *testing.T) {
	mux := newTestServer().Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, uint64(DefaultSeed), status.DefaultSeed)
}
