// Package api exposes the risk engine over HTTP/JSON.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fair-risk-engine/internal/domain"
	"fair-risk-engine/internal/observability"
	"fair-risk-engine/internal/portfolio"
	"fair-risk-engine/internal/sensitivity"
	"fair-risk-engine/internal/simulation"
)

// Options configures the API server.
type Options struct {
	// Seed is the engine default applied when requests carry none. Zero
	// selects DefaultSeed.
	Seed uint64

	// NSimulations caps nothing; it is the default iteration count for
	// requests that specify none.
	NSimulations int

	Logger *log.Logger
}

// Server holds the HTTP handlers for the engine. Each request runs its
// simulation with request-owned generators, so concurrent requests never
// share random state.
type Server struct {
	seed         uint64
	nSimulations int
	logger       *log.Logger
	newID        func() string
	started      time.Time
}

// NewServer creates an API server.
func NewServer(opts Options) *Server {
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.NSimulations <= 0 {
		opts.NSimulations = domain.DefaultNSimulations
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}
	return &Server{
		seed:         opts.Seed,
		nSimulations: opts.NSimulations,
		logger:       opts.Logger,
		newID:        uuid.NewString,
		started:      time.Now().UTC(),
	}
}

// Routes returns the engine's HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /calculate", s.instrument("calculate", s.handleCalculate))
	mux.HandleFunc("POST /sensitivity", s.instrument("sensitivity", s.handleSensitivity))
	mux.HandleFunc("POST /aggregate", s.instrument("aggregate", s.handleAggregate))
	mux.HandleFunc("POST /portfolio/metrics", s.instrument("portfolio_metrics", s.handlePortfolioMetrics))
	mux.HandleFunc("POST /validate", s.instrument("validate", s.handleValidate))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())
	return mux
}

// instrument wraps a handler with request metrics.
func (s *Server) instrument(endpoint string, h func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		code := h(w, r)
		observability.RecordRequest(endpoint, strconv.Itoa(code), time.Since(start).Seconds())
	}
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) int {
	var req CalculateRequest
	if code := s.decode(w, r, &req); code != 0 {
		return code
	}

	seed := s.resolveSeed(req.Seed)
	input := req.Scenario.WithDefaults()
	if input.NSimulations == domain.DefaultNSimulations {
		input.NSimulations = s.nSimulations
	}

	start := time.Now()
	runner := simulation.NewRunner(simulation.RunnerOptions{
		Seed:         seed,
		NSimulations: req.NSimulations,
	})
	result, _, err := runner.RunScenario(input)
	if err != nil {
		observability.RecordSimulation("error", 0, time.Since(start).Seconds())
		return s.fail(w, err)
	}
	observability.RecordSimulation("success", result.NSimulations, time.Since(start).Seconds())

	return s.respond(w, http.StatusOK, CalculateResponse{
		RunID:  s.newID(),
		Seed:   seed,
		Result: *result,
	})
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) int {
	var req SensitivityRequest
	if code := s.decode(w, r, &req); code != 0 {
		return code
	}

	seed := s.resolveSeed(req.Seed)
	analyzer := sensitivity.NewAnalyzer(seed)
	result, err := analyzer.Analyze(req.Scenario, req.Factor, sensitivity.SweepOptions{
		Steps:       req.Steps,
		RangeMinPct: req.RangeMinPct,
		RangeMaxPct: req.RangeMaxPct,
		MonteCarlo:  req.MonteCarlo,
		Iterations:  req.Iterations,
	})
	if err != nil {
		return s.fail(w, err)
	}
	observability.RecordSweep(req.Factor, len(result.Curve))

	resp := SensitivityResponse{
		RunID:  s.newID(),
		Seed:   seed,
		Result: *result,
	}
	if req.IncludeVariance {
		contributions, err := sensitivity.DecomposeVariance(req.Scenario)
		if err != nil {
			return s.fail(w, err)
		}
		resp.VarianceContributions = contributions
	}
	return s.respond(w, http.StatusOK, resp)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) int {
	var req AggregateRequest
	if code := s.decode(w, r, &req); code != 0 {
		return code
	}

	seed := s.resolveSeed(req.Seed)
	nSims := req.NSimulations
	if nSims == 0 {
		nSims = s.nSimulations
	}

	agg, err := portfolio.NewAggregator(portfolio.Options{
		Seed:         seed,
		Mode:         portfolio.Mode(req.Mode),
		Correlation:  req.Correlation,
		NSimulations: nSims,
	})
	if err != nil {
		return s.fail(w, err)
	}
	result, err := agg.Aggregate(r.Context(), req.Scenarios)
	if err != nil {
		return s.fail(w, err)
	}
	observability.RecordAggregation(req.Mode, len(req.Scenarios), len(result.Warnings))

	return s.respond(w, http.StatusOK, AggregateResponse{
		RunID:  s.newID(),
		Seed:   seed,
		Result: *result,
	})
}

func (s *Server) handlePortfolioMetrics(w http.ResponseWriter, r *http.Request) int {
	var req PortfolioMetricsRequest
	if code := s.decode(w, r, &req); code != 0 {
		return code
	}

	seed := s.resolveSeed(req.Seed)
	nSims := req.NSimulations
	if nSims == 0 {
		nSims = s.nSimulations
	}

	// Means and concentration are mode-independent; the independent mode
	// here only selects how the (unreported) tail array is built.
	agg, err := portfolio.NewAggregator(portfolio.Options{
		Seed:         seed,
		Mode:         portfolio.ModeIndependent,
		NSimulations: nSims,
	})
	if err != nil {
		return s.fail(w, err)
	}
	result, err := agg.Aggregate(r.Context(), req.Scenarios)
	if err != nil {
		return s.fail(w, err)
	}
	observability.RecordAggregation("metrics", len(req.Scenarios), len(result.Warnings))

	return s.respond(w, http.StatusOK, PortfolioMetricsResponse{
		RunID:                 s.newID(),
		Seed:                  seed,
		TotalALE:              result.TotalALE,
		ExpectedEventsPerYear: result.ExpectedEventsPerYear,
		WeightedAverageLM:     result.WeightedAverageLM,
		TopScenarioShare:      result.TopScenarioShare,
		TopScenarioID:         result.TopScenarioID,
		HighConcentration:     result.HighConcentration,
		ScenarioALEs:          result.ScenarioALEs,
		ScenarioLEFs:          result.ScenarioLEFs,
		ScenarioLMs:           result.ScenarioLMs,
		Warnings:              result.Warnings,
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) int {
	var req ValidateRequest
	if code := s.decode(w, r, &req); code != 0 {
		return code
	}

	if err := req.Scenario.WithDefaults().Validate(); err != nil {
		observability.RecordValidationFailure(validationField(err))
		return s.respond(w, http.StatusOK, ValidateResponse{
			Valid: false,
			Error: errorBody(err),
		})
	}
	return s.respond(w, http.StatusOK, ValidateResponse{Valid: true})
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	DefaultSeed  uint64 `json:"default_seed"`
	NSimulations int    `json:"default_n_simulations"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		DefaultSeed:  s.seed,
		NSimulations: s.nSimulations,
	})
}

func (s *Server) resolveSeed(override *uint64) uint64 {
	if override != nil {
		return *override
	}
	return s.seed
}

// decode parses the request body; a non-zero return is the response code
// already written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) int {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.respond(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Type:    "malformed_request",
			Message: err.Error(),
		}})
		return http.StatusBadRequest
	}
	return 0
}

// fail maps engine errors to structured HTTP failures: validation and fit
// errors are the caller's fault (400), everything else is internal (500).
// Partial numeric results are never written.
func (s *Server) fail(w http.ResponseWriter, err error) int {
	body := errorBody(err)
	code := http.StatusInternalServerError
	switch body.Type {
	case "validation":
		observability.RecordValidationFailure(body.Field)
		code = http.StatusBadRequest
	case "distribution_fit":
		observability.RecordFitFailure(body.Field)
		code = http.StatusBadRequest
	default:
		s.logger.Printf("internal error: %v", err)
	}
	return s.respond(w, code, ErrorResponse{Error: *body})
}

func errorBody(err error) *ErrorBody {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return &ErrorBody{Type: "validation", Field: verr.Field, Message: err.Error()}
	}
	var ferr *domain.DistributionFitError
	if errors.As(err, &ferr) {
		return &ErrorBody{Type: "distribution_fit", Field: ferr.Factor, Message: err.Error()}
	}
	return &ErrorBody{Type: "internal", Message: err.Error()}
}

func validationField(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}
	return "unknown"
}

func (s *Server) respond(w http.ResponseWriter, code int, body any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
	return code
}
