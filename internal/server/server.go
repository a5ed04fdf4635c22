// Package server exposes the equilibrium solver over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mauriciotejada/labor-economics/internal/config"
	"github.com/mauriciotejada/labor-economics/internal/market"
	"github.com/mauriciotejada/labor-economics/pkg/constants"
	"github.com/mauriciotejada/labor-economics/pkg/equilibrium"
	"github.com/mauriciotejada/labor-economics/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// HandlerOptions configures NewHandler. Zero values fall back to defaults.
type HandlerOptions struct {
	MaxUploadSize int64
	MaxScenarios  int
	SolveTimeout  time.Duration
	Version       string
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	maxScenarios  int
	solveTimeout  time.Duration
	version       string
}

type solveOptions struct {
	IncludeCSV bool
}

// NewHandler constructs the HTTP handler that serves the solve API.
func NewHandler(logger *zap.Logger, opts HandlerOptions) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: opts.MaxUploadSize,
		maxScenarios:  opts.MaxScenarios,
		solveTimeout:  opts.SolveTimeout,
		version:       strings.TrimSpace(opts.Version),
	}
	if h.maxUploadSize <= 0 {
		h.maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if h.maxScenarios <= 0 {
		h.maxScenarios = constants.DefaultMaxScenarios
	}
	if h.solveTimeout <= 0 {
		h.solveTimeout = constants.DefaultSolveTimeout
	}
	if h.version == "" {
		h.version = "dev"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Handlers check the request method themselves.
	r.Route("/api", func(r chi.Router) {
		// Solve API endpoint (file upload)
		r.HandleFunc("/solve", h.handleSolve)

		// Solve API endpoint for editor-driven updates
		r.HandleFunc("/editor/solve", h.handleSolveEditor)

		// Config serialization endpoint for editor downloads
		r.HandleFunc("/editor/export", h.handleConfigExport)

		r.HandleFunc("/version", h.handleVersion)
	})

	return r
}

type solveResponse struct {
	Scenarios  []market.Equilibrium   `json:"scenarios"`
	CSV        string                 `json:"csv,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize))
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleSolve"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err))
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err))
		return
	}

	opts := solveOptions{IncludeCSV: coerceBool(r.FormValue("csv"))}
	h.runSolve(w, r, configBytes, configMap, start, "server.handleSolve", opts)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleSolveEditor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
		h.respondErrorWithOp(w, status, fmt.Sprintf("failed to decode configuration: %v", err), "server.handleSolveEditor")
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid config payload: expected object", "server.handleSolveEditor")
			return
		}
		configPayload = cfgMap
	}

	options := solveOptions{}
	if rawOptions, ok := payload["options"]; ok {
		optsMap, ok := rawOptions.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid options payload: expected object", "server.handleSolveEditor")
			return
		}
		if csvVal, ok := optsMap["csv"]; ok {
			options.IncludeCSV = coerceBool(csvVal)
		}
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleSolveEditor")
		return
	}

	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse configuration: %v", err), "server.handleSolveEditor")
		return
	}

	h.runSolve(w, r, configBytes, configMap, start, "server.handleSolveEditor", options)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
		h.respondErrorWithOp(w, status, fmt.Sprintf("failed to decode configuration: %v", err), "server.handleConfigExport")
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfigExport")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// exportKeyOrder lists the top-level sections in the order a hand-written
// configuration presents them.
var exportKeyOrder = []string{"common", "scenarios", "solver", "logging", "output"}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range exportKeyOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) runSolve(w http.ResponseWriter, r *http.Request, configBytes []byte, configMap map[string]interface{}, start time.Time, op string, opts solveOptions) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	active := cfg.ActiveScenarios()
	if len(active) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "configuration has no active scenarios", op)
		return
	}
	if len(active) > h.maxScenarios {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("configuration has %d active scenarios, limit is %d", len(active), h.maxScenarios), op)
		return
	}

	// Reject malformed input before any solve starts.
	for _, scenario := range active {
		if _, err := cfg.ScenarioParameters(scenario); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		if scenario.Calibration != nil {
			if err := scenario.Calibration.Validate(); err != nil {
				h.respondErrorWithOp(w, http.StatusBadRequest,
					fmt.Sprintf("scenario %s: %v", scenario.Name, err), op)
				return
			}
		}
	}
	if err := cfg.SolverOptions().Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid solver settings: %v", err), op)
		return
	}

	warnings := cfg.ValidateConfiguration()

	ctx, cancel := context.WithTimeout(r.Context(), h.solveTimeout)
	defer cancel()

	logger := h.logger.With(zap.String("requestID", middleware.GetReqID(r.Context())))
	results, err := market.GetEquilibria(ctx, logger, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, solveErrorStatus(err), fmt.Sprintf("failed to solve equilibrium: %v", err), op)
		return
	}

	elapsed := time.Since(start)

	if configMap == nil {
		configMap = make(map[string]interface{})
	}

	response := solveResponse{
		Scenarios:  results,
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}
	if opts.IncludeCSV {
		response.CSV = output.CsvString(results)
	}

	logger.Info("equilibrium computed",
		zap.String("op", op),
		zap.Int("scenarios", len(response.Scenarios)),
		zap.Int("warnings", len(response.Warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

// solveErrorStatus maps a solver failure to an HTTP status. Input problems
// are the client's; a model without a solution is unprocessable.
func solveErrorStatus(err error) int {
	var (
		paramErr       *equilibrium.ParameterError
		convergenceErr *equilibrium.ConvergenceError
		rootErr        *equilibrium.RootFindingError
		integrationErr *equilibrium.IntegrationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &paramErr):
		return http.StatusBadRequest
	case errors.As(err, &convergenceErr), errors.As(err, &rootErr), errors.As(err, &integrationErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondErrorWithOp(w, status, msg, "server.handleSolve")
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("solve request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		if parsed, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return parsed != 0
		}
	}
	return false
}
