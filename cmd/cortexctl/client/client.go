// Package client provides the HTTP API client for the cortexctl CLI.
//
// This package implements the client layer for talking to a CORTEX hub's REST
// API. It wraps Resty with hub-specific configuration including timeouts,
// retry logic for connection failures, structured logging integration, and
// typed response parsing for every endpoint the CLI exposes.
//
// SUPPORTED OPERATIONS:
//   - Hub status: health, uptime, and stored reading counts
//   - Node inspection: link sessions, latest readings, and per-node detail
//   - Telemetry: live last-reading cache and stored history queries
//   - Room analytics: occupancy, spatial fusion, and metric forecasts
//   - Personality: reading and transitioning the hub mood state
//   - Calibration: listing offsets and triggering a recalibration run
//   - Federation: listing hubs known through the gossip mesh
//
// All methods return descriptive errors with connection diagnostics so
// operators can tell a down hub from a rejected request.
package client

import (
	"fmt"
	"time"

	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/cortexhq/cortex/internal/analytics"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/cortexhq/cortex/internal/personality"
	"github.com/go-resty/resty/v2"
)

// HubHealth is the hub health check payload.
type HubHealth struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Readings  int64     `json:"readings"`
}

// Node merges a node's link session counters with its latest reading, exactly
// as the hub's /nodes endpoint reports it.
type Node struct {
	link.SessionStats
	Connected bool            `json:"connected"`
	Last      *packet.Reading `json:"last,omitempty"`
}

// Personality is the hub mood payload.
type Personality struct {
	State      string                 `json:"state"`
	Properties personality.Properties `json:"properties"`
}

// Calibration mirrors the hub's stored per-node offsets.
type Calibration struct {
	NodeID         uint8   `json:"node_id"`
	TempOffset     float64 `json:"temp_offset"`
	RHOffset       float64 `json:"rh_offset"`
	PressureOffset float64 `json:"pressure_offset"`
	UpdatedUTC     string  `json:"updated_utc"`
}

// Hub is a federation member as reported by the /hubs endpoint.
type Hub struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Addr     string            `json:"addr"`
	Port     uint16            `json:"port"`
	Status   int               `json:"status"`
	Tags     map[string]string `json:"tags"`
	LastSeen time.Time         `json:"lastSeen"`
}

// StatusString maps the numeric serf membership status to its name.
func (h Hub) StatusString() string {
	switch h.Status {
	case 1:
		return "alive"
	case 2:
		return "leaving"
	case 3:
		return "left"
	case 4:
		return "failed"
	default:
		return "none"
	}
}

// HubList is the federation listing payload.
type HubList struct {
	Hubs      []Hub `json:"hubs"`
	Count     int   `json:"count"`
	Federated bool  `json:"federated"`
}

// Spatial is the fused room view payload.
type Spatial struct {
	Fused    map[string]analytics.RoomEstimate `json:"fused"`
	Gradient *analytics.Gradient               `json:"gradient,omitempty"`
	Nodes    int                               `json:"nodes"`
}

// ForecastResult is the metric forecast payload.
type ForecastResult struct {
	NodeID         uint8              `json:"node_id"`
	Metric         string             `json:"metric"`
	HorizonMinutes float64            `json:"horizon_minutes"`
	Samples        int                `json:"samples"`
	Forecast       analytics.Forecast `json:"forecast"`
}

// CortexAPIClient wraps the Resty HTTP client with hub-specific configuration
// for reliable API communication. Connection errors are retried; HTTP errors
// are surfaced to the caller.
type CortexAPIClient struct {
	client  *resty.Client
	baseURL string
}

// NewCortexAPIClient creates an API client against one hub with timeout,
// retry, and logging wiring.
func NewCortexAPIClient(apiAddr string, timeout int) *CortexAPIClient {
	client := resty.New()

	baseURL := fmt.Sprintf("http://%s/api/v1", apiAddr)

	// Route Resty's internal logging through our structured logging system
	client.SetLogger(utils.RestyLogger{})

	client.
		SetTimeout(time.Duration(timeout)*time.Second).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("cortexctl/%s", config.Version))

	client.
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only retry on connection errors, not HTTP errors
			return err != nil
		})

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Making API request: %s %s", req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("API response: %d %s (took %v)",
			resp.StatusCode(), resp.Status(), resp.Time())
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		logging.Debug("API request failed: %s %s - %v", req.Method, req.URL, err)
	})

	return &CortexAPIClient{
		client:  client,
		baseURL: baseURL,
	}
}

// GetHealth fetches the hub health status. A degraded hub answers 503 with
// the same payload, so both status codes parse.
func (api *CortexAPIClient) GetHealth() (*HubHealth, error) {
	var health HubHealth

	resp, err := api.client.R().
		SetResult(&health).
		SetError(&health).
		Get("/health")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 && resp.StatusCode() != 503 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &health, nil
}

// GetNodes fetches every known node with session counters and latest readings.
func (api *CortexAPIClient) GetNodes() ([]Node, error) {
	var response struct {
		Nodes []Node `json:"nodes"`
		Count int    `json:"count"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Get("/nodes")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Nodes, nil
}

// GetNode fetches one node's session and latest reading by node ID.
func (api *CortexAPIClient) GetNode(nodeID string) (*Node, error) {
	var node Node

	resp, err := api.client.R().
		SetResult(&node).
		Get(fmt.Sprintf("/nodes/%s", nodeID))

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("node '%s' is not known to this hub", nodeID)
	}

	if resp.StatusCode() == 400 {
		return nil, fmt.Errorf("invalid node ID '%s': must be an integer between 0 and 254", nodeID)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &node, nil
}

// GetLast fetches the latest reading per node from the hub's live cache.
func (api *CortexAPIClient) GetLast() ([]*packet.Reading, error) {
	var response struct {
		Readings []*packet.Reading `json:"readings"`
		Count    int               `json:"count"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Get("/last")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Readings, nil
}

// GetHistory fetches stored readings, newest first. Empty node and since
// values mean no filter; limit 0 uses the hub default.
func (api *CortexAPIClient) GetHistory(node, since string, limit int) ([]*packet.Reading, error) {
	var response struct {
		Readings []*packet.Reading `json:"readings"`
		Count    int               `json:"count"`
	}

	req := api.client.R().SetResult(&response)
	if node != "" {
		req.SetQueryParam("node", node)
	}
	if since != "" {
		req.SetQueryParam("since", since)
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}

	resp, err := req.Get("/history")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() == 400 {
		return nil, fmt.Errorf("invalid history query: %s", resp.String())
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Readings, nil
}

// GetOccupancy fetches the room occupancy estimate.
func (api *CortexAPIClient) GetOccupancy() (*analytics.Occupancy, error) {
	var occ analytics.Occupancy

	resp, err := api.client.R().
		SetResult(&occ).
		Get("/occupancy")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &occ, nil
}

// GetSpatial fetches the median-fused room view and temperature gradient.
func (api *CortexAPIClient) GetSpatial() (*Spatial, error) {
	var spatial Spatial

	resp, err := api.client.R().
		SetResult(&spatial).
		Get("/spatial")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &spatial, nil
}

// GetForecast fetches a linear extrapolation of one node's metric. The
// threshold is passed through verbatim when non-empty.
func (api *CortexAPIClient) GetForecast(node, metric string, horizon, window float64, threshold string) (*ForecastResult, error) {
	var result ForecastResult

	req := api.client.R().
		SetResult(&result).
		SetQueryParam("node", node).
		SetQueryParam("metric", metric)
	if horizon > 0 {
		req.SetQueryParam("horizon", fmt.Sprintf("%g", horizon))
	}
	if window > 0 {
		req.SetQueryParam("window", fmt.Sprintf("%g", window))
	}
	if threshold != "" {
		req.SetQueryParam("threshold", threshold)
	}

	resp, err := req.Get("/forecast")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() == 400 {
		return nil, fmt.Errorf("invalid forecast query: %s", resp.String())
	}

	if resp.StatusCode() == 422 {
		return nil, fmt.Errorf("not enough stored samples to forecast: %s", resp.String())
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &result, nil
}

// GetPersonality fetches the hub's current mood state and its properties.
func (api *CortexAPIClient) GetPersonality() (*Personality, error) {
	var p Personality

	resp, err := api.client.R().
		SetResult(&p).
		Get("/personality")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &p, nil
}

// SetPersonality transitions the hub to a new mood state.
func (api *CortexAPIClient) SetPersonality(state string) (*Personality, error) {
	var p Personality

	resp, err := api.client.R().
		SetBody(map[string]string{"state": state}).
		SetResult(&p).
		Put("/personality")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() == 400 {
		return nil, fmt.Errorf("invalid personality state '%s': %s", state, resp.String())
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &p, nil
}

// GetCalibrations fetches all stored per-node offsets.
func (api *CortexAPIClient) GetCalibrations() ([]Calibration, error) {
	var response struct {
		Calibrations []Calibration `json:"calibrations"`
		Count        int           `json:"count"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Get("/calibration")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Calibrations, nil
}

// RunCalibration asks the hub to recompute offsets from stored readings and
// returns the new offsets.
func (api *CortexAPIClient) RunCalibration() ([]Calibration, error) {
	var response struct {
		Calibrations []Calibration `json:"calibrations"`
		Count        int           `json:"count"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Put("/calibration")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Calibrations, nil
}

// GetHubs fetches the federation member list.
func (api *CortexAPIClient) GetHubs() (*HubList, error) {
	var hubs HubList

	resp, err := api.client.R().
		SetResult(&hubs).
		Get("/hubs")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub API at %s: %w", api.baseURL, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &hubs, nil
}

// CreateAPIClient creates a hub API client from the global CLI configuration.
func CreateAPIClient() *CortexAPIClient {
	return NewCortexAPIClient(config.Global.APIAddr, config.Global.Timeout)
}
