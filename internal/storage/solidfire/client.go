// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
	"github.com/platformbuilds/sfcollector/internal/version"
)

// Session is the set of Element API calls the collector depends on.
type Session interface {
	GetClusterInfo(ctx context.Context) (ClusterInfo, error)
	ListClusterFaults(ctx context.Context, bestPractices bool, faultTypes string) ([]Fault, error)
	GetClusterStats(ctx context.Context) (ClusterStats, error)
	GetClusterCapacity(ctx context.Context) (ClusterCapacity, error)
	ListAllNodes(ctx context.Context) ([]Node, error)
	ListNodeStats(ctx context.Context) ([]NodeStats, error)
	ListVolumes(ctx context.Context, includeVirtualVolumes bool) ([]Volume, error)
	ListVolumeStatsByVolume(ctx context.Context, includeVirtualVolumes bool) ([]VolumeStats, error)
	GetAccountByID(ctx context.Context, accountID int64) (Account, error)
	ListDrives(ctx context.Context) ([]Drive, error)
}

// DefaultAPIVersion is the Element JSON-RPC endpoint version used when
// none is configured.
const DefaultAPIVersion = "10.0"

// ClientConfig configures an Element API client.
type ClientConfig struct {
	Address    string
	Username   string
	Password   string
	APIVersion string
	Timeout    time.Duration
	VerifySSL  bool
	TLS        storagedef.TLSConfig
	Transport  http.RoundTripper
}

// CallObserver is notified after every API call.
type CallObserver func(method string, elapsed time.Duration, err error)

// Client talks to the Element JSON-RPC API of a cluster management VIP.
type Client struct {
	http     *storagedef.HTTPClient
	path     string
	log      *slog.Logger
	tracer   trace.Tracer
	observer CallObserver
	nextID   atomic.Int64
}

var _ Session = (*Client)(nil)

// NewClient creates an Element API client. It does not contact the cluster.
func NewClient(cfg ClientConfig, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("solidfire address is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	baseURL := cfg.Address
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	httpClient, err := storagedef.NewHTTPClient(storagedef.HTTPClientConfig{
		BaseURL:   baseURL,
		Timeout:   cfg.Timeout,
		VerifySSL: cfg.VerifySSL,
		TLS:       cfg.TLS,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	httpClient.SetBasicAuth(cfg.Username, cfg.Password)
	httpClient.SetHeader("User-Agent", "sfcollector/"+version.Version())

	return &Client{
		http:   httpClient,
		path:   "/json-rpc/" + cfg.APIVersion,
		log:    log.With("component", "solidfire-client", "address", cfg.Address),
		tracer: otel.Tracer("github.com/platformbuilds/sfcollector/internal/storage/solidfire"),
	}, nil
}

// SetObserver installs a hook called after every API call.
func (c *Client) SetObserver(o CallObserver) { c.observer = o }

// Close drops pooled connections.
func (c *Client) Close() { c.http.CloseIdleConnections() }

type rpcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
	ID     int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC call and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "solidfire."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.system", "jsonrpc"), attribute.String("rpc.method", method)),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.observer != nil {
			c.observer(method, time.Since(start), err)
		}
	}()

	if params == nil {
		params = struct{}{}
	}
	req := rpcRequest{Method: method, Params: params, ID: c.nextID.Add(1)}

	var resp rpcResponse
	if err := c.http.Post(ctx, c.path, req, &resp); err != nil {
		return wrapOp(method, err)
	}
	if resp.Error != nil {
		return storagedef.Transport(method, &storagedef.APIError{
			StatusCode: http.StatusOK,
			Code:       resp.Error.Code,
			Name:       resp.Error.Name,
			Message:    resp.Error.Message,
		})
	}
	if len(resp.Result) == 0 {
		return storagedef.Generalf(method, "response has no result")
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return storagedef.General(method, fmt.Errorf("failed to decode result: %w", err))
	}

	c.log.Debug("api call completed", "method", method, "duration", time.Since(start))
	return nil
}

// wrapOp keeps the kind of an already classified error and names the API method.
func wrapOp(method string, err error) error {
	var e *storagedef.Error
	if errors.As(err, &e) {
		return &storagedef.Error{Kind: e.Kind, Op: method, Err: e.Err}
	}
	return storagedef.General(method, err)
}

func (c *Client) GetClusterInfo(ctx context.Context) (ClusterInfo, error) {
	var res struct {
		ClusterInfo ClusterInfo `json:"clusterInfo"`
	}
	if err := c.call(ctx, "GetClusterInfo", nil, &res); err != nil {
		return ClusterInfo{}, err
	}
	if res.ClusterInfo.Name == "" {
		return ClusterInfo{}, storagedef.Generalf("GetClusterInfo", "cluster name missing from response")
	}
	return res.ClusterInfo, nil
}

func (c *Client) ListClusterFaults(ctx context.Context, bestPractices bool, faultTypes string) ([]Fault, error) {
	params := map[string]any{"bestPractices": bestPractices, "faultTypes": faultTypes}
	var res struct {
		Faults []Fault `json:"faults"`
	}
	if err := c.call(ctx, "ListClusterFaults", params, &res); err != nil {
		return nil, err
	}
	return res.Faults, nil
}

func (c *Client) GetClusterStats(ctx context.Context) (ClusterStats, error) {
	var res struct {
		ClusterStats ClusterStats `json:"clusterStats"`
	}
	if err := c.call(ctx, "GetClusterStats", nil, &res); err != nil {
		return ClusterStats{}, err
	}
	if err := requireFields("clusterStats", res.ClusterStats.fields()); err != nil {
		return ClusterStats{}, storagedef.General("GetClusterStats", err)
	}
	return res.ClusterStats, nil
}

func (c *Client) GetClusterCapacity(ctx context.Context) (ClusterCapacity, error) {
	var res struct {
		ClusterCapacity ClusterCapacity `json:"clusterCapacity"`
	}
	if err := c.call(ctx, "GetClusterCapacity", nil, &res); err != nil {
		return ClusterCapacity{}, err
	}
	if err := requireFields("clusterCapacity", res.ClusterCapacity.fields()); err != nil {
		return ClusterCapacity{}, storagedef.General("GetClusterCapacity", err)
	}
	return res.ClusterCapacity, nil
}

func (c *Client) ListAllNodes(ctx context.Context) ([]Node, error) {
	var res struct {
		Nodes []Node `json:"nodes"`
	}
	if err := c.call(ctx, "ListAllNodes", nil, &res); err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

func (c *Client) ListNodeStats(ctx context.Context) ([]NodeStats, error) {
	var res struct {
		NodeStats struct {
			Nodes []NodeStats `json:"nodes"`
		} `json:"nodeStats"`
	}
	if err := c.call(ctx, "ListNodeStats", nil, &res); err != nil {
		return nil, err
	}
	for i := range res.NodeStats.Nodes {
		if err := requireFields("nodeStats", res.NodeStats.Nodes[i].fields()); err != nil {
			return nil, storagedef.General("ListNodeStats", err)
		}
	}
	return res.NodeStats.Nodes, nil
}

func (c *Client) ListVolumes(ctx context.Context, includeVirtualVolumes bool) ([]Volume, error) {
	params := map[string]any{"includeVirtualVolumes": includeVirtualVolumes}
	var res struct {
		Volumes []Volume `json:"volumes"`
	}
	if err := c.call(ctx, "ListVolumes", params, &res); err != nil {
		return nil, err
	}
	return res.Volumes, nil
}

func (c *Client) ListVolumeStatsByVolume(ctx context.Context, includeVirtualVolumes bool) ([]VolumeStats, error) {
	params := map[string]any{"includeVirtualVolumes": includeVirtualVolumes}
	var res struct {
		VolumeStats []VolumeStats `json:"volumeStats"`
	}
	if err := c.call(ctx, "ListVolumeStatsByVolume", params, &res); err != nil {
		return nil, err
	}
	for i := range res.VolumeStats {
		if err := requireFields("volumeStats", res.VolumeStats[i].fields()); err != nil {
			return nil, storagedef.General("ListVolumeStatsByVolume", err)
		}
	}
	return res.VolumeStats, nil
}

func (c *Client) GetAccountByID(ctx context.Context, accountID int64) (Account, error) {
	var res struct {
		Account Account `json:"account"`
	}
	if err := c.call(ctx, "GetAccountByID", map[string]any{"accountID": accountID}, &res); err != nil {
		return Account{}, err
	}
	return res.Account, nil
}

func (c *Client) ListDrives(ctx context.Context) ([]Drive, error) {
	var res struct {
		Drives []Drive `json:"drives"`
	}
	if err := c.call(ctx, "ListDrives", nil, &res); err != nil {
		return nil, err
	}
	return res.Drives, nil
}
