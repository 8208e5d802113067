package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/logger"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/metrics"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/retry"
)

type fakeTx struct {
	snapshot    *models.EndpointSnapshot
	snapshotErr error

	createdEndpoints []models.Endpoint
	createdUsers     []string
	createErr        error

	connections   []models.UserConnection
	connectionErr error

	statusUpdates []models.UserConnection
	statusErr     error
}

func (t *fakeTx) EndpointSnapshot(deviceToken string) (*models.EndpointSnapshot, error) {
	return t.snapshot, t.snapshotErr
}

func (t *fakeTx) CreateEndpointWithConnection(userID string, ep models.Endpoint) error {
	if t.createErr != nil {
		return t.createErr
	}
	t.createdUsers = append(t.createdUsers, userID)
	t.createdEndpoints = append(t.createdEndpoints, ep)
	return nil
}

func (t *fakeTx) CreateConnection(userID, deviceToken string, status models.ConnectionStatus) error {
	if t.connectionErr != nil {
		return t.connectionErr
	}
	t.connections = append(t.connections, models.UserConnection{UserID: userID, Status: status})
	return nil
}

func (t *fakeTx) SetConnectionStatus(userID, deviceToken string, status models.ConnectionStatus) error {
	if t.statusErr != nil {
		return t.statusErr
	}
	t.statusUpdates = append(t.statusUpdates, models.UserConnection{UserID: userID, Status: status})
	return nil
}

type fakeGraph struct {
	mu sync.Mutex

	digests    map[string]*models.RecipientDigest
	digestErrs map[string]error

	edges   []models.EdgeQuery
	edgeErr error

	disabledARNs []string

	disabledList    []string
	disabledListErr error

	deletedDisabled bool
	deleteErr       error

	tx *fakeTx
}

func (g *fakeGraph) RecipientDigest(ctx context.Context, q models.DigestQuery) (*models.RecipientDigest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.digestErrs[q.ToWhom]; err != nil {
		return nil, err
	}
	if digest, ok := g.digests[q.ToWhom]; ok {
		return digest, nil
	}
	return &models.RecipientDigest{}, nil
}

func (g *fakeGraph) CreateNotifiedEdge(ctx context.Context, q models.EdgeQuery) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.edgeErr != nil {
		return g.edgeErr
	}
	g.edges = append(g.edges, q)
	return nil
}

func (g *fakeGraph) DisableEndpoint(ctx context.Context, arn string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disabledARNs = append(g.disabledARNs, arn)
	return nil
}

func (g *fakeGraph) DisabledEndpoints(ctx context.Context) ([]string, error) {
	return g.disabledList, g.disabledListErr
}

func (g *fakeGraph) DeleteDisabledEndpoints(ctx context.Context) error {
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deletedDisabled = true
	return nil
}

func (g *fakeGraph) WriteTx(ctx context.Context, fn func(tx GraphTx) error) error {
	if g.tx == nil {
		g.tx = &fakeTx{}
	}
	return fn(g.tx)
}

type fakeProvider struct {
	mu sync.Mutex

	registerARN string
	registerErr error

	publishErrs  map[string]error
	publishCalls map[string]int

	deleted    []string
	deleteErrs map[string]error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Register(ctx context.Context, platformType, deviceToken string) (string, error) {
	if p.registerErr != nil {
		return "", p.registerErr
	}
	return p.registerARN, nil
}

func (p *fakeProvider) Publish(ctx context.Context, arn string, payload Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishCalls == nil {
		p.publishCalls = make(map[string]int)
	}
	p.publishCalls[arn]++
	return p.publishErrs[arn]
}

func (p *fakeProvider) Delete(ctx context.Context, arn string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.deleteErrs[arn]; err != nil {
		return err
	}
	p.deleted = append(p.deleted, arn)
	return nil
}

type fakeCache struct {
	mu         sync.Mutex
	suppressed map[string]bool
	writes     []string
}

func (c *fakeCache) IsEndpointSuppressed(ctx context.Context, arn string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed[arn], nil
}

func (c *fakeCache) SuppressEndpoint(ctx context.Context, arn string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, arn)
	return nil
}

func testPayloadBuilder() *PayloadBuilder {
	return NewPayloadBuilder("CatchU", "PUSH_FOLLOW_REQUEST", "PUSH_DIRECT_FOLLOW", "PUSH_GROUP_CREATE")
}

func newTestEngines(g *fakeGraph, p *fakeProvider, cache SuppressionCache) (*FanOutEngine, *LifecycleEngine) {
	logr := logger.NewWithWriter("error", io.Discard)
	m := metrics.New()
	lifecycle := NewLifecycleEngine(g, p, cache, m, logr, time.Hour)
	status := NewStatusUpdater(nil, logr)
	retryCfg := retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	fanOut := NewFanOutEngine(g, p, lifecycle, cache, status, testPayloadBuilder(), m, logr, retryCfg)
	return fanOut, lifecycle
}
