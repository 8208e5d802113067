package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/services"
)

// Store is the graph store adapter. It owns the driver; sessions are scoped
// to one call and always closed, including on error paths.
type Store struct {
	driver neo4j.DriverWithContext
}

var _ services.GraphStore = (*Store)(nil)

// New connects to the graph store and verifies connectivity before any
// engine accepts traffic.
func New(ctx context.Context, uri, user, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: driver setup failed: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: connectivity check failed: %w", err)
	}
	return &Store{driver: driver}, nil
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{})
}

// RecipientDigest runs the single resolve read for one recipient.
func (s *Store) RecipientDigest(ctx context.Context, q models.DigestQuery) (*models.RecipientDigest, error) {
	query, params, err := digestQuery(q)
	if err != nil {
		return nil, err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("graph: digest read failed: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: digest collect failed: %w", err)
	}
	if len(records) == 0 {
		// Recipient has no matching endpoints at all; not an error.
		return &models.RecipientDigest{}, nil
	}
	return digestFromRecord(records[0], q.IncludeSender)
}

// CreateNotifiedEdge writes the dedup marker edge for one recipient. Each
// edge write is an independent auto-commit statement by design.
func (s *Store) CreateNotifiedEdge(ctx context.Context, q models.EdgeQuery) error {
	query, params, err := notifiedEdgeQuery(q)
	if err != nil {
		return err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, query, params); err != nil {
		return fmt.Errorf("graph: notified edge write failed: %w", err)
	}
	return nil
}

// DisableEndpoint flips isEnabled off for the endpoint with the given
// provider handle. The node is kept for the periodic sweep.
func (s *Store) DisableEndpoint(ctx context.Context, arn string) error {
	query, params := disableEndpointQuery(arn)

	session := s.session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, query, params); err != nil {
		return fmt.Errorf("graph: disable endpoint failed: %w", err)
	}
	return nil
}

// DisabledEndpoints returns the provider handles of every disabled endpoint.
func (s *Store) DisabledEndpoints(ctx context.Context) ([]string, error) {
	query, params := disabledEndpointsQuery()

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("graph: disabled endpoint read failed: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: disabled endpoint collect failed: %w", err)
	}
	return arnsFromRecords(records), nil
}

// DeleteDisabledEndpoints removes every disabled endpoint node and its edges
// in one statement, independent of provider-side outcomes.
func (s *Store) DeleteDisabledEndpoints(ctx context.Context) error {
	query, params := deleteDisabledEndpointsQuery()

	session := s.session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, query, params); err != nil {
		return fmt.Errorf("graph: disabled endpoint delete failed: %w", err)
	}
	return nil
}

// Tx exposes the write operations available inside one graph transaction.
type Tx struct {
	ctx context.Context
	tx  neo4j.ManagedTransaction
}

var _ services.GraphTx = (*Tx)(nil)

// WriteTx runs fn inside one explicit write transaction. Any error from fn
// rolls the whole transaction back.
func (s *Store) WriteTx(ctx context.Context, fn func(tx services.GraphTx) error) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(&Tx{ctx: ctx, tx: tx})
	})
	return err
}

// EndpointSnapshot reads the endpoint matching a device token with all its
// user connections. Nil snapshot means no such endpoint.
func (t *Tx) EndpointSnapshot(deviceToken string) (*models.EndpointSnapshot, error) {
	query, params := endpointSnapshotQuery(deviceToken)
	result, err := t.tx.Run(t.ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("graph: endpoint snapshot read failed: %w", err)
	}
	records, err := result.Collect(t.ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: endpoint snapshot collect failed: %w", err)
	}
	return snapshotFromRecords(records)
}

// CreateEndpointWithConnection creates the endpoint node and its logged-in
// connection in one statement.
func (t *Tx) CreateEndpointWithConnection(userID string, ep models.Endpoint) error {
	query, params := createEndpointQuery(userID, ep)
	if _, err := t.tx.Run(t.ctx, query, params); err != nil {
		return fmt.Errorf("graph: endpoint create failed: %w", err)
	}
	return nil
}

// CreateConnection links a user to an existing endpoint.
func (t *Tx) CreateConnection(userID, deviceToken string, status models.ConnectionStatus) error {
	query, params := createConnectionQuery(userID, deviceToken, status)
	if _, err := t.tx.Run(t.ctx, query, params); err != nil {
		return fmt.Errorf("graph: connection create failed: %w", err)
	}
	return nil
}

// SetConnectionStatus updates the status property on an existing connection.
// A non-matching pattern is a no-op, not an error.
func (t *Tx) SetConnectionStatus(userID, deviceToken string, status models.ConnectionStatus) error {
	query, params := setConnectionStatusQuery(userID, deviceToken, status)
	if _, err := t.tx.Run(t.ctx, query, params); err != nil {
		return fmt.Errorf("graph: connection status update failed: %w", err)
	}
	return nil
}
