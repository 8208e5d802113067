package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/metrics"
)

// loginAction enumerates what a login reconcile has to do for one
// user/device pair.
type loginAction int

const (
	actionNone loginAction = iota
	actionCreateEndpoint
	actionCreateConnection
	actionSetLoggedIn
)

// decideLogin maps the current graph state to the single action that brings
// it in line with a login event. Creating a missing endpoint wins over
// everything; a missing connection to an existing endpoint wins over status
// updates; an already logged-in connection needs nothing.
func decideLogin(snapshot *models.EndpointSnapshot, userID string) loginAction {
	if snapshot == nil {
		return actionCreateEndpoint
	}
	for _, conn := range snapshot.Connections {
		if conn.UserID != userID {
			continue
		}
		if conn.Status == models.StatusLoggedIn {
			return actionNone
		}
		return actionSetLoggedIn
	}
	return actionCreateConnection
}

// LifecycleEngine keeps the endpoint graph in step with login/logout events
// and retires endpoints the provider no longer accepts.
type LifecycleEngine struct {
	graph          GraphStore
	provider       PushProvider
	cache          SuppressionCache
	metrics        *metrics.Metrics
	logger         *slog.Logger
	suppressionTTL time.Duration
}

// NewLifecycleEngine wires the engine. cache may be nil.
func NewLifecycleEngine(graph GraphStore, provider PushProvider, cache SuppressionCache, m *metrics.Metrics, logger *slog.Logger, suppressionTTL time.Duration) *LifecycleEngine {
	return &LifecycleEngine{
		graph:          graph,
		provider:       provider,
		cache:          cache,
		metrics:        m,
		logger:         logger,
		suppressionTTL: suppressionTTL,
	}
}

// ReconcileLogin brings the graph in line with a login event. All graph
// writes happen in one transaction; a failed provider registration leaves
// the graph untouched.
func (e *LifecycleEngine) ReconcileLogin(ctx context.Context, req *models.EndpointSyncRequest) error {
	return e.graph.WriteTx(ctx, func(tx GraphTx) error {
		snapshot, err := tx.EndpointSnapshot(req.DeviceToken)
		if err != nil {
			return models.Errf(models.CodeGraphGetEndpointFailed, err)
		}

		switch decideLogin(snapshot, req.UserID) {
		case actionCreateEndpoint:
			arn, err := e.provider.Register(ctx, req.PlatformType, req.DeviceToken)
			if err != nil {
				return models.Errf(models.CodeProviderCreateEndpointFailed, err)
			}
			ep := models.Endpoint{
				ARN:          arn,
				DeviceToken:  req.DeviceToken,
				PlatformType: req.PlatformType,
				Enabled:      true,
			}
			if err := tx.CreateEndpointWithConnection(req.UserID, ep); err != nil {
				return models.Errf(models.CodeGraphCreateEndpointFailed, err)
			}
			e.logger.Info("endpoint registered",
				slog.String("user_id", req.UserID),
				slog.String("platform", req.PlatformType))

		case actionCreateConnection:
			if err := tx.CreateConnection(req.UserID, req.DeviceToken, models.StatusLoggedIn); err != nil {
				return models.Errf(models.CodeGraphCreateRelationFailed, err)
			}

		case actionSetLoggedIn:
			if err := tx.SetConnectionStatus(req.UserID, req.DeviceToken, models.StatusLoggedIn); err != nil {
				return models.Errf(models.CodeGraphConnectionUpdateFailed, err)
			}

		case actionNone:
			// Already logged in on this device.
		}
		return nil
	})
}

// ReconcileLogout marks the user's connection to the device as logged out.
// An absent connection is a no-op, not an error.
func (e *LifecycleEngine) ReconcileLogout(ctx context.Context, req *models.EndpointSyncRequest) error {
	return e.graph.WriteTx(ctx, func(tx GraphTx) error {
		if err := tx.SetConnectionStatus(req.UserID, req.DeviceToken, models.StatusLoggedOut); err != nil {
			return models.Errf(models.CodeGraphConnectionUpdateFailed, err)
		}
		return nil
	})
}

// Disable retires an endpoint the provider rejected: the graph node is
// flagged disabled for the periodic sweep and further publishes to its ARN
// are suppressed.
func (e *LifecycleEngine) Disable(ctx context.Context, arn string) error {
	if err := e.graph.DisableEndpoint(ctx, arn); err != nil {
		return models.Errf(models.CodeFailedDisableEndpoint, err)
	}
	if e.cache != nil {
		if err := e.cache.SuppressEndpoint(ctx, arn, e.suppressionTTL); err != nil {
			e.logger.Warn("endpoint suppression cache write failed",
				slog.String("arn", arn), slog.Any("error", err))
		}
	}
	e.metrics.IncEndpointsDisabled()
	e.logger.Info("endpoint disabled", slog.String("arn", arn))
	return nil
}

// PurgeDisabled deletes every disabled endpoint from the provider and the
// graph. Provider deletions are best effort; the graph sweep runs
// regardless so disabled nodes never accumulate. Returns the ARNs removed
// from the graph.
func (e *LifecycleEngine) PurgeDisabled(ctx context.Context) ([]string, error) {
	arns, err := e.graph.DisabledEndpoints(ctx)
	if err != nil {
		return nil, models.Errf(models.CodeGraphGetEndpointFailed, err)
	}
	if len(arns) == 0 {
		return nil, models.Errf(models.CodeGraphEndpointNotExist, nil)
	}

	for _, arn := range arns {
		if err := e.provider.Delete(ctx, arn); err != nil {
			e.logger.Warn("provider endpoint delete failed",
				slog.String("arn", arn), slog.Any("error", err))
		}
	}

	if err := e.graph.DeleteDisabledEndpoints(ctx); err != nil {
		return nil, models.Errf(models.CodeGraphConnectionUpdateFailed, err)
	}

	e.metrics.AddEndpointsPurged(len(arns))
	e.logger.Info("disabled endpoints purged", slog.Int("count", len(arns)))
	return arns, nil
}
