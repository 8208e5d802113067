package services

import (
	"context"
	"errors"
	"time"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
)

// ErrEndpointDisabled is returned by a provider publish when the provider
// reports the endpoint is no longer valid. It is the only publish failure
// with a side effect: the endpoint is retired in the graph.
var ErrEndpointDisabled = errors.New("push provider reports endpoint disabled")

// Payload is the notification content handed to the provider. The alert body
// is localized on the device from the key and ordered argument list.
type Payload struct {
	Subject string
	LocKey  string
	LocArgs []string
}

// PushProvider is the push-delivery service boundary.
type PushProvider interface {
	Name() string
	// Register creates a platform endpoint for a device token and returns
	// its opaque provider handle.
	Register(ctx context.Context, platformType, deviceToken string) (string, error)
	// Publish delivers the payload to one endpoint. Returns
	// ErrEndpointDisabled when the provider reports the endpoint gone.
	Publish(ctx context.Context, arn string, payload Payload) error
	// Delete removes an endpoint from the provider. Best-effort; callers
	// treat failures as non-fatal.
	Delete(ctx context.Context, arn string) error
}

// GraphTx exposes the writes available inside one graph transaction. Any
// error rolls the whole transaction back.
type GraphTx interface {
	EndpointSnapshot(deviceToken string) (*models.EndpointSnapshot, error)
	CreateEndpointWithConnection(userID string, ep models.Endpoint) error
	CreateConnection(userID, deviceToken string, status models.ConnectionStatus) error
	SetConnectionStatus(userID, deviceToken string, status models.ConnectionStatus) error
}

// GraphStore is the graph database boundary used by the engines.
type GraphStore interface {
	RecipientDigest(ctx context.Context, q models.DigestQuery) (*models.RecipientDigest, error)
	CreateNotifiedEdge(ctx context.Context, q models.EdgeQuery) error
	DisableEndpoint(ctx context.Context, arn string) error
	DisabledEndpoints(ctx context.Context) ([]string, error)
	DeleteDisabledEndpoints(ctx context.Context) error
	WriteTx(ctx context.Context, fn func(tx GraphTx) error) error
}

// SuppressionCache short-circuits publishes to endpoints the provider has
// already rejected. Implementations may be absent; engines treat a nil cache
// as "nothing suppressed".
type SuppressionCache interface {
	IsEndpointSuppressed(ctx context.Context, arn string) (bool, error)
	SuppressEndpoint(ctx context.Context, arn string, ttl time.Duration) error
}
