package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/metrics"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/retry"
)

// FanOutEngine resolves recipients, publishes to their endpoints and records
// delivery markers. Per-recipient and per-endpoint failures are soft: they
// are logged and counted but never fail the whole fan-out. The engine only
// hard-fails when no recipient could be resolved at all.
type FanOutEngine struct {
	graph     GraphStore
	provider  PushProvider
	lifecycle *LifecycleEngine
	cache     SuppressionCache
	status    *StatusUpdater
	payload   *PayloadBuilder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	retryCfg  retry.Config
}

// NewFanOutEngine wires the engine. cache may be nil; status is always
// non-nil (the updater itself tolerates a missing store).
func NewFanOutEngine(
	graph GraphStore,
	provider PushProvider,
	lifecycle *LifecycleEngine,
	cache SuppressionCache,
	status *StatusUpdater,
	payload *PayloadBuilder,
	m *metrics.Metrics,
	logger *slog.Logger,
	retryCfg retry.Config,
) *FanOutEngine {
	return &FanOutEngine{
		graph:     graph,
		provider:  provider,
		lifecycle: lifecycle,
		cache:     cache,
		status:    status,
		payload:   payload,
		metrics:   m,
		logger:    logger,
		retryCfg:  retryCfg,
	}
}

// resolved pairs a recipient with their digest.
type resolved struct {
	recipient string
	digest    *models.RecipientDigest
}

// FanOut runs one notification event end to end: resolve, filter, publish,
// record. The request must already be validated.
func (e *FanOutEngine) FanOut(ctx context.Context, req *models.FanOutRequest) error {
	requestID := uuid.NewString()
	log := e.logger.With(
		slog.String("request_id", requestID),
		slog.String("kind", string(req.RequestType)),
		slog.String("from", req.FromWhom))

	e.metrics.IncEventsConsumed()
	e.status.MarkProcessing(ctx, requestID, req)

	targets, err := e.resolve(ctx, req, log)
	if err != nil {
		e.status.MarkFailed(ctx, requestID, err)
		return err
	}

	reached := e.publish(ctx, req, targets, log)
	e.record(ctx, req, reached, log)

	e.status.MarkCompleted(ctx, requestID, len(req.ToWhoms), len(reached))
	log.Info("fan-out finished",
		slog.Int("recipients", len(req.ToWhoms)),
		slog.Int("reached", len(reached)))
	return nil
}

// resolve reads every recipient's digest concurrently. Individual read
// failures are logged and skipped; only a total failure aborts the fan-out.
func (e *FanOutEngine) resolve(ctx context.Context, req *models.FanOutRequest, log *slog.Logger) ([]resolved, error) {
	// The graph only needs to return sender attributes when the caller did
	// not supply a display name in the additional data.
	includeSender := req.AdditionalData.SenderDisplay() == ""

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		targets []resolved
		errs    []error
	)
	for _, toWhom := range req.ToWhoms {
		wg.Add(1)
		go func(toWhom string) {
			defer wg.Done()
			digest, err := e.graph.RecipientDigest(ctx, models.DigestQuery{
				Kind:          req.RequestType,
				FromWhom:      req.FromWhom,
				ToWhom:        toWhom,
				GroupID:       req.AdditionalData.GroupID(),
				IncludeSender: includeSender,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error("recipient resolve failed",
					slog.String("to", toWhom), slog.Any("error", err))
				errs = append(errs, err)
				return
			}
			targets = append(targets, resolved{recipient: toWhom, digest: digest})
		}(toWhom)
	}
	wg.Wait()

	if len(targets) == 0 && len(errs) > 0 {
		return nil, models.Errf(models.CodeGraphGetEndpointFailed, errors.Join(errs...))
	}
	return targets, nil
}

// publish delivers to every enabled endpoint of every not-yet-notified
// recipient, collects the per-endpoint outcomes, and returns the set of
// recipients with at least one delivery.
func (e *FanOutEngine) publish(ctx context.Context, req *models.FanOutRequest, targets []resolved, log *slog.Logger) map[string]bool {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []models.PublishResult
	)
	for _, target := range targets {
		if target.digest.NotifiedBefore {
			log.Debug("recipient already notified, skipping",
				slog.String("to", target.recipient))
			continue
		}
		if len(target.digest.Endpoints) == 0 {
			continue
		}

		payload, err := e.payload.Build(req.RequestType, req.AdditionalData, target.digest.Sender)
		if err != nil {
			log.Error("payload build failed",
				slog.String("to", target.recipient), slog.Any("error", err))
			continue
		}

		for _, ep := range target.digest.Endpoints {
			wg.Add(1)
			go func(recipient string, ep models.Endpoint) {
				defer wg.Done()
				res := e.publishOne(ctx, recipient, ep, payload, log.With(slog.String("to", recipient)))
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}(target.recipient, ep)
		}
	}
	wg.Wait()

	reached := make(map[string]bool)
	for _, res := range results {
		if res.Outcome == models.PublishDelivered {
			reached[res.Recipient] = true
		}
	}
	return reached
}

// publishOne sends the payload to a single endpoint, retrying transient
// failures. A disabled-endpoint report retires the endpoint immediately and
// is never retried.
func (e *FanOutEngine) publishOne(ctx context.Context, recipient string, ep models.Endpoint, payload Payload, log *slog.Logger) models.PublishResult {
	result := models.PublishResult{Recipient: recipient, ARN: ep.ARN}

	if e.cache != nil {
		suppressed, err := e.cache.IsEndpointSuppressed(ctx, ep.ARN)
		if err != nil {
			log.Warn("suppression cache read failed",
				slog.String("arn", ep.ARN), slog.Any("error", err))
		} else if suppressed {
			log.Debug("endpoint suppressed, skipping publish",
				slog.String("arn", ep.ARN))
			result.Outcome = models.PublishSuppressed
			return result
		}
	}

	err := retry.Do(ctx, e.retryCfg, func() error {
		err := e.provider.Publish(ctx, ep.ARN, payload)
		if errors.Is(err, ErrEndpointDisabled) {
			return retry.Permanent(err)
		}
		return err
	})
	if err == nil {
		e.metrics.IncPublished()
		result.Outcome = models.PublishDelivered
		return result
	}

	e.metrics.IncPublishFailed()
	result.Err = err
	if errors.Is(err, ErrEndpointDisabled) {
		result.Outcome = models.PublishEndpointDisabled
		if dErr := e.lifecycle.Disable(ctx, ep.ARN); dErr != nil {
			log.Error("endpoint retire failed",
				slog.String("arn", ep.ARN), slog.Any("error", dErr))
		}
		return result
	}
	result.Outcome = models.PublishFailed
	log.Error("publish failed",
		slog.String("arn", ep.ARN), slog.Any("error", err))
	return result
}

// record writes one dedup edge per reached recipient. Edge writes are best
// effort and independent; a failed write is logged and may lead to a repeat
// notification, never to a failed fan-out.
func (e *FanOutEngine) record(ctx context.Context, req *models.FanOutRequest, reached map[string]bool, log *slog.Logger) {
	var wg sync.WaitGroup
	for recipient := range reached {
		wg.Add(1)
		go func(recipient string) {
			defer wg.Done()
			err := e.graph.CreateNotifiedEdge(ctx, models.EdgeQuery{
				Kind:     req.RequestType,
				FromWhom: req.FromWhom,
				ToWhom:   recipient,
				GroupID:  req.AdditionalData.GroupID(),
			})
			if err != nil {
				log.Error("notified edge write failed",
					slog.String("to", recipient), slog.Any("error", err))
				return
			}
			e.metrics.IncNotifiedEdges()
		}(recipient)
	}
	wg.Wait()
}
