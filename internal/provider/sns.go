// Package provider implements the push-delivery boundary on AWS SNS
// platform endpoints.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/services"
)

// snsAPI is the subset of the SNS client the adapter uses, extracted so
// tests can substitute a fake.
type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	DeleteEndpoint(ctx context.Context, params *sns.DeleteEndpointInput, optFns ...func(*sns.Options)) (*sns.DeleteEndpointOutput, error)
}

// SNSProvider publishes through AWS SNS application endpoints. Every call
// carries a per-call timeout so one slow publish cannot stall a fan-out
// worker.
type SNSProvider struct {
	client     snsAPI
	iosARN     string
	androidARN string
	timeout    time.Duration
	logger     *slog.Logger
}

var _ services.PushProvider = (*SNSProvider)(nil)

// New builds the provider with default AWS credentials resolution.
func New(ctx context.Context, region, iosARN, androidARN string, timeout time.Duration, logger *slog.Logger) (*SNSProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("provider: aws config failed: %w", err)
	}
	return &SNSProvider{
		client:     sns.NewFromConfig(cfg),
		iosARN:     iosARN,
		androidARN: androidARN,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

func (p *SNSProvider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *SNSProvider) Name() string { return "sns" }

func (p *SNSProvider) platformApplicationARN(platformType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(platformType)) {
	case "ios":
		return p.iosARN, nil
	case "android":
		return p.androidARN, nil
	default:
		return "", fmt.Errorf("provider: unknown platform type %q", platformType)
	}
}

// Register creates a platform endpoint for the device token and returns its
// ARN.
func (p *SNSProvider) Register(ctx context.Context, platformType, deviceToken string) (string, error) {
	appARN, err := p.platformApplicationARN(platformType)
	if err != nil {
		return "", err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	out, err := p.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appARN),
		Token:                  aws.String(deviceToken),
	})
	if err != nil {
		return "", fmt.Errorf("provider: create endpoint failed: %w", err)
	}
	return aws.ToString(out.EndpointArn), nil
}

// Publish sends the localized alert to one endpoint. An
// EndpointDisabledException maps to services.ErrEndpointDisabled so callers
// can retire the endpoint.
func (p *SNSProvider) Publish(ctx context.Context, arn string, payload services.Payload) error {
	message, err := buildMessage(payload)
	if err != nil {
		return err
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		Message:          aws.String(message),
		MessageStructure: aws.String("json"),
		Subject:          aws.String(payload.Subject),
		TargetArn:        aws.String(arn),
	})
	if err != nil {
		var disabled *types.EndpointDisabledException
		if errors.As(err, &disabled) {
			return fmt.Errorf("%w: %s", services.ErrEndpointDisabled, arn)
		}
		return fmt.Errorf("provider: publish failed: %w", err)
	}
	return nil
}

// Delete removes an endpoint from SNS.
func (p *SNSProvider) Delete(ctx context.Context, arn string) error {
	ctx, cancel := p.callContext(ctx)
	defer cancel()
	_, err := p.client.DeleteEndpoint(ctx, &sns.DeleteEndpointInput{
		EndpointArn: aws.String(arn),
	})
	if err != nil {
		return fmt.Errorf("provider: delete endpoint failed: %w", err)
	}
	return nil
}

// buildMessage assembles the per-platform SNS message. The aps alert carries
// a localization key and ordered arguments; GCM gets the equivalent
// body_loc fields.
func buildMessage(payload services.Payload) (string, error) {
	alert := map[string]any{
		"loc-key":  payload.LocKey,
		"loc-args": payload.LocArgs,
	}
	aps, err := json.Marshal(map[string]any{
		"aps": map[string]any{
			"alert": alert,
			"sound": "default",
			"badge": 1,
		},
	})
	if err != nil {
		return "", fmt.Errorf("provider: aps payload marshal failed: %w", err)
	}
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]any{
			"body_loc_key":  payload.LocKey,
			"body_loc_args": payload.LocArgs,
		},
	})
	if err != nil {
		return "", fmt.Errorf("provider: gcm payload marshal failed: %w", err)
	}

	message, err := json.Marshal(map[string]string{
		"default":      payload.LocKey,
		"APNS":         string(aps),
		"APNS_SANDBOX": string(aps),
		"GCM":          string(gcm),
	})
	if err != nil {
		return "", fmt.Errorf("provider: message marshal failed: %w", err)
	}
	return string(message), nil
}
