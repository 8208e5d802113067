package services

import (
	"context"
	"errors"
	"testing"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
)

func digestWithEndpoints(arns ...string) *models.RecipientDigest {
	digest := &models.RecipientDigest{Sender: &models.SenderInfo{Username: "jane"}}
	for _, arn := range arns {
		digest.Endpoints = append(digest.Endpoints, models.Endpoint{
			ARN: arn, DeviceToken: "tok-" + arn, PlatformType: "ios", Enabled: true,
		})
	}
	return digest
}

func followRequest(toWhoms ...string) *models.FanOutRequest {
	return &models.FanOutRequest{
		RequestType: models.KindFollowRequest,
		FromWhom:    "u1",
		ToWhoms:     toWhoms,
	}
}

func TestFanOutPublishesToEveryRecipient(t *testing.T) {
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{
		"u2": digestWithEndpoints("arn2"),
		"u3": digestWithEndpoints("arn3"),
	}}
	p := &fakeProvider{}
	engine, _ := newTestEngines(g, p, nil)

	if err := engine.FanOut(context.Background(), followRequest("u2", "u3")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}

	if p.publishCalls["arn2"] != 1 || p.publishCalls["arn3"] != 1 {
		t.Errorf("publish calls = %v, want one per endpoint", p.publishCalls)
	}
	if len(g.edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(g.edges))
	}
	for _, edge := range g.edges {
		if edge.Kind != models.KindFollowRequest || edge.FromWhom != "u1" {
			t.Errorf("unexpected edge: %+v", edge)
		}
	}
}

func TestFanOutSkipsAlreadyNotified(t *testing.T) {
	notified := digestWithEndpoints("arn2")
	notified.NotifiedBefore = true
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{"u2": notified}}
	p := &fakeProvider{}
	engine, _ := newTestEngines(g, p, nil)

	if err := engine.FanOut(context.Background(), followRequest("u2")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}
	if len(p.publishCalls) != 0 {
		t.Errorf("published to an already-notified recipient: %v", p.publishCalls)
	}
	if len(g.edges) != 0 {
		t.Errorf("wrote an edge for a skipped recipient: %v", g.edges)
	}
}

func TestFanOutRecipientWithoutEndpointsIsSuccess(t *testing.T) {
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{
		"u2": {},
		"u3": digestWithEndpoints("arn3"),
	}}
	p := &fakeProvider{}
	engine, _ := newTestEngines(g, p, nil)

	if err := engine.FanOut(context.Background(), followRequest("u2", "u3")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}
	if len(g.edges) != 1 || g.edges[0].ToWhom != "u3" {
		t.Errorf("edges = %v, want only u3", g.edges)
	}
}

func TestFanOutDisabledEndpointIsRetiredWithoutRetry(t *testing.T) {
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{
		"u2": digestWithEndpoints("arn2"),
	}}
	p := &fakeProvider{publishErrs: map[string]error{"arn2": ErrEndpointDisabled}}
	cache := &fakeCache{}
	engine, _ := newTestEngines(g, p, cache)

	if err := engine.FanOut(context.Background(), followRequest("u2")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}

	if p.publishCalls["arn2"] != 1 {
		t.Errorf("publish attempts = %d, disabled endpoints must not be retried", p.publishCalls["arn2"])
	}
	if len(g.disabledARNs) != 1 || g.disabledARNs[0] != "arn2" {
		t.Errorf("disabled ARNs = %v, want [arn2]", g.disabledARNs)
	}
	if len(cache.writes) != 1 || cache.writes[0] != "arn2" {
		t.Errorf("suppression writes = %v, want [arn2]", cache.writes)
	}
	if len(g.edges) != 0 {
		t.Errorf("edge written despite no delivery: %v", g.edges)
	}
}

func TestFanOutTransientFailureIsRetried(t *testing.T) {
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{
		"u2": digestWithEndpoints("arn2"),
	}}
	p := &fakeProvider{publishErrs: map[string]error{"arn2": errors.New("throttled")}}
	engine, _ := newTestEngines(g, p, nil)

	if err := engine.FanOut(context.Background(), followRequest("u2")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}
	if p.publishCalls["arn2"] != 3 {
		t.Errorf("publish attempts = %d, want the full retry budget", p.publishCalls["arn2"])
	}
	if len(g.edges) != 0 {
		t.Errorf("edge written despite publish failure: %v", g.edges)
	}
}

func TestFanOutSuppressedEndpointSkipped(t *testing.T) {
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{
		"u2": digestWithEndpoints("arn2"),
	}}
	p := &fakeProvider{}
	cache := &fakeCache{suppressed: map[string]bool{"arn2": true}}
	engine, _ := newTestEngines(g, p, cache)

	if err := engine.FanOut(context.Background(), followRequest("u2")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}
	if len(p.publishCalls) != 0 {
		t.Errorf("published to a suppressed endpoint: %v", p.publishCalls)
	}
}

func TestFanOutRecordsOneEdgePerRecipient(t *testing.T) {
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{
		"u2": digestWithEndpoints("arn2a", "arn2b"),
	}}
	p := &fakeProvider{}
	engine, _ := newTestEngines(g, p, nil)

	if err := engine.FanOut(context.Background(), followRequest("u2")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}
	if p.publishCalls["arn2a"] != 1 || p.publishCalls["arn2b"] != 1 {
		t.Errorf("publish calls = %v", p.publishCalls)
	}
	if len(g.edges) != 1 {
		t.Errorf("edges = %d, want a single dedup edge per recipient", len(g.edges))
	}
}

func TestFanOutAllResolvesFailedIsHardFailure(t *testing.T) {
	g := &fakeGraph{digestErrs: map[string]error{
		"u2": errors.New("connection reset"),
		"u3": errors.New("connection reset"),
	}}
	p := &fakeProvider{}
	engine, _ := newTestEngines(g, p, nil)

	err := engine.FanOut(context.Background(), followRequest("u2", "u3"))
	if models.CodeOf(err) != models.CodeGraphGetEndpointFailed {
		t.Fatalf("CodeOf(err) = %d, want %d", models.CodeOf(err), models.CodeGraphGetEndpointFailed)
	}
}

func TestFanOutPartialResolveFailureIsSoft(t *testing.T) {
	g := &fakeGraph{
		digests:    map[string]*models.RecipientDigest{"u3": digestWithEndpoints("arn3")},
		digestErrs: map[string]error{"u2": errors.New("connection reset")},
	}
	p := &fakeProvider{}
	engine, _ := newTestEngines(g, p, nil)

	if err := engine.FanOut(context.Background(), followRequest("u2", "u3")); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}
	if p.publishCalls["arn3"] != 1 {
		t.Errorf("publish calls = %v, want delivery to the resolvable recipient", p.publishCalls)
	}
}

func TestFanOutGroupEdgeCarriesGroupID(t *testing.T) {
	g := &fakeGraph{digests: map[string]*models.RecipientDigest{
		"u2": digestWithEndpoints("arn2"),
	}}
	p := &fakeProvider{}
	engine, _ := newTestEngines(g, p, nil)

	req := &models.FanOutRequest{
		RequestType: models.KindGroupCreated,
		FromWhom:    "u1",
		ToWhoms:     []string{"u2"},
		AdditionalData: models.NewAdditionalData(map[string]string{
			"fromWhomUsername": "jane",
			"groupid":          "g1",
			"groupName":        "climbers",
		}, "fromWhomUsername", "groupid", "groupName"),
	}
	if err := engine.FanOut(context.Background(), req); err != nil {
		t.Fatalf("FanOut error: %v", err)
	}
	if len(g.edges) != 1 || g.edges[0].GroupID != "g1" {
		t.Errorf("edges = %+v, want group id g1", g.edges)
	}
}
