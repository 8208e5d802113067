package services

import (
	"fmt"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
)

// PayloadBuilder resolves the localization key and arguments for each
// notification kind. The keys come from configuration so the mobile apps own
// the visible strings.
type PayloadBuilder struct {
	subject          string
	followRequestKey string
	directFollowKey  string
	groupCreateKey   string
}

// NewPayloadBuilder wires the configured localization keys.
func NewPayloadBuilder(subject, followRequestKey, directFollowKey, groupCreateKey string) *PayloadBuilder {
	return &PayloadBuilder{
		subject:          subject,
		followRequestKey: followRequestKey,
		directFollowKey:  directFollowKey,
		groupCreateKey:   groupCreateKey,
	}
}

// Build assembles the payload for one recipient. The sender display string
// prefers the caller-supplied additional data; when absent it falls back to
// the attributes resolved from the graph alongside the digest.
func (b *PayloadBuilder) Build(kind models.NotificationKind, aux *models.AdditionalData, sender *models.SenderInfo) (Payload, error) {
	display := aux.SenderDisplay()
	if display == "" {
		display = sender.Display()
	}

	switch kind {
	case models.KindFollowRequest:
		return Payload{Subject: b.subject, LocKey: b.followRequestKey, LocArgs: []string{display}}, nil
	case models.KindDirectFollow:
		return Payload{Subject: b.subject, LocKey: b.directFollowKey, LocArgs: []string{display}}, nil
	case models.KindGroupCreated, models.KindAddedToGroup:
		return Payload{Subject: b.subject, LocKey: b.groupCreateKey, LocArgs: []string{display, aux.GroupName()}}, nil
	default:
		return Payload{}, fmt.Errorf("payload: unsupported notification kind %q", kind)
	}
}
