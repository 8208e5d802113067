package graph

import (
	"fmt"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
)

// Relationship and label names used across the graph.
const (
	relConnected = "CONNECTED"

	relNotifiedPendingFriendRequest = "NOTIFIED_PENDING_FRIEND_REQUEST"
	relNotifiedFollows              = "NOTIFIED_FOLLOWS"
	relNotifiedGroupCreated         = "NOTIFIED_GROUP_CREATED"
	relNotifiedAddedToGroup         = "NOTIFIED_ADDED_TO_GROUP"
)

// notifiedRelationship maps a kind to the relationship type of the edge
// written once a recipient was reached.
func notifiedRelationship(kind models.NotificationKind) (string, error) {
	switch kind {
	case models.KindFollowRequest:
		return relNotifiedPendingFriendRequest, nil
	case models.KindDirectFollow:
		return relNotifiedFollows, nil
	case models.KindGroupCreated:
		return relNotifiedGroupCreated, nil
	case models.KindAddedToGroup:
		return relNotifiedAddedToGroup, nil
	default:
		return "", fmt.Errorf("graph: no notified relationship for kind %q", kind)
	}
}

// dedupRelationships maps a kind to the relationship alternatives whose
// existence suppresses another notification. Added-to-group also honours the
// group-created edge: a participant notified at creation time is not pinged
// again when formally added.
func dedupRelationships(kind models.NotificationKind) (string, error) {
	switch kind {
	case models.KindFollowRequest:
		return relNotifiedPendingFriendRequest, nil
	case models.KindDirectFollow:
		return relNotifiedFollows, nil
	case models.KindGroupCreated:
		return relNotifiedGroupCreated, nil
	case models.KindAddedToGroup:
		return relNotifiedGroupCreated + "|" + relNotifiedAddedToGroup, nil
	default:
		return "", fmt.Errorf("graph: no dedup relationship for kind %q", kind)
	}
}

// digestQuery builds the single read returning, in field order: the
// already-notified flag, the collected enabled logged-in endpoints, and
// optionally the sender display map.
func digestQuery(q models.DigestQuery) (string, map[string]any, error) {
	dedup, err := dedupRelationships(q.Kind)
	if err != nil {
		return "", nil, err
	}

	if q.Kind.GroupKind() {
		query := fmt.Sprintf(
			`MATCH (participant:User {userid:$participantUseridValue})-[connection:%s {status:$statusValue}]->(endpoint:Endpoint {isEnabled:$isEnabledValue}) `+
				`WITH endpoint `+
				`RETURN exists((:Group {groupid:$groupidValue})-[:%s]->(:User {userid:$participantUseridValue})), collect(endpoint)`,
			relConnected, dedup)
		params := map[string]any{
			"participantUseridValue": q.ToWhom,
			"groupidValue":           q.GroupID,
			"statusValue":            string(models.StatusLoggedIn),
			"isEnabledValue":         true,
		}
		return query, params, nil
	}

	params := map[string]any{
		"toWhomValue":    q.ToWhom,
		"fromWhomValue":  q.FromWhom,
		"statusValue":    string(models.StatusLoggedIn),
		"isEnabledValue": true,
	}
	if q.IncludeSender {
		query := fmt.Sprintf(
			`MATCH (requestedUser:User {userid:$toWhomValue})-[connection:%s {status:$statusValue}]->(endpoint:Endpoint {isEnabled:$isEnabledValue}) `+
				`WITH endpoint MATCH (requesterUser:User {userid:$fromWhomValue}) `+
				`WITH requesterUser, endpoint `+
				`RETURN exists((:User {userid:$toWhomValue})<-[:%s]-(:User {userid:$fromWhomValue})), collect(endpoint), requesterUser{.username, .name}`,
			relConnected, dedup)
		return query, params, nil
	}
	query := fmt.Sprintf(
		`MATCH (requestedUser:User {userid:$toWhomValue})-[connection:%s {status:$statusValue}]->(endpoint:Endpoint {isEnabled:$isEnabledValue}) `+
			`WITH endpoint `+
			`RETURN exists((:User {userid:$toWhomValue})<-[:%s]-(:User {userid:$fromWhomValue})), collect(endpoint)`,
		relConnected, dedup)
	return query, params, nil
}

// notifiedEdgeQuery builds the marker-edge write for one reached recipient.
func notifiedEdgeQuery(q models.EdgeQuery) (string, map[string]any, error) {
	rel, err := notifiedRelationship(q.Kind)
	if err != nil {
		return "", nil, err
	}

	if q.Kind.GroupKind() {
		query := fmt.Sprintf(
			`MATCH (participant:User {userid:$participantUseridValue}) MATCH (group:Group {groupid:$groupidValue}) `+
				`CREATE (group)-[:%s]->(participant)`, rel)
		params := map[string]any{
			"participantUseridValue": q.ToWhom,
			"groupidValue":           q.GroupID,
		}
		return query, params, nil
	}

	query := fmt.Sprintf(
		`MATCH (requestedUser:User {userid:$toWhomValue}) MATCH (requesterUser:User {userid:$fromWhomValue}) `+
			`CREATE (requesterUser)-[:%s]->(requestedUser)`, rel)
	params := map[string]any{
		"toWhomValue":   q.ToWhom,
		"fromWhomValue": q.FromWhom,
	}
	return query, params, nil
}

func disableEndpointQuery(arn string) (string, map[string]any) {
	query := `MATCH (endpoint:Endpoint {arn:$arnValue}) SET endpoint.isEnabled = $isEnabledValue`
	return query, map[string]any{"arnValue": arn, "isEnabledValue": false}
}

func endpointSnapshotQuery(deviceToken string) (string, map[string]any) {
	query := fmt.Sprintf(
		`MATCH (endpoint:Endpoint {deviceToken:$deviceTokenValue})<-[connection:%s]-(user:User) `+
			`RETURN endpoint, user, connection`, relConnected)
	return query, map[string]any{"deviceTokenValue": deviceToken}
}

func createEndpointQuery(userID string, ep models.Endpoint) (string, map[string]any) {
	query := fmt.Sprintf(
		`MATCH (user:User {userid:$useridValue}) `+
			`CREATE (user)-[connection:%s {status:$statusValue}]->(endpoint:Endpoint {arn:$arnValue, deviceToken:$deviceTokenValue, platformType:$platformTypeValue, isEnabled:$isEnabledValue})`,
		relConnected)
	params := map[string]any{
		"useridValue":       userID,
		"statusValue":       string(models.StatusLoggedIn),
		"arnValue":          ep.ARN,
		"deviceTokenValue":  ep.DeviceToken,
		"platformTypeValue": ep.PlatformType,
		"isEnabledValue":    ep.Enabled,
	}
	return query, params
}

func createConnectionQuery(userID, deviceToken string, status models.ConnectionStatus) (string, map[string]any) {
	query := fmt.Sprintf(
		`MATCH (endpoint:Endpoint {deviceToken:$deviceTokenValue}) MATCH (user:User {userid:$useridValue}) `+
			`CREATE (user)-[connection:%s {status:$statusValue}]->(endpoint)`, relConnected)
	params := map[string]any{
		"deviceTokenValue": deviceToken,
		"useridValue":      userID,
		"statusValue":      string(status),
	}
	return query, params
}

func setConnectionStatusQuery(userID, deviceToken string, status models.ConnectionStatus) (string, map[string]any) {
	query := fmt.Sprintf(
		`MATCH (endpoint:Endpoint {deviceToken:$deviceTokenValue})<-[connection:%s]-(user:User {userid:$useridValue}) `+
			`SET connection.status = $statusValue`, relConnected)
	params := map[string]any{
		"deviceTokenValue": deviceToken,
		"useridValue":      userID,
		"statusValue":      string(status),
	}
	return query, params
}

func disabledEndpointsQuery() (string, map[string]any) {
	return `MATCH (endpoint:Endpoint {isEnabled:$isEnabledValue}) RETURN endpoint`,
		map[string]any{"isEnabledValue": false}
}

func deleteDisabledEndpointsQuery() (string, map[string]any) {
	return `MATCH (endpoint:Endpoint {isEnabled:$isEnabledValue}) DETACH DELETE endpoint`,
		map[string]any{"isEnabledValue": false}
}
