package graph

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
)

// endpointFromNode projects an Endpoint node into the typed record,
// rejecting nodes with missing required properties at the store boundary.
func endpointFromNode(node neo4j.Node) (models.Endpoint, error) {
	arn, err := stringProp(node, "arn")
	if err != nil {
		return models.Endpoint{}, err
	}
	deviceToken, err := stringProp(node, "deviceToken")
	if err != nil {
		return models.Endpoint{}, err
	}
	platformType, err := stringProp(node, "platformType")
	if err != nil {
		return models.Endpoint{}, err
	}
	enabled, err := boolProp(node, "isEnabled")
	if err != nil {
		return models.Endpoint{}, err
	}
	return models.Endpoint{
		ARN:          arn,
		DeviceToken:  deviceToken,
		PlatformType: platformType,
		Enabled:      enabled,
	}, nil
}

func stringProp(node neo4j.Node, key string) (string, error) {
	raw, ok := node.Props[key]
	if !ok {
		return "", fmt.Errorf("graph: endpoint node missing property %q", key)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", fmt.Errorf("graph: endpoint property %q is empty or not a string", key)
	}
	return value, nil
}

func boolProp(node neo4j.Node, key string) (bool, error) {
	raw, ok := node.Props[key]
	if !ok {
		return false, fmt.Errorf("graph: endpoint node missing property %q", key)
	}
	value, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("graph: endpoint property %q is not a boolean", key)
	}
	return value, nil
}

// digestFromRecord parses the resolve read. Field order is fixed by the
// query: notified flag, collected endpoint nodes, optional sender map.
func digestFromRecord(record *neo4j.Record, includeSender bool) (*models.RecipientDigest, error) {
	if len(record.Values) < 2 {
		return nil, fmt.Errorf("graph: digest record has %d fields, want at least 2", len(record.Values))
	}

	notified, ok := record.Values[0].(bool)
	if !ok {
		return nil, fmt.Errorf("graph: digest field 0 is not a boolean")
	}

	rawList, ok := record.Values[1].([]any)
	if !ok {
		return nil, fmt.Errorf("graph: digest field 1 is not a collected list")
	}
	endpoints := make([]models.Endpoint, 0, len(rawList))
	for _, item := range rawList {
		node, ok := item.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("graph: collected digest item is not a node")
		}
		ep, err := endpointFromNode(node)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}

	digest := &models.RecipientDigest{NotifiedBefore: notified, Endpoints: endpoints}

	if includeSender && len(record.Values) > 2 && record.Values[2] != nil {
		props, ok := record.Values[2].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("graph: digest field 2 is not a property map")
		}
		sender := &models.SenderInfo{}
		if v, ok := props["username"].(string); ok {
			sender.Username = v
		}
		if v, ok := props["name"].(string); ok {
			sender.Name = v
		}
		digest.Sender = sender
	}

	return digest, nil
}

// snapshotFromRecords folds the (endpoint, user, connection) rows of the
// lifecycle read into one snapshot. Returns nil when no rows matched.
func snapshotFromRecords(records []*neo4j.Record) (*models.EndpointSnapshot, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var snapshot *models.EndpointSnapshot
	for _, record := range records {
		if len(record.Values) < 3 {
			return nil, fmt.Errorf("graph: snapshot record has %d fields, want 3", len(record.Values))
		}
		endpointNode, ok := record.Values[0].(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("graph: snapshot field 0 is not a node")
		}
		userNode, ok := record.Values[1].(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("graph: snapshot field 1 is not a node")
		}
		connection, ok := record.Values[2].(neo4j.Relationship)
		if !ok {
			return nil, fmt.Errorf("graph: snapshot field 2 is not a relationship")
		}

		if snapshot == nil {
			ep, err := endpointFromNode(endpointNode)
			if err != nil {
				return nil, err
			}
			snapshot = &models.EndpointSnapshot{Endpoint: ep}
		}

		userID, ok := userNode.Props["userid"].(string)
		if !ok || userID == "" {
			return nil, fmt.Errorf("graph: connected user node missing userid")
		}
		status, _ := connection.Props["status"].(string)
		snapshot.Connections = append(snapshot.Connections, models.UserConnection{
			UserID: userID,
			Status: models.ConnectionStatus(status),
		})
	}
	return snapshot, nil
}

// arnsFromRecords extracts provider handles from a disabled-endpoint read,
// skipping nodes without one rather than failing the sweep.
func arnsFromRecords(records []*neo4j.Record) []string {
	arns := make([]string, 0, len(records))
	for _, record := range records {
		if len(record.Values) == 0 {
			continue
		}
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		if arn, ok := node.Props["arn"].(string); ok && arn != "" {
			arns = append(arns, arn)
		}
	}
	return arns
}
