package models

import "encoding/json"

// FanOutRequest is the inbound push notification event: one sender, many
// recipients, and optional kind-specific additional data.
type FanOutRequest struct {
	RequestType    NotificationKind `json:"requestType"`
	FromWhom       string           `json:"fromWhom"`
	ToWhoms        []string         `json:"toWhoms"`
	AdditionalData *AdditionalData  `json:"additionalData,omitempty"`
}

// Validate checks the request the same way for HTTP and queue intake.
// No side effects are attempted for an invalid request.
func (r *FanOutRequest) Validate() ServiceCode {
	if r.RequestType == "" || !r.RequestType.Valid() {
		return CodeInvalidRequestType
	}
	if r.RequestType.GroupKind() {
		if !r.AdditionalData.Exists() || r.AdditionalData.GroupID() == "" {
			return CodeInvalidAdditionalData
		}
	}
	if r.FromWhom == "" {
		return CodeInvalidUserID
	}
	if r.ToWhoms == nil {
		return CodeInvalidUserID
	}
	if len(r.ToWhoms) == 0 {
		return CodeInvalidReceiverCount
	}
	return CodeSuccess
}

// EndpointSyncRequest is the inbound login/logout event for one device.
type EndpointSyncRequest struct {
	RequestType  string `json:"requestType"`
	UserID       string `json:"userid"`
	DeviceToken  string `json:"deviceToken"`
	PlatformType string `json:"platformType"`
}

const (
	SyncLoggedIn  = "loggedin"
	SyncLoggedOut = "loggedout"
)

// Validate checks presence of all required fields.
func (r *EndpointSyncRequest) Validate() ServiceCode {
	if r.RequestType == "" {
		return CodeInvalidRequestType
	}
	if r.UserID == "" {
		return CodeInvalidUserID
	}
	if r.DeviceToken == "" {
		return CodeInvalidDeviceToken
	}
	if r.PlatformType == "" {
		return CodeInvalidPlatformType
	}
	return CodeSuccess
}

// AdditionalData is the caller-supplied variable bag. The wire format
// declares the variable names up front and carries each value as a sibling
// field:
//
//	{"variableNames": ["fromWhomUsername", "groupid", "groupName"],
//	 "fromWhomUsername": "jane", "groupid": "g1", "groupName": "climbers"}
type AdditionalData struct {
	VariableNames []string
	values        map[string]string
}

// group-kind value keys
const (
	varGroupID   = "groupid"
	varGroupName = "groupName"
)

// UnmarshalJSON flattens the sibling fields into the value map, keeping
// only the declared variable names.
func (a *AdditionalData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if names, ok := raw["variableNames"]; ok {
		if err := json.Unmarshal(names, &a.VariableNames); err != nil {
			return err
		}
	}
	a.values = make(map[string]string, len(a.VariableNames))
	for _, name := range a.VariableNames {
		rawValue, ok := raw[name]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(rawValue, &value); err != nil {
			continue
		}
		a.values[name] = value
	}
	return nil
}

// MarshalJSON restores the wire shape.
func (a *AdditionalData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.values)+1)
	out["variableNames"] = a.VariableNames
	for name, value := range a.values {
		out[name] = value
	}
	return json.Marshal(out)
}

// NewAdditionalData builds the bag programmatically (used by tests and the
// queue producer side).
func NewAdditionalData(pairs map[string]string, order ...string) *AdditionalData {
	values := make(map[string]string, len(pairs))
	for k, v := range pairs {
		values[k] = v
	}
	return &AdditionalData{VariableNames: order, values: values}
}

// Exists reports whether the bag declares at least one variable. Safe on a
// nil receiver so callers never pre-check.
func (a *AdditionalData) Exists() bool {
	return a != nil && len(a.VariableNames) > 0
}

// Value returns the value bound to a declared variable name.
func (a *AdditionalData) Value(name string) string {
	if a == nil {
		return ""
	}
	return a.values[name]
}

// GroupID returns the group identifier required by group kinds.
func (a *AdditionalData) GroupID() string { return a.Value(varGroupID) }

// GroupName returns the display name of the group.
func (a *AdditionalData) GroupName() string { return a.Value(varGroupName) }

// SenderDisplay returns the first non-empty declared value that is not one
// of the group keys, preserving the caller's declaration order.
func (a *AdditionalData) SenderDisplay() string {
	if a == nil {
		return ""
	}
	for _, name := range a.VariableNames {
		if name == varGroupID || name == varGroupName {
			continue
		}
		if v := a.values[name]; v != "" {
			return v
		}
	}
	return ""
}
