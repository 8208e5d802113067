package models

// ConnectionStatus is the session state recorded on a CONNECTED edge.
type ConnectionStatus string

const (
	StatusLoggedIn  ConnectionStatus = "loggedin"
	StatusLoggedOut ConnectionStatus = "loggedout"
)

// Endpoint is the typed projection of an Endpoint node. The graph layer
// rejects nodes with missing required properties instead of propagating
// partially filled records.
type Endpoint struct {
	ARN          string
	DeviceToken  string
	PlatformType string
	Enabled      bool
}

// SenderInfo carries the sender display attributes resolved from the graph
// when the caller supplied no additional data.
type SenderInfo struct {
	Username string
	Name     string
}

// Display resolves the preferred display string: username first, full name
// as the fallback.
func (s *SenderInfo) Display() string {
	if s == nil {
		return ""
	}
	if s.Username != "" {
		return s.Username
	}
	return s.Name
}

// RecipientDigest is the single-read resolve result for one recipient.
type RecipientDigest struct {
	NotifiedBefore bool
	Endpoints      []Endpoint
	Sender         *SenderInfo
}

// UserConnection pairs a user with the status of their CONNECTED edge to
// one endpoint.
type UserConnection struct {
	UserID string
	Status ConnectionStatus
}

// EndpointSnapshot is the lifecycle read: the endpoint matching a device
// token together with every user connected to it. A nil snapshot means no
// endpoint exists for the token.
type EndpointSnapshot struct {
	Endpoint    Endpoint
	Connections []UserConnection
}

// PublishOutcome enumerates per-endpoint delivery results so the soft
// failure policy is explicit rather than an accident of dropped errors.
type PublishOutcome int

const (
	PublishDelivered PublishOutcome = iota
	PublishEndpointDisabled
	PublishSuppressed
	PublishFailed
)

// PublishResult records the outcome of one publish attempt.
type PublishResult struct {
	Recipient string
	ARN       string
	Outcome   PublishOutcome
	Err       error
}
