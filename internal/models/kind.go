package models

// NotificationKind identifies the logical event behind a fan-out request.
// The values are the wire-level requestType strings used by the callers.
type NotificationKind string

const (
	KindFollowRequest NotificationKind = "followRequest"
	KindDirectFollow  NotificationKind = "createFollowDirectly"
	KindGroupCreated  NotificationKind = "CREATE_GROUP"
	KindAddedToGroup  NotificationKind = "ADD_PARTICIPANT_INTO_GROUP"
)

// Valid reports whether the kind is one of the supported request types.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindFollowRequest, KindDirectFollow, KindGroupCreated, KindAddedToGroup:
		return true
	default:
		return false
	}
}

// GroupKind reports whether the kind targets group membership. Group kinds
// require additional data carrying the group id and group name.
func (k NotificationKind) GroupKind() bool {
	return k == KindGroupCreated || k == KindAddedToGroup
}
