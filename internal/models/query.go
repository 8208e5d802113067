package models

// DigestQuery describes one recipient resolve read.
type DigestQuery struct {
	Kind     NotificationKind
	FromWhom string
	ToWhom   string
	GroupID  string
	// IncludeSender asks the read to also return the sender's display
	// attributes, used when the caller supplied no additional data.
	IncludeSender bool
}

// EdgeQuery describes one notified-edge write.
type EdgeQuery struct {
	Kind     NotificationKind
	FromWhom string
	ToWhom   string
	GroupID  string
}
