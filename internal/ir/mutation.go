package ir

// Mutation is one applied reconciliation action, as kept in the audit log.
// Seq is a per-request logical clock starting at 1; wall-clock time is never
// used for ordering.
type Mutation struct {
	RequestID  string `json:"request_id"`
	Seq        int64  `json:"seq"`
	ParentType string `json:"parent_type"`
	ParentID   int64  `json:"parent_id"`
	Relation   string `json:"relation"`
	Action     string `json:"action"`
	ChildType  string `json:"child_type"`
	ChildID    int64  `json:"child_id"`
}
