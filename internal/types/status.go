package types

// Status is a type for the status of a resource in the Database
// This is used to track the lifecycle of a resource and to determine if it should be included in queries
type Status string

const (
	StatusPublished Status = "published"
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusDeleted   Status = "deleted"
)
