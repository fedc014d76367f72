package constants

// Context keys
const (
	ContextKeyDeveloperID = "developer_id"
)

// Auth
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Change log entity types
const (
	EntityTask      = "task"
	EntityProject   = "project"
	EntityDeveloper = "developer"
)
