package objects

// UserInfo is the wire representation of a user. The password hash never
// leaves the server.
type UserInfo struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	PlatformRole       string  `json:"platform_role"`
	Status             string  `json:"status"`
	CurrentWorkspaceID *string `json:"current_workspace_id,omitempty"`
}
