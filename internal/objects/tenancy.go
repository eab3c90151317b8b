package objects

import "time"

type Account struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	Status    string            `json:"status"`
	PlanTier  string            `json:"plan_tier"`
	OwnerID   *string           `json:"owner_id,omitempty"`
	Settings  map[string]string `json:"settings,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Workspace struct {
	ID        string            `json:"id"`
	AccountID string            `json:"account_id"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	Status    string            `json:"status"`
	Settings  map[string]string `json:"settings,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Team struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership is the wire shape shared by all three membership scopes.
// Scope is one of "account", "workspace" or "team"; ParentID is the id of
// the scoping entity.
type Membership struct {
	ID         string     `json:"id"`
	Scope      string     `json:"scope"`
	ParentID   string     `json:"parent_id"`
	AccountID  string     `json:"account_id"`
	UserID     string     `json:"user_id"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	InviterID  *string    `json:"inviter_id,omitempty"`
	InvitedAt  *time.Time `json:"invited_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}
