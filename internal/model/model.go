// Package model holds the persisted entities of the tenancy core. IDs are
// random UUID strings assigned at creation and never reused.
package model

import (
	"time"

	"github.com/strandhq/strand/internal/roles"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusCancelled AccountStatus = "cancelled"
	AccountStatusArchived  AccountStatus = "archived"
)

// Account is the tenant root. Its slug is globally unique.
type Account struct {
	ID        string
	Name      string
	Slug      string
	Status    AccountStatus
	PlanTier  string
	OwnerID   *string
	Settings  map[string]string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkspaceStatus is the lifecycle state of a workspace.
type WorkspaceStatus string

const (
	WorkspaceStatusActive    WorkspaceStatus = "active"
	WorkspaceStatusArchived  WorkspaceStatus = "archived"
	WorkspaceStatusSuspended WorkspaceStatus = "suspended"
)

// Workspace belongs to exactly one account. Its slug is unique within the
// account.
type Workspace struct {
	ID        string
	AccountID string
	Name      string
	Slug      string
	Status    WorkspaceStatus
	Settings  map[string]string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamStatus is the lifecycle state of a team.
type TeamStatus string

const (
	TeamStatusActive   TeamStatus = "active"
	TeamStatusArchived TeamStatus = "archived"
)

// Team belongs to exactly one workspace. AccountID is denormalized from the
// workspace and must match it on every write. Its slug is unique within the
// workspace.
type Team struct {
	ID          string
	AccountID   string
	WorkspaceID string
	Name        string
	Slug        string
	Status      TeamStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserStatus is the lifecycle state of a user.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// PlatformRole is the platform-level role of a user, orthogonal to any
// tenant role.
type PlatformRole string

const (
	PlatformRoleMember     PlatformRole = "member"
	PlatformRoleAdmin      PlatformRole = "admin"
	PlatformRoleSuperAdmin PlatformRole = "super_admin"
)

// User is a platform user. CurrentWorkspaceID is a session-sticky pointer,
// not a source of authorization truth.
type User struct {
	ID                 string
	Email              string
	FirstName          string
	LastName           string
	Password           string
	PlatformRole       PlatformRole
	Status             UserStatus
	CurrentWorkspaceID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Invitation holds the invitation metadata shared by all membership types.
type Invitation struct {
	InviterID  *string
	InvitedAt  *time.Time
	AcceptedAt *time.Time
}

// AccountMembership joins a user to an account. (AccountID, UserID) is
// unique.
type AccountMembership struct {
	ID        string
	AccountID string
	UserID    string
	Role      roles.AccountRole
	Status    roles.MembershipStatus
	Invitation
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkspaceMembership joins a user to a workspace. AccountID is denormalized
// from the workspace. (WorkspaceID, UserID) is unique.
type WorkspaceMembership struct {
	ID          string
	AccountID   string
	WorkspaceID string
	UserID      string
	Role        roles.WorkspaceRole
	Status      roles.MembershipStatus
	Invitation
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamMembership joins a user to a team. (TeamID, UserID) is unique.
type TeamMembership struct {
	ID        string
	AccountID string
	TeamID    string
	UserID    string
	Role      roles.TeamRole
	Status    roles.MembershipStatus
	Invitation
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditEvent is an immutable record of a sensitive action. It is never
// updated or deleted after creation.
type AuditEvent struct {
	ID          string
	Action      string
	SubjectKind string
	SubjectID   string
	ActorID     *string
	AccountID   *string
	WorkspaceID *string
	Metadata    map[string]string
	CreatedAt   time.Time
}
