package biz

import (
	"context"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/store"
)

// AbstractService carries the dependencies every service needs: the store,
// the policy engine and the audit recorder.
type AbstractService struct {
	store    *store.Client
	policies *authz.Policies
	auditor  *audit.Recorder
}

func NewAbstractService(client *store.Client, policies *authz.Policies, auditor *audit.Recorder) *AbstractService {
	return &AbstractService{
		store:    client,
		policies: policies,
		auditor:  auditor,
	}
}

func (a *AbstractService) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return a.store.RunInTransaction(ctx, fn)
}

// TenancyConfig tunes cross-entity strictness and slug allocation.
type TenancyConfig struct {
	// RequireActiveParentMembership tightens the parent-scope check on
	// child invites. A membership on the parent scope (account for
	// workspace invites, workspace for team invites) is always required;
	// with this set it must also be active, not pending or suspended.
	RequireActiveParentMembership bool `conf:"require_active_parent_membership" yaml:"require_active_parent_membership" json:"require_active_parent_membership"`

	// SlugMaxAttempts caps the slug allocator probe loop.
	SlugMaxAttempts int `conf:"slug_max_attempts" yaml:"slug_max_attempts" json:"slug_max_attempts"`
}
