package biz

import (
	"go.uber.org/fx"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/authz"
	"github.com/strandhq/strand/internal/store"
)

var Module = fx.Module("biz",
	fx.Provide(func(client *store.Client) *authz.Policies {
		return authz.NewPolicies(client.Directory())
	}),
	fx.Provide(func(client *store.Client) *audit.Recorder {
		return audit.NewRecorder(client.AuditEvents)
	}),
	fx.Provide(NewAbstractService),
	fx.Provide(NewUserService),
	fx.Provide(NewAuthService),
	fx.Provide(NewIdentityService),
	fx.Provide(NewAccountService),
	fx.Provide(NewWorkspaceService),
	fx.Provide(NewTeamService),
	fx.Provide(NewMembershipService),
)
