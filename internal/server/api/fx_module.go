package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewSystemHandlers),
	fx.Provide(NewAuthHandlers),
	fx.Provide(NewAccountHandlers),
	fx.Provide(NewWorkspaceHandlers),
	fx.Provide(NewTeamHandlers),
	fx.Provide(NewMembershipHandlers),
)
