package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/strandhq/strand/internal/server/api"
	"github.com/strandhq/strand/internal/server/biz"
	"github.com/strandhq/strand/internal/server/middleware"
)

type Handlers struct {
	fx.In

	System      *api.SystemHandlers
	Auth        *api.AuthHandlers
	Accounts    *api.AccountHandlers
	Workspaces  *api.WorkspaceHandlers
	Teams       *api.TeamHandlers
	Memberships *api.MembershipHandlers
}

type Services struct {
	fx.In

	AuthService     *biz.AuthService
	IdentityService *biz.IdentityService
}

func SetupRoutes(server *Server, handlers Handlers, services Services) {
	server.Use(middleware.WithCarrier())
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))

	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group(server.Config.BasePath, middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// Health check endpoint - no authentication required
		publicGroup.GET("/health", handlers.System.Health)
		// Sign up and sign in - DO NOT AUTH
		publicGroup.POST("/auth/signup", handlers.Auth.SignUp)
		publicGroup.POST("/auth/signin", handlers.Auth.SignIn)
	}

	authedGroup := server.Group(server.Config.BasePath,
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithJWTAuth(services.AuthService, services.IdentityService),
		middleware.WithWorkspace(services.IdentityService),
	)

	{
		accounts := authedGroup.Group("/accounts")
		accounts.POST("", handlers.Accounts.Create)
		accounts.GET("", handlers.Accounts.List)
		accounts.GET("/:id", handlers.Accounts.Get)
		accounts.PATCH("/:id", handlers.Accounts.Update)
		accounts.DELETE("/:id", handlers.Accounts.Delete)
		accounts.POST("/:id/archive", handlers.Accounts.Archive)
		accounts.POST("/:id/suspend", handlers.Accounts.Suspend)
		accounts.GET("/:id/memberships", handlers.Memberships.ListAccountMemberships)
		accounts.POST("/:id/memberships", handlers.Memberships.InviteToAccount)
	}

	{
		workspaces := authedGroup.Group("/workspaces")
		workspaces.POST("", handlers.Workspaces.Create)
		workspaces.GET("", handlers.Workspaces.List)
		workspaces.GET("/:id", handlers.Workspaces.Get)
		workspaces.PATCH("/:id", handlers.Workspaces.Update)
		workspaces.DELETE("/:id", handlers.Workspaces.Delete)
		workspaces.POST("/:id/archive", handlers.Workspaces.Archive)
		workspaces.POST("/:id/switch", handlers.Workspaces.Switch)
		workspaces.GET("/:id/teams", handlers.Teams.List)
		workspaces.POST("/:id/teams", handlers.Teams.Create)
		workspaces.GET("/:id/memberships", handlers.Memberships.ListWorkspaceMemberships)
		workspaces.POST("/:id/memberships", handlers.Memberships.InviteToWorkspace)
	}

	{
		teams := authedGroup.Group("/teams")
		teams.GET("/:id", handlers.Teams.Get)
		teams.PATCH("/:id", handlers.Teams.Update)
		teams.DELETE("/:id", handlers.Teams.Delete)
		teams.POST("/:id/archive", handlers.Teams.Archive)
		teams.GET("/:id/memberships", handlers.Memberships.ListTeamMemberships)
		teams.POST("/:id/memberships", handlers.Memberships.InviteToTeam)
	}

	{
		memberships := authedGroup.Group("/memberships")
		memberships.POST("/account/:id/accept", handlers.Memberships.AcceptAccountInvite)
		memberships.POST("/account/:id/decline", handlers.Memberships.DeclineAccountInvite)
		memberships.POST("/account/:id/suspend", handlers.Memberships.SuspendAccountMembership)
		memberships.PATCH("/account/:id/role", handlers.Memberships.ChangeAccountRole)

		memberships.POST("/workspace/:id/accept", handlers.Memberships.AcceptWorkspaceInvite)
		memberships.POST("/workspace/:id/decline", handlers.Memberships.DeclineWorkspaceInvite)
		memberships.POST("/workspace/:id/suspend", handlers.Memberships.SuspendWorkspaceMembership)
		memberships.PATCH("/workspace/:id/role", handlers.Memberships.ChangeWorkspaceRole)

		memberships.POST("/team/:id/accept", handlers.Memberships.AcceptTeamInvite)
		memberships.POST("/team/:id/decline", handlers.Memberships.DeclineTeamInvite)
		memberships.POST("/team/:id/suspend", handlers.Memberships.SuspendTeamMembership)
		memberships.PATCH("/team/:id/role", handlers.Memberships.ChangeTeamRole)
	}
}
