package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/strandhq/strand/internal/objects"
	"github.com/strandhq/strand/internal/server/biz"
)

type TeamHandlersParams struct {
	fx.In

	TeamService *biz.TeamService
}

func NewTeamHandlers(params TeamHandlersParams) *TeamHandlers {
	return &TeamHandlers{
		TeamService: params.TeamService,
	}
}

type TeamHandlers struct {
	TeamService *biz.TeamService
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create creates a team under the workspace in the route.
func (h *TeamHandlers) Create(c *gin.Context) {
	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	team, err := h.TeamService.CreateTeam(c.Request.Context(), biz.CreateTeamInput{
		WorkspaceID: c.Param("id"),
		Name:        req.Name,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTeam(team))
}

// List lists the teams of the workspace in the route.
func (h *TeamHandlers) List(c *gin.Context) {
	teams, err := h.TeamService.ListTeams(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, objects.ListResponse[*objects.Team]{Data: toTeams(teams)})
}

func (h *TeamHandlers) Get(c *gin.Context) {
	team, err := h.TeamService.GetTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeam(team))
}

type UpdateTeamRequest struct {
	Name *string `json:"name"`
}

func (h *TeamHandlers) Update(c *gin.Context) {
	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	team, err := h.TeamService.UpdateTeam(c.Request.Context(), c.Param("id"), biz.UpdateTeamInput{
		Name: req.Name,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeam(team))
}

func (h *TeamHandlers) Delete(c *gin.Context) {
	if err := h.TeamService.DeleteTeam(c.Request.Context(), c.Param("id")); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TeamHandlers) Archive(c *gin.Context) {
	team, err := h.TeamService.ArchiveTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeam(team))
}
