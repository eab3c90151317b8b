package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/strandhq/strand/internal/objects"
	"github.com/strandhq/strand/internal/server/biz"
)

type WorkspaceHandlersParams struct {
	fx.In

	WorkspaceService *biz.WorkspaceService
	IdentityService  *biz.IdentityService
}

func NewWorkspaceHandlers(params WorkspaceHandlersParams) *WorkspaceHandlers {
	return &WorkspaceHandlers{
		WorkspaceService: params.WorkspaceService,
		IdentityService:  params.IdentityService,
	}
}

type WorkspaceHandlers struct {
	WorkspaceService *biz.WorkspaceService
	IdentityService  *biz.IdentityService
}

type CreateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *WorkspaceHandlers) Create(c *gin.Context) {
	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	workspace, err := h.WorkspaceService.CreateWorkspace(c.Request.Context(), biz.CreateWorkspaceInput{
		Name: req.Name,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toWorkspace(workspace))
}

func (h *WorkspaceHandlers) List(c *gin.Context) {
	workspaces, err := h.WorkspaceService.ListWorkspaces(c.Request.Context())
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, objects.ListResponse[*objects.Workspace]{Data: toWorkspaces(workspaces)})
}

func (h *WorkspaceHandlers) Get(c *gin.Context) {
	workspace, err := h.WorkspaceService.GetWorkspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspace(workspace))
}

type UpdateWorkspaceRequest struct {
	Name     *string           `json:"name"`
	Settings map[string]string `json:"settings"`
	Metadata map[string]string `json:"metadata"`
}

func (h *WorkspaceHandlers) Update(c *gin.Context) {
	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	workspace, err := h.WorkspaceService.UpdateWorkspace(c.Request.Context(), c.Param("id"), biz.UpdateWorkspaceInput{
		Name:     req.Name,
		Settings: req.Settings,
		Metadata: req.Metadata,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspace(workspace))
}

func (h *WorkspaceHandlers) Delete(c *gin.Context) {
	if err := h.WorkspaceService.DeleteWorkspace(c.Request.Context(), c.Param("id")); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *WorkspaceHandlers) Archive(c *gin.Context) {
	workspace, err := h.WorkspaceService.ArchiveWorkspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspace(workspace))
}

// Switch moves the caller's sticky workspace pointer and re-derives the
// active tenant.
func (h *WorkspaceHandlers) Switch(c *gin.Context) {
	ctx, err := h.IdentityService.SwitchWorkspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.Request = c.Request.WithContext(ctx)

	workspace, err := h.WorkspaceService.GetWorkspace(ctx, c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspace(workspace))
}
