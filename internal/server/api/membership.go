package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/objects"
	"github.com/strandhq/strand/internal/roles"
	"github.com/strandhq/strand/internal/server/biz"

	"github.com/samber/lo"
)

type MembershipHandlersParams struct {
	fx.In

	MembershipService *biz.MembershipService
}

func NewMembershipHandlers(params MembershipHandlersParams) *MembershipHandlers {
	return &MembershipHandlers{
		MembershipService: params.MembershipService,
	}
}

type MembershipHandlers struct {
	MembershipService *biz.MembershipService
}

type InviteRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"    binding:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ---- account scope ----

func (h *MembershipHandlers) InviteToAccount(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	membership, err := h.MembershipService.InviteToAccount(c.Request.Context(), c.Param("id"), biz.InviteInput{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAccountMembership(membership))
}

func (h *MembershipHandlers) ListAccountMemberships(c *gin.Context) {
	memberships, err := h.MembershipService.ListAccountMemberships(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	data := lo.Map(memberships, func(m *model.AccountMembership, _ int) *objects.Membership {
		return toAccountMembership(m)
	})
	c.JSON(http.StatusOK, objects.ListResponse[*objects.Membership]{Data: data})
}

func (h *MembershipHandlers) AcceptAccountInvite(c *gin.Context) {
	membership, err := h.MembershipService.AcceptAccountInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccountMembership(membership))
}

func (h *MembershipHandlers) DeclineAccountInvite(c *gin.Context) {
	membership, err := h.MembershipService.DeclineAccountInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccountMembership(membership))
}

func (h *MembershipHandlers) SuspendAccountMembership(c *gin.Context) {
	membership, err := h.MembershipService.SuspendAccountMembership(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccountMembership(membership))
}

func (h *MembershipHandlers) ChangeAccountRole(c *gin.Context) {
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	membership, err := h.MembershipService.ChangeAccountRole(c.Request.Context(), c.Param("id"), roles.AccountRole(req.Role))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccountMembership(membership))
}

// ---- workspace scope ----

func (h *MembershipHandlers) InviteToWorkspace(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	membership, err := h.MembershipService.InviteToWorkspace(c.Request.Context(), c.Param("id"), biz.InviteInput{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toWorkspaceMembership(membership))
}

func (h *MembershipHandlers) ListWorkspaceMemberships(c *gin.Context) {
	memberships, err := h.MembershipService.ListWorkspaceMemberships(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	data := lo.Map(memberships, func(m *model.WorkspaceMembership, _ int) *objects.Membership {
		return toWorkspaceMembership(m)
	})
	c.JSON(http.StatusOK, objects.ListResponse[*objects.Membership]{Data: data})
}

func (h *MembershipHandlers) AcceptWorkspaceInvite(c *gin.Context) {
	membership, err := h.MembershipService.AcceptWorkspaceInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspaceMembership(membership))
}

func (h *MembershipHandlers) DeclineWorkspaceInvite(c *gin.Context) {
	membership, err := h.MembershipService.DeclineWorkspaceInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspaceMembership(membership))
}

func (h *MembershipHandlers) SuspendWorkspaceMembership(c *gin.Context) {
	membership, err := h.MembershipService.SuspendWorkspaceMembership(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspaceMembership(membership))
}

func (h *MembershipHandlers) ChangeWorkspaceRole(c *gin.Context) {
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	membership, err := h.MembershipService.ChangeWorkspaceRole(c.Request.Context(), c.Param("id"), roles.WorkspaceRole(req.Role))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWorkspaceMembership(membership))
}

// ---- team scope ----

func (h *MembershipHandlers) InviteToTeam(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	membership, err := h.MembershipService.InviteToTeam(c.Request.Context(), c.Param("id"), biz.InviteInput{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTeamMembership(membership))
}

func (h *MembershipHandlers) ListTeamMemberships(c *gin.Context) {
	memberships, err := h.MembershipService.ListTeamMemberships(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	data := lo.Map(memberships, func(m *model.TeamMembership, _ int) *objects.Membership {
		return toTeamMembership(m)
	})
	c.JSON(http.StatusOK, objects.ListResponse[*objects.Membership]{Data: data})
}

func (h *MembershipHandlers) AcceptTeamInvite(c *gin.Context) {
	membership, err := h.MembershipService.AcceptTeamInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamMembership(membership))
}

func (h *MembershipHandlers) DeclineTeamInvite(c *gin.Context) {
	membership, err := h.MembershipService.DeclineTeamInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamMembership(membership))
}

func (h *MembershipHandlers) SuspendTeamMembership(c *gin.Context) {
	membership, err := h.MembershipService.SuspendTeamMembership(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamMembership(membership))
}

func (h *MembershipHandlers) ChangeTeamRole(c *gin.Context) {
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	membership, err := h.MembershipService.ChangeTeamRole(c.Request.Context(), c.Param("id"), roles.TeamRole(req.Role))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTeamMembership(membership))
}
