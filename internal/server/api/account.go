package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/strandhq/strand/internal/objects"
	"github.com/strandhq/strand/internal/server/biz"
)

type AccountHandlersParams struct {
	fx.In

	AccountService *biz.AccountService
}

func NewAccountHandlers(params AccountHandlersParams) *AccountHandlers {
	return &AccountHandlers{
		AccountService: params.AccountService,
	}
}

type AccountHandlers struct {
	AccountService *biz.AccountService
}

type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	PlanTier string `json:"plan_tier"`
}

func (h *AccountHandlers) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	account, err := h.AccountService.CreateAccount(c.Request.Context(), biz.CreateAccountInput{
		Name:     req.Name,
		PlanTier: req.PlanTier,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAccount(account))
}

func (h *AccountHandlers) List(c *gin.Context) {
	accounts, err := h.AccountService.ListAccounts(c.Request.Context())
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, objects.ListResponse[*objects.Account]{Data: toAccounts(accounts)})
}

func (h *AccountHandlers) Get(c *gin.Context) {
	account, err := h.AccountService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccount(account))
}

type UpdateAccountRequest struct {
	Name     *string           `json:"name"`
	PlanTier *string           `json:"plan_tier"`
	Settings map[string]string `json:"settings"`
	Metadata map[string]string `json:"metadata"`
}

func (h *AccountHandlers) Update(c *gin.Context) {
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	account, err := h.AccountService.UpdateAccount(c.Request.Context(), c.Param("id"), biz.UpdateAccountInput{
		Name:     req.Name,
		PlanTier: req.PlanTier,
		Settings: req.Settings,
		Metadata: req.Metadata,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccount(account))
}

func (h *AccountHandlers) Delete(c *gin.Context) {
	if err := h.AccountService.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AccountHandlers) Archive(c *gin.Context) {
	account, err := h.AccountService.ArchiveAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccount(account))
}

func (h *AccountHandlers) Suspend(c *gin.Context) {
	account, err := h.AccountService.SuspendAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccount(account))
}
