package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medcart/medcart/internal/server/http/dto"
)

// ProfileHandler serves the authenticated user's own account.
type ProfileHandler struct {
	facade ProfileFacade
}

func NewProfileHandler(facade ProfileFacade) *ProfileHandler {
	return &ProfileHandler{facade: facade}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	actor := CurrentActor(c)

	user, err := h.facade.UserByID(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	actor := CurrentActor(c)
	if err := h.facade.ChangePassword(c.Request.Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	actor := CurrentActor(c)

	if err := h.facade.DeleteAccount(c.Request.Context(), actor.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
