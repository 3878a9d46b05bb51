package handlers

import (
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	_ = c.JSON(200, user)
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, services.ProfileUpdate{
		FullName:     req.FullName,
		Company:      req.Company,
		Phone:        req.Phone,
		TwoFAEnabled: req.TwoFAEnabled,
	})
	if err != nil {
		serviceError(c, err, "failed to update user")
		return
	}

	_ = c.JSON(200, updated)
}

// List is admin only.
func (h *UserHandler) List(c *drift.Context) {
	users, err := h.userService.List(c.Request.Context(), c.QueryParam("search"))
	if err != nil {
		internalError(c, err, "failed to list users")
		return
	}
	_ = c.JSON(200, users)
}

func (h *UserHandler) AdminUpdate(c *drift.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	var req dto.AdminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if userID == admin.ID && (req.Role != nil || req.Status != nil) {
		c.BadRequest("cannot change your own role or status")
		return
	}

	user, err := h.userService.UpdateAdmin(c.Request.Context(), admin.Email, userID, services.AdminUpdate{
		Role:   req.Role,
		Status: req.Status,
	})
	if err != nil {
		serviceError(c, err, "failed to update user")
		return
	}

	_ = c.JSON(200, user)
}

// Delete removes the user row only. Sites and plugins the user owned become
// orphans and show up in the orphan scan.
func (h *UserHandler) Delete(c *drift.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	if userID == admin.ID {
		c.BadRequest("cannot delete yourself")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), admin.Email, userID); err != nil {
		serviceError(c, err, "failed to delete user")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "user deleted"})
}
