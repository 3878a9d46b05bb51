package handlers

import (
	"strconv"

	"github.com/m1z23r/drift/pkg/drift"
)

const defaultActivityLimit = 50

type ActivityHandler struct {
	activityService ActivityServiceInterface
}

func NewActivityHandler(activityService ActivityServiceInterface) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func limitParam(c *drift.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return defaultActivityLimit
	}
	return limit
}

// Mine lists the caller's own audit entries.
func (h *ActivityHandler) Mine(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.activityService.ListForUser(c.Request.Context(), user.Email, limitParam(c))
	if err != nil {
		internalError(c, err, "failed to list activity")
		return
	}

	_ = c.JSON(200, entries)
}

func (h *ActivityHandler) Recent(c *drift.Context) {
	entries, err := h.activityService.ListRecent(c.Request.Context(), limitParam(c))
	if err != nil {
		internalError(c, err, "failed to list activity")
		return
	}

	_ = c.JSON(200, entries)
}
