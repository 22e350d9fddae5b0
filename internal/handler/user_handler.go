package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
)

type UserHandler struct {
	svc service.ProfileService
}

func NewUserHandler(svc service.ProfileService) *UserHandler {
	return &UserHandler{svc: svc}
}

type UserResponse struct {
	UID         string  `json:"uid"`
	ByteBalance int64   `json:"byteBalance"`
	Tier        string  `json:"tier"`
	Archetype   *string `json:"archetype"`
	CreatedAt   string  `json:"createdAt"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UID:         u.ID,
		ByteBalance: u.ByteBalance,
		Tier:        string(u.Tier),
		Archetype:   strPtrOrNil(u.Archetype),
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type ensureUserRequest struct {
	Archetype string `json:"archetype"`
}

func (h *UserHandler) Ensure(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	var req ensureUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	u, err := h.svc.Ensure(c.Request().Context(), uid, req.Archetype)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) Get(c echo.Context) error {
	uid, err := uidFrom(c)
	if uid == "" {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
