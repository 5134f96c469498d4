package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acaduss/acaduss-backend/internal/http/response"
	"github.com/acaduss/acaduss-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, me)
}

// GET /api/users (admin)
func (uh *UserHandler) List(c *gin.Context) {
	profiles, err := uh.userService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, profiles)
}

// GET /api/users/:id
func (uh *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_user_id", "ID de usuario inválido")
	if !ok {
		return
	}
	profile, err := uh.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, profile)
}

// PUT /api/users/:id
// body: { "username"?, "full_name"?, "role"? }
func (uh *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_user_id", "ID de usuario inválido")
	if !ok {
		return
	}
	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	profile, err := uh.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, profile)
}
