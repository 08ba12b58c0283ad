package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-service/internal/app"
	"user-service/internal/transport/http/response"
)

const msgUserDeleted = "User deleted successfully"

type UserHandler struct {
	userService *app.UserService
	log         logrus.FieldLogger
}

// UserRequest is the body of create and update calls. Both fields may be empty.
type UserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewUserHandler(userService *app.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	users := router.Group("/users")
	users.POST("", h.Create)
	users.GET("", h.List)
	users.GET("/:username", h.GetByUsername)
	users.PUT("/:id", h.Update)
	users.DELETE("/:id", h.Delete)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Text(c, http.StatusBadRequest, response.MsgInvalidPayload)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		h.internalError(c, err, "create user failed")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "list users failed")
		return
	}
	response.OK(c, users)
}

// GetByUsername answers 200 with a null body when nobody has that name.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	user, err := h.userService.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.internalError(c, err, "get user failed")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Text(c, http.StatusBadRequest, response.MsgInvalidPayload)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			response.Text(c, http.StatusNotFound, err.Error())
			return
		}
		h.internalError(c, err, "update user failed")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUserByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			response.Text(c, http.StatusNotFound, err.Error())
			return
		}
		h.internalError(c, err, "delete user failed")
		return
	}
	response.Text(c, http.StatusNoContent, msgUserDeleted)
}

func (h *UserHandler) internalError(c *gin.Context, err error, msg string) {
	h.log.WithError(err).WithField("path", c.Request.URL.Path).Error(msg)
	response.InternalError(c)
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Text(c, http.StatusBadRequest, response.MsgInvalidID)
		return 0, false
	}
	return uint(id), true
}
