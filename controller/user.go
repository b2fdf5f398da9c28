package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hrassist/service"
)

// UserController ...
type UserController struct {
	users  *service.UserService
	logger *logrus.Logger
}

func NewUserController(users *service.UserService, logger *logrus.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

func (ctrl *UserController) Register(c *gin.Context) {
	ctrl.logger.Infof("[%s] Handling user registration request", c.GetString("requestId"))

	var input service.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ctrl.logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := ctrl.users.Register(&input); err != nil {
		ctrl.logger.Warnf("[%s] Failed to register user %s: %s", c.GetString("requestId"), input.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	ctrl.logger.Infof("[%s] User %s registered successfully", c.GetString("requestId"), input.Email)
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (ctrl *UserController) Login(c *gin.Context) {
	ctrl.logger.Infof("[%s] Handling user login request", c.GetString("requestId"))

	var loginRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	user, token, err := ctrl.users.Login(loginRequest.Email, loginRequest.Password)
	if err != nil {
		ctrl.logger.Warnf("[%s] User %s failed to login: %s", c.GetString("requestId"), loginRequest.Email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	// The user_id cookie is the identity fallback the chat resolver reads.
	c.SetCookie(service.CookieUserID, strconv.FormatUint(uint64(user.UserID), 10),
		7*24*3600, "/", "", false, true)

	ctrl.logger.Infof("[%s] User %s login successfully", c.GetString("requestId"), loginRequest.Email)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"user_id":               user.UserID,
			"full_name":             user.FullName,
			"email":                 user.Email,
			"role_type":             user.RoleType,
			"position_title":        user.PositionTitle,
			"faculty_or_department": user.FacultyOrDepartment,
			"is_admin":              user.IsAdmin,
		},
	})
}

// GetUserData returns the aggregated personalization payload the frontend
// injects into chat turns.
func (ctrl *UserController) GetUserData(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	data, err := ctrl.users.LoadUserData(uint(userID))
	if err != nil {
		ctrl.logger.Warnf("[%s] Failed to load user data for %d: %s", c.GetString("requestId"), userID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, data)
}
