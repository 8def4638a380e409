package handlers

import (
	"errors"
	"net/http"

	"go-pos-billing/internal/auth"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Verify the password and sign a token
	token, user, err := h.Users.Login(c.Request.Context(), input.Username, input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.fail(c, "Login", err)
		return
	}

	// 3. Success! Return Token and Role
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

type RegisterRequest struct {
	LoginRequest
	Role string `json:"role"`
}

// Register is only routed when ALLOW_REGISTRATION is set.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	user, err := h.Users.Register(c.Request.Context(), input.Username, input.Password, input.Role)
	if err != nil {
		h.fail(c, "Register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "username": user.Username, "role": user.Role})
}
