package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and issues an access token carrying the
// account's type and scopes.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password!"})
		return
	}

	token, err := h.Tokens.Generate(user.ID, string(user.Type), user.Scopes)
	if err != nil {
		h.Log.Error("token generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword is the protected password update path; the old password
// must verify before the new one is stored.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	changed, err := h.Users.ChangePassword(c.Request.Context(), c.Param("user_id"), req.OldPassword, req.NewPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !changed {
		respondNotFound(c, "User not found!", "User not found or already removed.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUser resolves any account variant by id.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user == nil {
		respondNotFound(c, "User not found!", "User not found or already removed.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes any account variant by id.
func (h *Handler) DeleteUser(c *gin.Context) {
	removed, err := h.Users.Remove(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !removed {
		respondNotFound(c, "User not found!", "User not found or already removed.")
		return
	}
	c.Status(http.StatusNoContent)
}
