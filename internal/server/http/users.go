package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type profileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, token, err := s.users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful, please check your email to verify your account",
		"userId":  user.ID,
		"token":   token,
		"email":   user.Email,
		"name":    user.Name,
	})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
	})
}

func (s *HTTPServer) verifyEmail(c *gin.Context) {
	if err := s.users.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (s *HTTPServer) resendVerification(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := s.users.ResendVerification(c.Request.Context(), req.Email); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists and is not verified, a new verification email has been sent"})
}

func (s *HTTPServer) profile(c *gin.Context) {
	p, err := s.users.Profile(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *HTTPServer) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), callerID(c), req.Name, req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}
