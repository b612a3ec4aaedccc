package dto

import dom "taskmanager/internal/domain"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=120"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// UserResponse is returned when user info is needed (e.g. after login).
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func NewUserResponse(u dom.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

// AuthData is returned by register and login.
type AuthData struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
