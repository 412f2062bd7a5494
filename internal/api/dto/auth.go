package dto

import "courier-backoffice-service/internal/domain"

type LoginRequest struct {
	Username string `json:"usuario"`
	Password string `json:"contrasena"`
}

type UserResponse struct {
	Username    string   `json:"usuario"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type LoginResponse struct {
	Success bool          `json:"success"`
	User    *UserResponse `json:"user,omitempty"`
	Token   string        `json:"token,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func NewLoginResponse(s domain.Session) LoginResponse {
	perms := s.Permissions
	if perms == nil {
		perms = []string{}
	}
	return LoginResponse{
		Success: true,
		User: &UserResponse{
			Username:    s.Username,
			Role:        string(s.Role),
			Permissions: perms,
		},
		Token: s.Token,
	}
}
