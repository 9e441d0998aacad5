package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User là tài khoản nhân viên trạm thu phí
type User struct {
	ID        int         `json:"id"`
	Username  string      `json:"username"`
	Password  string      `json:"-"` // hash bcrypt, không trả về JSON
	Role      string      `json:"role"`
	Station   null.String `json:"station"` // trạm mà nhân viên trực
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type RegisterUserDTO struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	Station  string `json:"station,omitempty"`
}

type LoginUserDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponseDTO struct {
	Token    string `json:"token"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Station  string `json:"station,omitempty"`
}
