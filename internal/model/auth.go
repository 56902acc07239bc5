package model

import "github.com/golang-jwt/jwt/v5"

// AdminClaims are the JWT claims for the admin results API.
type AdminClaims struct {
	AdminID string `json:"adminId"`
	jwt.RegisteredClaims
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token   string `json:"token"`
	AdminID string `json:"adminId"`
}
