package model

import "github.com/golang-jwt/jwt/v5"

// Identity is the verified caller of an operation.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// UserClaims are the JWT claims issued by the identity provider.
type UserClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
