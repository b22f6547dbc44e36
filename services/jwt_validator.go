package services

import (
	"context"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// JWTValidator checks HS256 tokens locally with a shared secret. The subject
// claim is the user id; "roles" is an optional list of strings.
type JWTValidator struct {
	Secret []byte
}

func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{Secret: []byte(secret)}
}

func (v *JWTValidator) ValidateToken(_ context.Context, accessToken string) (*ValidateResponse, error) {
	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	resp := &ValidateResponse{UserID: sub}
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				resp.Roles = append(resp.Roles, s)
			}
		}
	}
	return resp, nil
}

// IssueToken signs a token for userID. Used by the terminal client in local
// setups and by tests.
func (v *JWTValidator) IssueToken(userID string, roles []string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"roles": roles,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}
