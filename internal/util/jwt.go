package util

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ferdian3456/virdanengage/internal/constant"
	"github.com/ferdian3456/virdanengage/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	BearerPrefix = "Bearer "
	// TokenIssuer is the account service that signs access tokens. This
	// service only verifies them.
	TokenIssuer         = "github.com/ferdian3456/virdanproject"
	AccessTokenDuration = 15 * time.Minute

	ErrInvalidSigningMethod = errors.New("invalid token signing method")
	ErrMissingSecret        = errors.New("jwt secret key is not configured")
)

// parseErrorMessages is checked in order, the first match wins.
var parseErrorMessages = []struct {
	err     error
	message string
}{
	{jwt.ErrTokenMalformed, "Authentication token is malformed"},
	{jwt.ErrTokenExpired, "Authentication token is expired"},
	{jwt.ErrTokenNotValidYet, "Authentication token is not valid yet"},
	{ErrInvalidSigningMethod, "Authentication token has invalid signing method"},
}

func unauthorized(message string) *model.ValidationError {
	return &model.ValidationError{
		Code:    constant.ERR_UNATHORIZED_ERROR,
		Message: message,
		Param:   "accessToken",
	}
}

// GenerateAccessToken signs a token with the claims the account service
// issues. Used by tests and local tooling.
func GenerateAccessToken(userId uuid.UUID, username string, jwtSecretKey string) (string, error) {
	if jwtSecretKey == "" {
		return "", ErrMissingSecret
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.Claims{
		UserId:   userId,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
			Subject:   fmt.Sprintf("user:%s", userId.String()),
		},
	})

	return token.SignedString([]byte(jwtSecretKey))
}

// ValidateAccessToken checks an Authorization header value and returns the
// raw token with its claims. Every rejection is a ValidationError.
func ValidateAccessToken(authHeader string, jwtSecretKey string) (string, *model.Claims, error) {
	if jwtSecretKey == "" {
		return "", nil, ErrMissingSecret
	}

	tokenString, err := extractBearerToken(authHeader)
	if err != nil {
		return "", nil, err
	}

	claims := &model.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(jwtSecretKey), nil
	}, jwt.WithIssuer(TokenIssuer))
	if err != nil {
		for _, candidate := range parseErrorMessages {
			if errors.Is(err, candidate.err) {
				return "", nil, unauthorized(candidate.message)
			}
		}
		return "", nil, unauthorized("Authentication token is invalid")
	}

	if !token.Valid || claims.UserId == uuid.Nil {
		return "", nil, unauthorized("Authentication token is invalid")
	}

	return tokenString, claims, nil
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", unauthorized("No authentication token is provided")
	}

	token, found := strings.CutPrefix(authHeader, BearerPrefix)
	if !found {
		return "", unauthorized("Authentication token format is not match")
	}
	if token == "" {
		return "", unauthorized("Authentication token is empty")
	}

	return token, nil
}
