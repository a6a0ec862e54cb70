// Package auth implement registration, login and access token handling.
package auth

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
)

// JwtIssuer is the issuer claim every token must carry.
const JwtIssuer = "mosprom-board"

// TokenExpiry is how long an access token stays valid.
const TokenExpiry = 24 * time.Hour

// TokenIssuer holds the signing configuration for access tokens.
// It is constructed once at startup and passed to handlers and middleware,
// there is no package level mutable secret.
type TokenIssuer struct {
	Secret []byte
	Issuer string
	Expiry time.Duration
}

// NewTokenIssuer builds a TokenIssuer from the SECRET_KEY environment variable.
func NewTokenIssuer() *TokenIssuer {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		log.Fatal("SECRET_KEY is not set")
	}
	return &TokenIssuer{
		Secret: []byte(secret),
		Issuer: JwtIssuer,
		Expiry: TokenExpiry,
	}
}

// Generate signs a HS256 access token bound to the given user id.
func (ti *TokenIssuer) Generate(userID uuid.UUID) (string, error) {

	generatedAccessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    ti.Issuer,
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ti.Expiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})

	signedToken, err := generatedAccessToken.SignedString(ti.Secret)
	if err != nil {
		return "", fmt.Errorf("Failed to sign token: %s", err)
	}

	return signedToken, nil
}

// Validate parses the encoded token and checks the signature method and expiry.
func (ti *TokenIssuer) Validate(encodeToken string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(encodeToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, fmt.Errorf("Invalid token")
		}
		return ti.Secret, nil
	})
}
