package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/jinxovich/mosprom-sracaton/internal/auth"
	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/model"
	"github.com/jinxovich/mosprom-sracaton/internal/utilities"
)

// OptionalAuth loads the user into the context when a valid bearer token is
// present and lets the request through anonymously otherwise. Public posting
// endpoints use it so owners and admins see their unpublished postings while
// everyone else just does not.
func OptionalAuth(db *database.DBinstanceStruct, tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			ctx.Next()
			return
		}

		token, err := tokens.Validate(tokenString)
		if err != nil || !token.Valid {
			ctx.Next()
			return
		}

		claims := token.Claims.(*jwt.RegisteredClaims)
		if claims.Issuer != tokens.Issuer {
			ctx.Next()
			return
		}

		var foundUser model.User
		if err := db.Where("id = ?", claims.Subject).First(&foundUser).Error; err != nil {
			ctx.Next()
			return
		}

		ctx.Set("user", foundUser)
		ctx.Next()
	}
}
