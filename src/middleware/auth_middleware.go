package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	db "circlepay-server/src/db/sql"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ParseTokenFromRequest extracts and validates JWT token from request, returning claims if valid
func ParseTokenFromRequest(r *http.Request) (jwt.MapClaims, error) {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ParseTokenFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		name := claims["name"].(string)
		userID := int64(claims["user_id"].(float64))
		role := claims["role"].(string)
		circleID, _ := claims["circle_id"].(string)

		ctx := context.WithValue(r.Context(), "name", name)
		ctx = context.WithValue(ctx, "user_id", userID)
		ctx = context.WithValue(ctx, "role", role)
		ctx = context.WithValue(ctx, "circle_id", circleID)

		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
	})
}

func AdminMiddleware(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value("user_id").(int64)
			if !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			// The role is re-read from the database, so a demoted admin loses
			// access before the token expires.
			user, err := db.GetUserByID(userID, pool)
			if err != nil || user.Role != "admin" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
