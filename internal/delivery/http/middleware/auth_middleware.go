package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/pkg/jwt"
	"go-clinic-agenda/pkg/response"

	"github.com/google/uuid"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// Application roles carried in the token's app_metadata.
const (
	RoleAdmin        = "admin"
	RoleProfessional = "professional"
	RoleReceptionist = "receptionist"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	Email    string
	Role     string
	ClinicID *uuid.UUID
}

// Owner returns the data partition the caller works in.
func (p *Principal) Owner() entity.Owner {
	return entity.Owner{ClinicID: p.ClinicID, UserID: p.UserID}
}

type AuthMiddleware struct {
	jwtService *jwt.JWTService
}

func NewAuthMiddleware(jwtService *jwt.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.Unauthorized(w, "Invalid token subject")
			return
		}

		principal := &Principal{
			UserID:   userID,
			Email:    claims.Email,
			Role:     claims.AppMetadata.Role,
			ClinicID: claims.ClinicID(),
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipalFromContext extracts the authenticated caller from context
func GetPrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*Principal)
	return p, ok && p != nil
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipalFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return p.UserID, true
}
