package jwt

import (
	"errors"
	"time"

	"go-clinic-agenda/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSubject = errors.New("token subject is not a valid user id")

// AppMetadata is the server-controlled part of a Supabase token.
type AppMetadata struct {
	ClinicID string `json:"clinic_id,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Claims mirrors the access token issued by the Supabase auth proxy.
// Subject carries the user id.
type Claims struct {
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidSubject
	}
	return id, nil
}

// ClinicID returns the clinic the user acts for, if any.
func (c *Claims) ClinicID() *uuid.UUID {
	if c.AppMetadata.ClinicID == "" {
		return nil
	}
	id, err := uuid.Parse(c.AppMetadata.ClinicID)
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

type JWTService struct {
	config config.JWTConfig
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{config: cfg}
}

// GenerateAccessToken signs a token shaped like the ones Supabase issues.
// Production tokens come from Supabase; this exists for local tooling and tests.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email, appRole string, clinicID *uuid.UUID) (string, error) {
	meta := AppMetadata{Role: appRole}
	if clinicID != nil {
		meta.ClinicID = clinicID.String()
	}

	now := time.Now()
	claims := Claims{
		Email:       email,
		Role:        "authenticated",
		AppMetadata: meta,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{s.config.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.config.Secret), nil
	}, opts...)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func (s *JWTService) GetAccessExpiry() time.Duration {
	return s.config.AccessExpiry
}
