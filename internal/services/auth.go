package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/platform/ctxutil"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// AuthService verifies the access tokens issued by the identity
// subsystem. The engine never logs anyone in itself.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID, username string, ttl time.Duration) (string, error)
}

type accessClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	log       *logger.Logger
	secretKey []byte
	issuer    string
}

func NewAuthService(log *logger.Logger, jwtSecretKey, issuer string) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		log:       serviceLog,
		secretKey: []byte(jwtSecretKey),
		issuer:    strings.TrimSpace(issuer),
	}
}

func (as *authService) parse(tokenString string) (*accessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if as.issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.issuer))
	}
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return as.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	claims, err := as.parse(tokenString)
	if err != nil {
		as.log.Debug("token rejected", "error", err)
		return ctx, fmt.Errorf("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("invalid token subject")
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		rd = &ctxutil.RequestData{}
	}
	next := *rd
	next.UserID = userID
	next.Username = claims.Username
	return ctxutil.WithRequestData(ctx, &next), nil
}

// IssueToken signs a token the same way the identity subsystem does. Used
// by tests and local tooling.
func (as *authService) IssueToken(userID uuid.UUID, username string, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("missing user id")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now().UTC()
	claims := accessClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    as.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secretKey)
}
