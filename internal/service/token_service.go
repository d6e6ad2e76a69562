package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/models"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
)

// TokenConfig defines how access tokens are signed.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// TokenService issues and verifies stateless access tokens.
type TokenService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    TokenConfig
	now       func() time.Time
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(validate *validator.Validate, logger *zap.Logger, config TokenConfig) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = time.Hour
	}
	return &TokenService{validator: validate, logger: logger, config: config, now: time.Now}
}

// Issue signs a token carrying the given identity, including any extra
// claims it was submitted with.
func (s *TokenService) Issue(identity models.Identity) (*models.TokenResponse, error) {
	if err := s.validator.Struct(identity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid identity payload")
	}

	identity.Extra = customClaims(identity.Extra)

	issuedAt := s.now().UTC()
	claims := &models.IdentityClaims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.TokenResponse{Token: signed}, nil
}

// customClaims drops client-supplied values for the claims the service sets
// itself.
func customClaims(extra map[string]interface{}) map[string]interface{} {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for _, name := range models.RegisteredClaimNames {
		delete(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Verify parses a token and returns its claims. Every failure, including
// expiry, yields ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*models.IdentityClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token claims")
	}
	return claims, nil
}
