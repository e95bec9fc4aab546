package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-search-api/internal/models"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
)

const tokenIssuer = "timetable-search-api"

// AuthConfig defines configuration for device token issuance.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
}

// AuthService issues and validates device tokens. There are no user accounts;
// a token only binds history and export jobs to the requesting device.
type AuthService struct {
	config AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(config AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = 30 * 24 * time.Hour
	}
	return &AuthService{config: config, logger: logger}
}

// IssueToken mints a signed token for a device. A blank device ID gets a
// fresh one assigned.
func (s *AuthService) IssueToken(deviceID string) (string, *models.AuthClaims, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	issuedAt := time.Now().UTC()
	claims := &models.AuthClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   deviceID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign device token")
	}
	return signed, claims, nil
}

// ValidateToken parses and verifies a device token.
func (s *AuthService) ValidateToken(tokenString string) (*models.AuthClaims, error) {
	claims := &models.AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
