package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
)

type authTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AuthConfig defines configuration for access tokens.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs and validates access tokens. Accounts live outside this service.
type AuthService struct {
	teachers  authTeacherReader
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance. teachers may be nil to skip the teacher lookup.
func NewAuthService(teachers authTeacherReader, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{teachers: teachers, validator: validate, logger: logger, config: config, now: time.Now}
}

// IssueToken signs an access token for an admin or a teacher account.
func (s *AuthService) IssueToken(ctx context.Context, req models.IssueTokenRequest) (*dto.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token request")
	}
	if req.Role == models.RoleTeacher && s.teachers != nil {
		teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		if req.FullName == "" {
			req.FullName = teacher.Name
		}
	}
	if req.Role == models.RoleAdmin {
		req.TeacherID = ""
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:    req.UserID,
		Role:      req.Role,
		Email:     req.Email,
		FullName:  req.FullName,
		TeacherID: req.TeacherID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   req.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}

	s.logger.Info("access token issued", zap.String("user_id", req.UserID), zap.String("role", string(req.Role)))
	return &dto.TokenResponse{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role in token")
	}
	if claims.Role == models.RoleTeacher && claims.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "teacher token without teacher id")
	}
	return claims, nil
}
