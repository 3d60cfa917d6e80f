package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/boardhive/boardhive/internal/config"
	apperrors "github.com/boardhive/boardhive/internal/errors"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/store"
	"github.com/boardhive/boardhive/pkg/util"
)

var (
	// ErrTokenExpired indicates that the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken indicates that the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrCredentialsRequired indicates missing login credentials
	ErrCredentialsRequired = errors.New("username and password are required")
)

// Claims represents JWT claims
type Claims struct {
	Username    string `json:"username"`
	AvatarColor string `json:"avatar_color,omitempty"`
	jwt.RegisteredClaims
}

// Service handles the stored user identity and the tokens guarding the HTTP
// surface. Credentials are not verified against anything: this is the mock
// auth collaborator, a stored record plus a signed token.
type Service struct {
	cfg       config.AuthConfig
	store     store.Store
	jwtSecret []byte
}

// NewService creates an auth service
func NewService(cfg config.AuthConfig, st store.Store) *Service {
	return &Service{
		cfg:       cfg,
		store:     st,
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// Login stores the user record and returns it with a signed token. The
// avatar color defaults to a random one when not supplied.
func (s *Service) Login(ctx context.Context, username, password, avatarColor string) (*model.User, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrCredentialsRequired
	}

	if avatarColor == "" {
		avatarColor = util.RandomAvatarColor()
	}

	user := &model.User{
		Username:    username,
		AvatarColor: avatarColor,
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		// The session flow keeps working from the in-memory record
		log.Printf("Failed to persist user record: %v", err)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout removes the stored user record
func (s *Service) Logout(ctx context.Context) error {
	return s.store.DeleteUser(ctx)
}

// CurrentUser returns the stored user record. A missing or malformed record
// means unauthenticated.
func (s *Service) CurrentUser(ctx context.Context) (*model.User, error) {
	user, err := s.store.GetUser(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	if user.AvatarColor == "" {
		user.AvatarColor = util.RandomAvatarColor()
	}

	return user, nil
}

// UpdateProfile merges the given fields into the stored user record
func (s *Service) UpdateProfile(ctx context.Context, update model.User) (*model.User, error) {
	current, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if update.Username != "" {
		current.Username = update.Username
	}
	if update.AvatarColor != "" {
		current.AvatarColor = update.AvatarColor
	}

	if err := s.store.SaveUser(ctx, current); err != nil {
		return nil, err
	}

	return current, nil
}

// GenerateToken generates a new JWT token for a user
func (s *Service) GenerateToken(user *model.User) (string, error) {
	expirationTime := time.Now().Add(s.cfg.JWTExpiration)

	claims := &Claims{
		Username:    user.Username,
		AvatarColor: user.AvatarColor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "boardhive",
			Subject:   user.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns its claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractTokenFromRequest extracts a JWT token from an HTTP request: the
// Authorization bearer header first, then the token query parameter for
// callers that cannot set headers.
func (s *Service) ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer "), nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", apperrors.ErrUnauthenticated
}

// UserFromRequest resolves the authenticated user from a request token
func (s *Service) UserFromRequest(r *http.Request) (*model.User, error) {
	tokenString, err := s.ExtractTokenFromRequest(r)
	if err != nil {
		return nil, err
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &model.User{
		Username:    claims.Username,
		AvatarColor: claims.AvatarColor,
	}, nil
}
