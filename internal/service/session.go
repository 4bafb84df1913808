package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/repository"
)

var ErrUnauthenticated = errors.New("authentication required")

// SessionService turns auth-provider tokens into sessions. The admin role is
// looked up once per user and cached in Redis until logout or TTL.
type SessionService struct {
	roleRepo    repository.RoleRepository
	redisClient *redis.Client
	jwtSecret   []byte
	roleTTL     time.Duration
}

func NewSessionService(roleRepo repository.RoleRepository, redisClient *redis.Client, jwtSecret string, roleTTL time.Duration) *SessionService {
	return &SessionService{roleRepo: roleRepo, redisClient: redisClient, jwtSecret: []byte(jwtSecret), roleTTL: roleTTL}
}

func roleKey(userID uuid.UUID) string { return "session:role:" + userID.String() }

func (s *SessionService) Resolve(ctx context.Context, token string) (*model.Session, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	session := &model.Session{UserID: userID}
	session.Email, _ = claims["email"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}

	session.Role, err = s.role(ctx, userID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) role(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, roleKey(userID)).Result(); err == nil {
			return cached, nil
		}
	}

	role, err := s.roleRepo.GetRole(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	if role == "" {
		role = model.RoleCustomer
	}

	if s.redisClient != nil {
		s.redisClient.Set(ctx, roleKey(userID), role, s.roleTTL)
	}
	return role, nil
}

// Logout drops the cached role so the next request re-reads it.
func (s *SessionService) Logout(ctx context.Context, session *model.Session) error {
	if session == nil {
		return ErrUnauthenticated
	}
	if s.redisClient == nil {
		return nil
	}
	if err := s.redisClient.Del(ctx, roleKey(session.UserID)).Err(); err != nil {
		return fmt.Errorf("invalidate role: %w", err)
	}
	return nil
}
