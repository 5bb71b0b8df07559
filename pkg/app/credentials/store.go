package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smartcache/smartcache/pkg/infra/cache"
)

var ErrEmptyUserID = errors.New("user_id is required")

// Credentials point at a tenant's own redis.
type Credentials struct {
	UserID   string
	Host     string
	Port     int
	Password string
}

type Store interface {
	Save(ctx context.Context, creds Credentials) error
}

type store struct {
	cache  cache.Client
	logger *logrus.Logger
}

func NewStore(c cache.Client, logger *logrus.Logger) Store {
	return &store{
		cache:  c,
		logger: logger,
	}
}

func Key(userID string) string {
	return fmt.Sprintf(cache.CredentialsKeyPattern, userID)
}

func (s *store) Save(ctx context.Context, creds Credentials) error {
	if strings.TrimSpace(creds.UserID) == "" {
		return ErrEmptyUserID
	}
	key := Key(creds.UserID)
	if err := s.cache.HSet(ctx, key,
		"host", creds.Host,
		"port", creds.Port,
		"password", creds.Password,
	); err != nil {
		s.logger.WithError(err).WithField("user_id", creds.UserID).Error("failed to store redis credentials")
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id": creds.UserID,
		"host":    creds.Host,
		"port":    creds.Port,
	}).Info("redis credentials stored")
	return nil
}
