package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/clinicops/clinic-crm/pkg/logging"
)

// Store persists accounts in Redis: one JSON document per account plus
// username and channel indexes pointing back at the clinic id.
type Store struct {
	redis  *redis.Client
	logger *logging.Logger
}

// NewStore creates an account store.
func NewStore(redisClient *redis.Client, logger *logging.Logger) *Store {
	if redisClient == nil {
		panic("clinic: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{redis: redisClient, logger: logger}
}

func accountKey(clinicID string) string {
	return fmt.Sprintf("clinic:account:%s", clinicID)
}

func usernameKey(username string) string {
	return fmt.Sprintf("clinic:username:%s", strings.ToLower(username))
}

func channelKey(number string) string {
	return fmt.Sprintf("clinic:channel:%s", number)
}

// GetByID fetches one account.
func (s *Store) GetByID(ctx context.Context, clinicID string) (*Account, error) {
	data, err := s.redis.Get(ctx, accountKey(clinicID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get account: %w", err)
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("clinic: decode account: %w", err)
	}
	return &acct, nil
}

// GetByUsername resolves the username index and fetches the account.
func (s *Store) GetByUsername(ctx context.Context, username string) (*Account, error) {
	clinicID, err := s.redis.Get(ctx, usernameKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: resolve username: %w", err)
	}
	return s.GetByID(ctx, clinicID)
}

// GetByChannel resolves a WhatsApp number to the owning account. Used by the
// chatbot ingestion path when an event carries no tenant key.
func (s *Store) GetByChannel(ctx context.Context, number string) (*Account, error) {
	clinicID, err := s.redis.Get(ctx, channelKey(number)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: resolve channel: %w", err)
	}
	return s.GetByID(ctx, clinicID)
}

// Create writes a new account and its indexes, rejecting duplicates.
func (s *Store) Create(ctx context.Context, acct Account) error {
	if err := acct.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("clinic: encode account: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, accountKey(acct.ClinicID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("clinic: create account: %w", err)
	}
	if !ok {
		return ErrDuplicateAccount
	}

	ok, err = s.redis.SetNX(ctx, usernameKey(acct.Username), acct.ClinicID, 0).Result()
	if err != nil {
		return fmt.Errorf("clinic: index username: %w", err)
	}
	if !ok {
		// Roll back the account document so the username owner keeps it.
		s.redis.Del(ctx, accountKey(acct.ClinicID))
		return ErrDuplicateAccount
	}

	if acct.WhatsAppNumber != "" {
		if err := s.redis.Set(ctx, channelKey(acct.WhatsAppNumber), acct.ClinicID, 0).Err(); err != nil {
			return fmt.Errorf("clinic: index channel: %w", err)
		}
	}
	return nil
}

// Authenticate compares the submitted credentials against the stored account.
// Plaintext comparison, matching how the accounts are provisioned.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	acct, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if acct.Password != password {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// DisplayName returns the account's display name, implementing the resolver
// the dual-write coordinator stamps clinic_name with.
func (s *Store) DisplayName(ctx context.Context, clinicID string) (string, error) {
	acct, err := s.GetByID(ctx, clinicID)
	if err != nil {
		return "", err
	}
	return acct.Name, nil
}

// EnsureSeed creates the configured bootstrap account if it does not already
// exist. Safe to call on every startup.
func (s *Store) EnsureSeed(ctx context.Context, acct Account) error {
	if acct.ClinicID == "" {
		return nil
	}
	err := s.Create(ctx, acct)
	if errors.Is(err, ErrDuplicateAccount) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clinic: seed account: %w", err)
	}
	s.logger.Info("seed clinic account created", "clinic_id", acct.ClinicID, "username", acct.Username)
	return nil
}
