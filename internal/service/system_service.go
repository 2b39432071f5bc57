package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/nepseutils/stock-backoffice/internal/apperrors"
	"github.com/nepseutils/stock-backoffice/internal/database"
	"github.com/nepseutils/stock-backoffice/internal/repository"
	"github.com/nepseutils/stock-backoffice/internal/version"
)

// vendorTokenKey is the system_setting key holding the encrypted data-vendor
// API token used by the price-ingestion collaborator.
const vendorTokenKey = "vendor_api_token"

// SystemService handles system-related operations: health, version, and the
// encrypted data-vendor token setting.
type SystemService struct {
	db        *sql.DB
	fernetKey *fernet.Key
}

// NewSystemService creates a new SystemService. fernetKey may be empty, in
// which case the vendor-token operations report the key as unconfigured.
func NewSystemService(db *sql.DB, fernetKey string) (*SystemService, error) {
	s := &SystemService{db: db}

	if fernetKey != "" {
		key, err := fernet.DecodeKey(fernetKey)
		if err != nil {
			return nil, fmt.Errorf("invalid fernet key: %w", err)
		}
		s.fernetKey = key
	}

	return s, nil
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion returns the application version string.
func (s *SystemService) CheckVersion() string {
	return version.Version
}

// SetVendorToken encrypts and stores the data-vendor API token.
func (s *SystemService) SetVendorToken(token string) error {
	if s.fernetKey == nil {
		return apperrors.ErrEncryptionKeyNotSet
	}

	encrypted, err := fernet.EncryptAndSign([]byte(token), s.fernetKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt vendor token: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO system_setting (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, vendorTokenKey, string(encrypted))
	if err != nil {
		return fmt.Errorf("failed to store vendor token: %w", err)
	}

	return nil
}

// VendorToken decrypts and returns the stored data-vendor API token.
// Returns apperrors.ErrSettingNotFound when no token has been stored.
func (s *SystemService) VendorToken() (string, error) {
	if s.fernetKey == nil {
		return "", apperrors.ErrEncryptionKeyNotSet
	}

	var stored string
	err := s.db.QueryRow(
		`SELECT value FROM system_setting WHERE key = ?`, vendorTokenKey,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read vendor token: %w", err)
	}

	// TTL 0: the token does not expire; rotation happens by overwriting.
	token := fernet.VerifyAndDecrypt([]byte(stored), 0, []*fernet.Key{s.fernetKey})
	if token == nil {
		return "", fmt.Errorf("failed to decrypt vendor token")
	}

	return string(token), nil
}

// VendorTokenInfo reports whether a vendor token is stored, without exposing
// it, along with the time it was last rotated.
func (s *SystemService) VendorTokenInfo() (configured bool, updatedAt time.Time, err error) {
	var updatedAtStr string
	err = s.db.QueryRow(
		`SELECT updated_at FROM system_setting WHERE key = ?`, vendorTokenKey,
	).Scan(&updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to read vendor token info: %w", err)
	}

	updatedAt, err = repository.ParseTime(updatedAtStr)
	if err != nil {
		return false, time.Time{}, err
	}

	return true, updatedAt, nil
}
