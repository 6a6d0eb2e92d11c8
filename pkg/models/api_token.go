package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIToken is a bearer token that authenticates API requests as a user.
type APIToken struct {
	// ID is the unique token identifier (UUID).
	ID uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// TokenHash is the SHA-256 hash of the token. The plaintext is never stored.
	TokenHash string `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`

	// UserID is the user the token authenticates as.
	UserID uint  `gorm:"not null;index" json:"userId"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	// ExpiresAt is when the token expires (nil = no expiration).
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	Revoked   bool       `gorm:"not null;default:false" json:"revoked"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// TableName specifies the table name.
func (APIToken) TableName() string {
	return "api_tokens"
}

// BeforeCreate generates the token ID if not set.
func (t *APIToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// GenerateToken creates a new random plaintext token with the format:
// archivist-<uuid>-<random-suffix>
func GenerateToken() (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("error generating random bytes: %w", err)
	}

	return fmt.Sprintf(
		"archivist-%s-%s", uuid.New().String(), hex.EncodeToString(randomBytes),
	), nil
}

// HashToken creates a SHA-256 hash of a token for storage.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Create stores the hash of the plaintext token.
func (t *APIToken) Create(db *gorm.DB, token string) error {
	if t.UserID == 0 {
		return fmt.Errorf("user ID is required")
	}
	t.TokenHash = HashToken(token)
	return db.Omit("User").Create(t).Error
}

// GetByToken retrieves a token and its user by the plaintext value.
func (t *APIToken) GetByToken(db *gorm.DB, token string) error {
	return db.
		Preload("User").
		First(t, "token_hash = ?", HashToken(token)).
		Error
}

// Revoke marks the token as revoked.
func (t *APIToken) Revoke(db *gorm.DB) error {
	now := time.Now()
	t.Revoked = true
	t.RevokedAt = &now
	return db.Model(t).Updates(map[string]any{
		"revoked":    true,
		"revoked_at": now,
	}).Error
}

// IsValid reports whether the token is neither expired nor revoked.
func (t *APIToken) IsValid() bool {
	if t.Revoked {
		return false
	}

	if t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt) {
		return false
	}

	return true
}

// IssueToken creates a token for the user and returns the plaintext, which is
// only available at creation time.
func IssueToken(db *gorm.DB, userID uint, ttl time.Duration) (string, *APIToken, error) {
	plaintext, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}

	tok := &APIToken{UserID: userID}
	if ttl > 0 {
		expires := time.Now().Add(ttl)
		tok.ExpiresAt = &expires
	}

	if err := tok.Create(db, plaintext); err != nil {
		return "", nil, fmt.Errorf("error creating token: %w", err)
	}

	return plaintext, tok, nil
}
