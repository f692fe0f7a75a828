// Package user manages back-office accounts: password login with lockout,
// bearer tokens and password reset.
package user

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
)

type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsSuperuser  bool
	LastLogin    *time.Time

	audit.Record
}

// Identity is the acting identity recorded on everything the user changes.
func (u *User) Identity() audit.Identity {
	return audit.Identity{UserID: u.ID, Superuser: u.IsSuperuser}
}

// Reset is a pending password reset. Only the SHA-256 of the token sent to
// the user is kept.
type Reset struct {
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	UsedAt    *time.Time
}

const minPasswordLength = 8

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "12345678": true, "123456789": true,
	"1234567890": true, "qwertyuiop": true, "azertyuiop": true, "iloveyou": true, "sunshine": true,
	"football": true, "baseball": true, "welcome1": true, "letmein1": true, "admin123": true,
	"motdepasse": true, "trustno1": true, "superman": true, "princess": true, "abc12345": true,
}

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return apperr.Invalidf("password", "must be at least %d characters", minPasswordLength)
	}

	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return apperr.Invalid("password", "must not be entirely numeric")
	}

	if commonPasswords[strings.ToLower(password)] {
		return apperr.Invalid("password", "is too common")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// newResetToken returns a random token and the hash stored for it.
func newResetToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating reset token: %w", err)
	}

	token = hex.EncodeToString(buf)

	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
