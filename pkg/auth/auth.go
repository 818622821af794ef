package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtAlgorithm = jwt.SigningMethodHS256

// passwordCost is the bcrypt work factor for admin passwords.
var passwordCost = 14

// ErrKeyRevoked is returned by TrackAPIKey for a key an admin has revoked.
var ErrKeyRevoked = errors.New("api key revoked")

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator signs admin tokens and API keys.
type Authenticator struct {
	jwtSecret []byte
	apiSecret []byte
	tokenTTL  time.Duration
}

// New creates an Authenticator from the configured secrets.
func New(cfg *config.Config) *Authenticator {
	if cfg.JWTSecret == "" || cfg.APIMasterSecret == "" {
		logger.Warn().Msg("JWT_SECRET or API_MASTER_SECRET is empty; tokens and keys are not secure")
	}
	return &Authenticator{
		jwtSecret: []byte(cfg.JWTSecret),
		apiSecret: []byte(cfg.APIMasterSecret),
		tokenTTL:  24 * time.Hour,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CreateToken creates a signed admin token for username.
func (a *Authenticator) CreateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateAPIKey creates a signed API key of the form <userID>.<hex HMAC-SHA256>.
func (a *Authenticator) GenerateAPIKey(userID string) string {
	return userID + "." + a.sign(userID)
}

// VerifyAPIKey validates an API key and returns the user it was issued to.
func (a *Authenticator) VerifyAPIKey(key string) (string, error) {
	dot := strings.LastIndex(key, ".")
	if dot <= 0 || dot == len(key)-1 {
		return "", errors.New("invalid key format")
	}
	userID, provided := key[:dot], key[dot+1:]

	// Constant-time comparison.
	if !hmac.Equal([]byte(provided), []byte(a.sign(userID))) {
		return "", errors.New("invalid signature")
	}
	return userID, nil
}

func (a *Authenticator) sign(userID string) string {
	h := hmac.New(sha256.New, a.apiSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

// KeyPreview shortens a key for display, e.g. "ali...9f3c".
func KeyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// TrackAPIKey fetches or creates the usage record for a verified key and
// stamps its last use. Keys are signatures, so a revoked key still
// verifies; its record is kept and ErrKeyRevoked is returned instead.
func TrackAPIKey(db *gorm.DB, key, userID string) (*database.APIKey, error) {
	var apiKey database.APIKey
	err := db.Where(database.APIKey{Key: key}).
		Attrs(database.APIKey{Name: userID, KeyPreview: KeyPreview(key), RateLimit: 10000}).
		FirstOrCreate(&apiKey).Error
	if err != nil {
		return nil, err
	}
	if apiKey.RevokedAt != nil {
		return &apiKey, ErrKeyRevoked
	}

	now := time.Now()
	apiKey.LastUsed = &now
	if err := db.Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// EnsureAdminExists creates the bootstrap admin when no admin exists yet.
func EnsureAdminExists(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	logger.Info().Str("username", username).Msg("default admin user created")
	return nil
}
