package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 32
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrRateLimited        = errors.New("too many login attempts, try again later")
)

// Auth reserves usernames behind a password and issues tokens for them
type Auth struct {
	db        *DB
	jwtSecret []byte
	log       *slog.Logger

	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates an Auth. An empty secret loads or generates one in the db.
func NewAuth(db *DB, secret string, log *slog.Logger) *Auth {
	key := []byte(secret)
	if secret == "" {
		key = loadOrCreateSecret(db, log)
	}
	return &Auth{
		db:        db,
		jwtSecret: key,
		log:       log,
		rateMap:   make(map[string]*rateEntry),
	}
}

func loadOrCreateSecret(db *DB, log *slog.Logger) []byte {
	if h := db.GetSetting("jwt_secret"); h != "" {
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
		log.Warn("could not persist jwt secret", "err", err)
	}
	return secret
}

// Register reserves username and returns a token for it
func (a *Auth) Register(username, password string) (string, error) {
	username = strings.TrimSpace(username)

	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	taken, err := a.db.UsernameReserved(username)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if taken {
		return "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	id, err := a.db.CreateAccount(username, string(hash))
	if err != nil {
		// lost a race with another registration
		if taken, _ := a.db.UsernameReserved(username); taken {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return a.generateToken(id, username)
}

// Login checks the password and returns a fresh token
func (a *Auth) Login(username, password, ip string) (string, error) {
	if !a.checkRate(ip) {
		return "", ErrRateLimited
	}

	acct, err := a.db.GetAccount(strings.TrimSpace(username))
	if err != nil {
		return "", fmt.Errorf("load account: %w", err)
	}
	if acct == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PassHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return a.generateToken(acct.ID, acct.Username)
}

// ValidateToken returns the username a token was issued for
func (a *Auth) ValidateToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	username, ok := claims["usr"].(string)
	if !ok || username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}

// Authorize checks whether a submission for username may proceed. Free
// usernames need nothing; reserved ones need a bearer token naming them.
func (a *Auth) Authorize(username, authHeader string) error {
	reserved, err := a.db.UsernameReserved(username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if !reserved {
		return nil
	}
	tok, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ErrInvalidToken
	}
	owner, err := a.ValidateToken(strings.TrimSpace(tok))
	if err != nil {
		return err
	}
	if owner != username {
		return ErrInvalidToken
	}
	return nil
}

func (a *Auth) generateToken(accountID int64, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"pid": accountID,
		"usr": username,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
