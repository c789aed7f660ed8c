/*
Package pow implements the optional Proof-of-Work gate in front of the WebSocket upgrade.

A client fetches a nonce, searches for a counter whose SHA-256 of nonce+counter has the
required number of leading hex zeros, and exchanges the proof for a short-lived token
that it presents when opening its connection. Each token is single-use.
*/
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vcturbo/internal/pkg/logx"
)

const (
	// TokenHeaderKey is the HTTP header key used by the client to send the Proof Token.
	TokenHeaderKey = "X-PoW-Token"

	// ProofTokenDuration is the validity period for the Proof Token issued after successful PoW validation.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is the validity period for the challenge Nonce.
	NonceExpiryDuration = 5 * time.Minute
)

// PoWManager is responsible for managing the lifecycle of PoW challenges and Proof Tokens.
// It is concurrent-safe, using internal maps to store active nonces and tokens.
type PoWManager struct {
	// difficulty is the required number of leading zeros for the PoW challenge hash.
	difficulty int

	// nonceStore stores active nonces and their expiration times.
	nonceStore map[string]time.Time

	// tokenStore stores issued Proof Tokens and their expiration times.
	tokenStore map[string]time.Time

	// mu protects concurrent access to nonceStore and tokenStore.
	mu sync.RWMutex

	stop   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// NewPoWManager creates a PoWManager for the given difficulty and starts its cleanup goroutine.
// A difficulty of zero disables the gate.
func NewPoWManager(difficulty int) *PoWManager {
	mgr := &PoWManager{
		difficulty: difficulty,
		nonceStore: make(map[string]time.Time),
		tokenStore: make(map[string]time.Time),
		stop:       make(chan struct{}),
		logger:     logx.Component("pow"),
	}

	go mgr.cleanupExpiredEntries()

	return mgr
}

// Enabled reports whether a proof is required at all.
func (m *PoWManager) Enabled() bool {
	return m != nil && m.difficulty > 0
}

// Difficulty returns the number of leading hex zeros a proof must have.
func (m *PoWManager) Difficulty() int {
	return m.difficulty
}

// Stop terminates the cleanup goroutine.
func (m *PoWManager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

// GenerateNonce generates a unique Nonce string for the PoW challenge and stores it for validation.
// Returns the newly generated Nonce.
func (m *PoWManager) GenerateNonce() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce := uuid.New().String()
	m.nonceStore[nonce] = time.Now().Add(NonceExpiryDuration)
	return nonce
}

// ValidateProof validates the PoW proof provided by the client.
// It checks if the Nonce is valid and unexpired, and verifies if the SHA256 hash of the
// Nonce + Counter combination meets the difficulty requirement (number of leading zeros).
// If validation succeeds, it issues and returns a temporary Proof Token.
func (m *PoWManager) ValidateProof(nonce, counter string) (string, error) {
	m.mu.RLock()
	expiryTime, ok := m.nonceStore[nonce]
	m.mu.RUnlock()

	if !ok || time.Now().After(expiryTime) {
		return "", fmt.Errorf("nonce expired or invalid")
	}

	input := fmt.Sprintf("%s%s", nonce, counter)
	hash := sha256.Sum256([]byte(input))
	hashStr := hex.EncodeToString(hash[:])

	requiredPrefix := strings.Repeat("0", m.difficulty)
	if !strings.HasPrefix(hashStr, requiredPrefix) {
		return "", fmt.Errorf("proof does not meet difficulty requirement")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, stillExists := m.nonceStore[nonce]; !stillExists {
		return "", fmt.Errorf("nonce consumed by concurrent request")
	}

	delete(m.nonceStore, nonce)

	token := uuid.New().String()
	m.tokenStore[token] = time.Now().Add(ProofTokenDuration)
	return token, nil
}

// ConsumeProofToken checks whether the request carries a valid Proof Token and, if so,
// invalidates it. The token is read from the X-PoW-Token header or the pow_token query parameter.
func (m *PoWManager) ConsumeProofToken(r *http.Request) bool {
	token := r.Header.Get(TokenHeaderKey)
	if token == "" {
		token = r.URL.Query().Get("pow_token")
	}

	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiryTime, ok := m.tokenStore[token]
	if !ok {
		return false
	}
	delete(m.tokenStore, token)

	return time.Now().Before(expiryTime)
}

// cleanupExpiredEntries periodically drops expired nonces and tokens.
func (m *PoWManager) cleanupExpiredEntries() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			removed := 0

			for nonce, expiry := range m.nonceStore {
				if now.After(expiry) {
					delete(m.nonceStore, nonce)
					removed++
				}
			}

			for token, expiry := range m.tokenStore {
				if now.After(expiry) {
					delete(m.tokenStore, token)
					removed++
				}
			}
			m.mu.Unlock()

			m.logger.Debug().Int("removed", removed).Msg("PoW cleanup finished.")
		}
	}
}
