package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcturbo/internal/pkg/logx"
)

func init() {
	logx.Discard()
}

func solve(nonce string, difficulty int) string {
	prefix := strings.Repeat("0", difficulty)
	for i := 0; ; i++ {
		counter := strconv.Itoa(i)
		sum := sha256.Sum256([]byte(nonce + counter))
		if strings.HasPrefix(hex.EncodeToString(sum[:]), prefix) {
			return counter
		}
	}
}

func TestProofRoundTrip(t *testing.T) {
	m := NewPoWManager(2)
	defer m.Stop()
	require.True(t, m.Enabled())

	nonce := m.GenerateNonce()
	token, err := m.ValidateProof(nonce, solve(nonce, 2))
	require.NoError(t, err)

	_, err = m.ValidateProof(nonce, solve(nonce, 2))
	assert.Error(t, err, "nonce must be single-use")

	r := httptest.NewRequest("GET", "/ws?pow_token="+token, nil)
	assert.True(t, m.ConsumeProofToken(r))
	assert.False(t, m.ConsumeProofToken(r), "token must be single-use")
}

func TestProofRejectsWeakHash(t *testing.T) {
	m := NewPoWManager(64)
	defer m.Stop()

	nonce := m.GenerateNonce()
	_, err := m.ValidateProof(nonce, "0")
	assert.Error(t, err)

	_, err = m.ValidateProof("unknown", "0")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	m := NewPoWManager(0)
	defer m.Stop()
	assert.False(t, m.Enabled())

	var nilMgr *PoWManager
	assert.False(t, nilMgr.Enabled())
}
