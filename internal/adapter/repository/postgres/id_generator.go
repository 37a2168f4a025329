package postgres

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// ReferencePrefix marks references minted by this service.
const ReferencePrefix = "WS_"

// ReferenceGenerator issues transaction references of the form WS_<ULID>.
// References sort by creation time and stay strictly increasing within a millisecond.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewReferenceGenerator creates a new ReferenceGenerator.
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Generate returns a new reference.
func (g *ReferenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ReferencePrefix + ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

const (
	walletNumberMin   = 1_000_000_000
	walletNumberRange = 9_000_000_000
)

// WalletNumberGenerator draws random 10-digit wallet numbers without a leading zero.
type WalletNumberGenerator struct{}

// NewWalletNumberGenerator creates a new WalletNumberGenerator.
func NewWalletNumberGenerator() *WalletNumberGenerator {
	return &WalletNumberGenerator{}
}

// Generate returns a candidate wallet number. Uniqueness is enforced by storage.
func (g *WalletNumberGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(walletNumberRange))
	if err != nil {
		return "", fmt.Errorf("generate wallet number: %w", err)
	}

	return fmt.Sprintf("%d", n.Int64()+walletNumberMin), nil
}
