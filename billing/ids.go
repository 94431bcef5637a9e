package billing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ID prefixes, one per record kind.
const (
	PrefixReservation    = "res"
	PrefixCompany        = "comp"
	PrefixCompanyPayment = "cp"
	PrefixRoom           = "room"
	PrefixGuest          = "guest"
	PrefixUser           = "user"
	PrefixAudit          = "log"
	PrefixConsumption    = "cons"
)

// IDGenerator hands out identifiers that are unique for the life of the
// process.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator produces prefixed random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// SequenceGenerator produces prefixed monotonic ids (res_1, res_2, ...).
// Deterministic, for tests and demo data.
type SequenceGenerator struct {
	mu   sync.Mutex
	next map[string]int
}

func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{next: make(map[string]int)}
}

func (g *SequenceGenerator) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next[prefix]++
	return fmt.Sprintf("%s_%d", prefix, g.next[prefix])
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
