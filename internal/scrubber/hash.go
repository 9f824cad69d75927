package scrubber

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	id "datamesh/pkg/domain"
)

// hasher produces the deterministic, non-invertible transforms the
// pipeline relies on: repeated contributions of the same record must yield
// the same hashed id and tokens (joinable in the data network), while
// nobody without the salt can reverse or reproduce them.
type hasher struct {
	salt string
}

// HashEntityID replaces an entity id with a one-way hash, salted by the
// pipeline salt and, when present, the owning tenant.
func (h hasher) HashEntityID(entityID string, tenantID id.TenantID) string {
	sum := sha256.Sum256([]byte(h.salt + "|" + tenantID.String() + "|" + entityID))
	return hex.EncodeToString(sum[:])
}

// HashTenant hashes a tenant id for provenance metadata. The clear tenant
// id never reaches the data network; this hash is the only trace.
func (h hasher) HashTenant(tenantID id.TenantID) string {
	if tenantID.IsEmpty() {
		return ""
	}
	sum := sha256.Sum256([]byte(h.salt + "|tenant|" + tenantID.String()))
	return hex.EncodeToString(sum[:])
}

// Tokenize maps a plaintext property value to an opaque token via keyed
// BLAKE2b. Same (value, salt) pair, same token; without the salt the token
// is not invertible and cannot be recomputed from the plaintext.
func (h hasher) Tokenize(plaintext string) (string, error) {
	key := sha256.Sum256([]byte(h.salt))
	mac, err := blake2b.New256(key[:])
	if err != nil {
		return "", fmt.Errorf("init tokenizer: %w", err)
	}
	mac.Write([]byte(plaintext))
	return "tok_" + hex.EncodeToString(mac.Sum(nil)), nil
}
