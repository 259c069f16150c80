package rediskeys

import (
	"fmt"

	"github.com/ddlabs/dd-mcp-service/pkg/crypto"
)

// IdentityCacheKey generates the Redis key under which the upstream user ID
// resolved for a bearer token is cached. The raw token is hashed so it never
// appears verbatim in Redis.
func IdentityCacheKey(rawToken string) string {
	return fmt.Sprintf("identity_cache:%s", crypto.Sha256Hex(rawToken))
}

// BiomarkerCategoriesKey is the fixed Redis key for the cached full biomarker
// category listing. The listing is tenant-independent on the upstream side, so
// a single key suffices.
func BiomarkerCategoriesKey() string {
	return "biomarker_categories"
}
