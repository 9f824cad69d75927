package scrubber

import "strings"

// PatternTableVersion identifies the classification tables below. It is
// recorded into scrub provenance so stored contributions can be re-audited
// against the classifier that produced them. Bump on any table change.
const PatternTableVersion = "2024-11"

// Category labels the kind of PII a property key was classified as.
type Category string

const (
	CategoryNone       Category = ""
	CategoryIdentifier Category = "identifier"
	CategoryContact    Category = "contact"
	CategoryPersonal   Category = "personal"
	CategoryFinancial  Category = "financial"
	CategoryDevice     Category = "device"
)

// Classification is inherently heuristic and schema-blind: it matches
// case-insensitive key names, never values or schemas. That is what keeps
// the pipeline domain-agnostic across arbitrary per-tenant ontologies.
// The tables are explicit constants so they can be audited and extended
// without touching control flow.
//
// Matching rules: a key is normalized (lowercased, "-", " " and "." become
// "_"), then a single-token pattern matches when any "_"-separated segment
// equals it, and a multi-token pattern ("date_of_birth") matches when the
// normalized key contains it.
var piiPatterns = map[Category][]string{
	CategoryIdentifier: {
		"ssn", "tax_id", "taxid", "passport", "license", "national_id",
	},
	CategoryContact: {
		"email", "phone", "mobile", "fax", "address", "postal_code", "postcode", "zip",
	},
	CategoryPersonal: {
		"name", "date_of_birth", "birth_date", "birthdate", "dob", "age",
	},
	CategoryFinancial: {
		"account_number", "account_no", "card_number", "card", "routing_number", "routing", "iban",
	},
	CategoryDevice: {
		"ip", "ip_address", "mac", "mac_address", "device_id", "imei",
	},
}

// alwaysRemovePatterns mark highly sensitive fields stripped at every
// scrubbing level, no exceptions. Disjoint in effect from piiPatterns:
// always-remove wins before any level-dependent handling.
var alwaysRemovePatterns = []string{
	"password", "secret", "api_key", "apikey", "access_token", "refresh_token",
	"private_key", "credential", "ssn",
}

// derivedSecretPatterns catch accidentally-included derived secrets
// (hashes, tokens, keys). Stripped at every level.
var derivedSecretPatterns = []string{
	"encrypted", "hash", "hashed", "token", "secret", "key", "salt",
}

func normalizeKey(key string) string {
	k := strings.ToLower(key)
	k = strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(k)
	return k
}

func matchesAny(normalized string, patterns []string) bool {
	segments := strings.Split(normalized, "_")
	for _, p := range patterns {
		if strings.Contains(p, "_") {
			if strings.Contains(normalized, p) {
				return true
			}
			continue
		}
		for _, seg := range segments {
			if seg == p {
				return true
			}
		}
	}
	return false
}

// isAlwaysRemove reports whether the key names a field stripped at every level.
func isAlwaysRemove(key string) bool {
	return matchesAny(normalizeKey(key), alwaysRemovePatterns)
}

// isDerivedSecret reports whether the key looks like a derived secret.
func isDerivedSecret(key string) bool {
	return matchesAny(normalizeKey(key), derivedSecretPatterns)
}

// classifyPII returns the PII category for a key, or CategoryNone.
func classifyPII(key string) Category {
	normalized := normalizeKey(key)
	for _, cat := range []Category{
		CategoryIdentifier, CategoryContact, CategoryPersonal, CategoryFinancial, CategoryDevice,
	} {
		if matchesAny(normalized, piiPatterns[cat]) {
			return cat
		}
	}
	return CategoryNone
}

// isDateLike reports whether the key names a date or timestamp field.
// Heuristic: contains "date" or "timestamp", or ends in "_at".
func isDateLike(key string) bool {
	normalized := normalizeKey(key)
	return strings.Contains(normalized, "date") ||
		strings.Contains(normalized, "timestamp") ||
		strings.HasSuffix(normalized, "_at")
}
