package scrubber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datamesh/internal/entity"
	id "datamesh/pkg/domain"
	dErrors "datamesh/pkg/domain-errors"
)

const testSalt = "unit-test-salt"

func newScrubber(t *testing.T, opts ...Option) *Scrubber {
	t.Helper()
	s, err := New(testSalt, opts...)
	require.NoError(t, err)
	return s
}

func clientEntity() *entity.Entity {
	return &entity.Entity{
		ID:       "client-42",
		Type:     "Client",
		TenantID: "t-1",
		Source:   "crm.contacts",
		Properties: map[string]entity.Value{
			"name":       entity.String("Ann Lee"),
			"email":      entity.String("ann@x.com"),
			"balance":    entity.Number(500),
			"status":     entity.String("active"),
			"password":   entity.String("hunter2"),
			"auth_token": entity.String("tok-abc"),
		},
	}
}

func TestNew_RequiresSalt(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestScrubEntity_NeverMutatesInput(t *testing.T) {
	s := newScrubber(t)
	original := clientEntity()

	_, err := s.ScrubEntity(original, original.Type, id.ScrubbingStrict)
	require.NoError(t, err)

	assert.Equal(t, "client-42", original.ID)
	assert.Equal(t, id.TenantID("t-1"), original.TenantID)
	got, err := original.Properties["name"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", got)
}

func TestScrubEntity_Strict(t *testing.T) {
	s := newScrubber(t)
	in := clientEntity()

	out, err := s.ScrubEntity(in, in.Type, id.ScrubbingStrict)
	require.NoError(t, err)

	// classified PII is gone, non-PII survives
	assert.NotContains(t, out.Properties, "name")
	assert.NotContains(t, out.Properties, "email")
	assert.NotContains(t, out.Properties, "password")
	assert.NotContains(t, out.Properties, "auth_token")
	assert.Contains(t, out.Properties, "balance")
	assert.Contains(t, out.Properties, "status")

	// structural scrubbing
	assert.NotEqual(t, "client-42", out.ID)
	assert.NotContains(t, out.ID, "client-42")
	assert.True(t, out.TenantID.IsEmpty())

	// provenance metadata
	assert.Equal(t, "true", out.Metadata[MetaScrubbed])
	assert.Equal(t, "strict", out.Metadata[MetaScrubbingLevel])
	assert.Equal(t, "Client", out.Metadata[MetaEntityType])
	assert.Equal(t, PatternTableVersion, out.Metadata[MetaPatternVersion])
	assert.NotEmpty(t, out.Metadata[MetaScrubbedAt])
	assert.NotEmpty(t, out.Metadata[MetaOriginalTenantHash])
	assert.NotContains(t, out.Metadata[MetaOriginalTenantHash], "t-1")
}

func TestScrubEntity_Strict_GeneralizesDates(t *testing.T) {
	s := newScrubber(t)
	in := &entity.Entity{
		ID:   "e-1",
		Type: "Event",
		Properties: map[string]entity.Value{
			"signup_date": entity.String("2023-09-17"),
			"created_at":  entity.Time(time.Date(2023, 9, 17, 14, 30, 0, 0, time.UTC)),
		},
	}

	out, err := s.ScrubEntity(in, in.Type, id.ScrubbingStrict)
	require.NoError(t, err)

	for _, key := range []string{"signup_date", "created_at"} {
		got, err := out.Properties[key].AsTime()
		require.NoError(t, err, key)
		assert.Equal(t, 1, got.Day(), key)
		assert.Equal(t, time.September, got.Month(), key)
		assert.Equal(t, 2023, got.Year(), key)
	}
}

func TestScrubEntity_Moderate_Tokenizes(t *testing.T) {
	s := newScrubber(t)
	in := clientEntity()

	out, err := s.ScrubEntity(in, in.Type, id.ScrubbingModerate)
	require.NoError(t, err)

	// PII replaced with opaque tokens, not removed
	email, err := out.Properties["email"].AsString()
	require.NoError(t, err)
	assert.True(t, len(email) > 4 && email[:4] == "tok_", "expected token, got %q", email)
	assert.NotContains(t, email, "ann@x.com")

	// always-remove set is still deleted, not tokenized
	assert.NotContains(t, out.Properties, "password")
	assert.NotContains(t, out.Properties, "auth_token")

	// non-PII passes through
	balance, err := out.Properties["balance"].AsNumber()
	require.NoError(t, err)
	assert.Equal(t, float64(500), balance)
}

func TestScrubEntity_Minimal(t *testing.T) {
	s := newScrubber(t)
	in := clientEntity()

	out, err := s.ScrubEntity(in, in.Type, id.ScrubbingMinimal)
	require.NoError(t, err)

	// PII passes through at minimal
	name, err := out.Properties["name"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", name)

	// but the always-remove set never survives, at any level
	assert.NotContains(t, out.Properties, "password")
	assert.NotContains(t, out.Properties, "auth_token")

	// and the structural invariants hold regardless of level
	assert.NotEqual(t, "client-42", out.ID)
	assert.True(t, out.TenantID.IsEmpty())
}

func TestScrubEntity_AlwaysRemoveInvariance(t *testing.T) {
	for _, level := range []id.ScrubbingLevel{id.ScrubbingStrict, id.ScrubbingModerate, id.ScrubbingMinimal} {
		t.Run(level.String(), func(t *testing.T) {
			s := newScrubber(t)
			in := &entity.Entity{
				ID:   "e-1",
				Type: "Client",
				Properties: map[string]entity.Value{
					"ssn":     entity.String("123-45-6789"),
					"api_key": entity.String("ak_live_123"),
					"secret":  entity.String("shh"),
					"pw_hash": entity.String("bcrypt$..."),
					"balance": entity.Number(10),
				},
			}

			out, err := s.ScrubEntity(in, in.Type, level)
			require.NoError(t, err)
			assert.NotContains(t, out.Properties, "ssn")
			assert.NotContains(t, out.Properties, "api_key")
			assert.NotContains(t, out.Properties, "secret")
			assert.NotContains(t, out.Properties, "pw_hash")
			assert.Contains(t, out.Properties, "balance")
		})
	}
}

func TestScrubEntity_Deterministic(t *testing.T) {
	s := newScrubber(t)

	first, err := s.ScrubEntity(clientEntity(), "Client", id.ScrubbingModerate)
	require.NoError(t, err)
	second, err := s.ScrubEntity(clientEntity(), "Client", id.ScrubbingModerate)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "hashed id must be stable across runs")
	e1, _ := first.Properties["email"].AsString()
	e2, _ := second.Properties["email"].AsString()
	assert.Equal(t, e1, e2, "tokens must be stable across runs")

	// a different salt must produce different output
	other, err := New("other-salt")
	require.NoError(t, err)
	third, err := other.ScrubEntity(clientEntity(), "Client", id.ScrubbingModerate)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestScrubEntity_TenantSaltedIDs(t *testing.T) {
	s := newScrubber(t)

	a := clientEntity()
	b := clientEntity()
	b.TenantID = "t-2"

	outA, err := s.ScrubEntity(a, "Client", id.ScrubbingStrict)
	require.NoError(t, err)
	outB, err := s.ScrubEntity(b, "Client", id.ScrubbingStrict)
	require.NoError(t, err)

	assert.NotEqual(t, outA.ID, outB.ID, "same entity id under different tenants must hash differently")
}

func TestScrubEntity_NestedStructures(t *testing.T) {
	s := newScrubber(t)
	in := &entity.Entity{
		ID:   "e-1",
		Type: "Client",
		Properties: map[string]entity.Value{
			"contact": entity.Map(map[string]entity.Value{
				"email": entity.String("ann@x.com"),
				"city":  entity.String("Oslo"),
			}),
			"accounts": entity.List([]entity.Value{
				entity.Map(map[string]entity.Value{
					"account_number": entity.String("NO12 3456"),
					"currency":       entity.String("NOK"),
				}),
			}),
		},
	}

	out, err := s.ScrubEntity(in, in.Type, id.ScrubbingStrict)
	require.NoError(t, err)

	contact, err := out.Properties["contact"].AsMap()
	require.NoError(t, err)
	assert.NotContains(t, contact, "email")
	assert.Contains(t, contact, "city")

	accounts, err := out.Properties["accounts"].AsList()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	acct, err := accounts[0].AsMap()
	require.NoError(t, err)
	assert.NotContains(t, acct, "account_number")
	assert.Contains(t, acct, "currency")
}

func TestScrubEntity_PerFieldFailureIsolation(t *testing.T) {
	s := newScrubber(t)
	in := &entity.Entity{
		ID:   "e-1",
		Type: "Contract",
		Properties: map[string]entity.Value{
			// date-like key whose value cannot parse as a date: the field
			// is dropped, the entity survives
			"mandate_date": entity.String("not a date"),
			"status":       entity.String("signed"),
		},
	}

	out, err := s.ScrubEntity(in, in.Type, id.ScrubbingStrict)
	require.NoError(t, err)
	assert.NotContains(t, out.Properties, "mandate_date")
	assert.Contains(t, out.Properties, "status")
}

func TestScrubEntity_InvalidInput(t *testing.T) {
	s := newScrubber(t)

	_, err := s.ScrubEntity(nil, "Client", id.ScrubbingStrict)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.ScrubEntity(&entity.Entity{ID: "e-1"}, "", id.ScrubbingStrict)
	require.Error(t, err)
}

func TestScrubEntity_UnknownLevelDegradesToStrict(t *testing.T) {
	s := newScrubber(t)

	out, err := s.ScrubEntity(clientEntity(), "Client", id.ScrubbingLevel("bogus"))
	require.NoError(t, err)
	assert.Equal(t, "strict", out.Metadata[MetaScrubbingLevel])
	assert.NotContains(t, out.Properties, "name")
}

func TestScrubEntity_MetadataScrubbed(t *testing.T) {
	s := newScrubber(t)
	in := clientEntity()
	in.Metadata = map[string]string{
		"domain":      "Sales",
		"owner_email": "ops@x.com",
		"sync_token":  "abc",
	}

	out, err := s.ScrubEntity(in, in.Type, id.ScrubbingStrict)
	require.NoError(t, err)
	assert.Equal(t, "Sales", out.Metadata["domain"])
	assert.NotContains(t, out.Metadata, "owner_email")
	assert.NotContains(t, out.Metadata, "sync_token")
}

func TestScrubbedAtUsesClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newScrubber(t, WithClock(func() time.Time { return fixed }))

	out, err := s.ScrubEntity(clientEntity(), "Client", id.ScrubbingMinimal)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00Z", out.Metadata[MetaScrubbedAt])
}
