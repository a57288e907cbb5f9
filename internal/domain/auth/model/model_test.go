package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRefreshToken_Usable(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	revoked := now.Add(-time.Minute)

	cases := []struct {
		name string
		tok  RefreshToken
		want bool
	}{
		{"fresh", RefreshToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", RefreshToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", RefreshToken{ExpiresAt: now}, false},
		{"revoked", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.tok.Usable(now))
		})
	}
}

func TestAccount_PublicOmitsHash(t *testing.T) {
	a := Account{UUID: uuid.New(), LoginID: "u1", Email: "u1@x.com", Nickname: "Nick", PasswordHash: "secret"}
	p := a.Public()
	require.Equal(t, PublicAccount{UUID: a.UUID, ID: "u1", Email: "u1@x.com", Nickname: "Nick"}, p)
}

func TestSubscriptionKey_Valid(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	window := SubscriptionKey{ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(time.Hour)}

	active := window
	active.Status = KeyActive
	require.True(t, active.Valid(now))
	require.True(t, active.Valid(active.ValidFrom))
	require.False(t, active.Valid(active.ValidUntil))
	require.False(t, active.Valid(now.Add(-2*time.Hour)))

	for _, st := range []SubscriptionKeyStatus{KeyExpired, KeyRevoked} {
		k := window
		k.Status = st
		require.False(t, k.Valid(now), st)
	}
}
