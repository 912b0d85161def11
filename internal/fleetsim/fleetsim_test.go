package fleetsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/railops/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer, err := newTokenIssuer(testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	access, expiresAt, err := issuer.mintAccess("u1", "asha@railops.in", "s1")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := issuer.verify(access)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.Type)
	assert.Equal(t, "asha@railops.in", claims.Email)
	assert.Equal(t, "s1", claims.SID)
	assert.Equal(t, "u1", claims.Subject)

	refresh, refreshExpiry, err := issuer.mintRefresh("u1", "asha@railops.in", "s1")
	require.NoError(t, err)
	assert.True(t, refreshExpiry.After(expiresAt), "refresh outlives access")

	refreshClaims, err := issuer.verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.Type)
}

func TestTokenIssuerRejectsTampering(t *testing.T) {
	issuer, err := newTokenIssuer(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	other, err := newTokenIssuer("ffffffffffffffffffffffffffffffff", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	token, _, err := issuer.mintAccess("u1", "asha@railops.in", "s1")
	require.NoError(t, err)

	_, err = other.verify(token)
	assert.Error(t, err, "a token signed with a different secret must not verify")

	_, err = issuer.verify(token + "x")
	assert.Error(t, err)
}

func TestTokenIssuerRejectsShortSecret(t *testing.T) {
	_, err := newTokenIssuer("too-short", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestTokenIssuerGeneratesSecretWhenEmpty(t *testing.T) {
	issuer, err := newTokenIssuer("", time.Minute, time.Hour)
	require.NoError(t, err)

	token, _, err := issuer.mintAccess("u1", "asha@railops.in", "s1")
	require.NoError(t, err)
	_, err = issuer.verify(token)
	assert.NoError(t, err)
}

func TestRegistryEvictsOldestLoginOverCap(t *testing.T) {
	registry := newSessionRegistry(2)
	expiry := time.Now().Add(time.Hour)

	first := registry.create("u1", "cli", "127.0.0.1", expiry)
	second := registry.create("u1", "cli", "127.0.0.1", expiry)
	third := registry.create("u1", "cli", "127.0.0.1", expiry)

	_, ok := registry.get(first.ID)
	assert.False(t, ok, "oldest login is evicted")
	_, ok = registry.get(second.ID)
	assert.True(t, ok)
	_, ok = registry.get(third.ID)
	assert.True(t, ok)
	assert.Equal(t, 2, registry.countForUser("u1"))
}

func TestRegistryCapIsPerUser(t *testing.T) {
	registry := newSessionRegistry(1)
	expiry := time.Now().Add(time.Hour)

	a := registry.create("u1", "cli", "127.0.0.1", expiry)
	b := registry.create("u2", "cli", "127.0.0.1", expiry)

	_, ok := registry.get(a.ID)
	assert.True(t, ok, "another user's login must not evict mine")
	_, ok = registry.get(b.ID)
	assert.True(t, ok)
}

func TestRegistryDropsExpiredSessions(t *testing.T) {
	registry := newSessionRegistry(5)

	expired := registry.create("u1", "cli", "127.0.0.1", time.Now().Add(-time.Second))
	_, ok := registry.get(expired.ID)
	assert.False(t, ok)
	assert.Empty(t, registry.listForUser("u1"))
}

func TestRegistryTerminate(t *testing.T) {
	registry := newSessionRegistry(5)
	s := registry.create("u1", "cli", "127.0.0.1", time.Now().Add(time.Hour))

	assert.True(t, registry.terminate(s.ID))
	assert.False(t, registry.terminate(s.ID), "second terminate is a no-op")
	_, ok := registry.get(s.ID)
	assert.False(t, ok)
}

func TestStoreSeedsAccountsAndFleet(t *testing.T) {
	st, err := newStore()
	require.NoError(t, err)

	user, err := st.authenticate("asha@railops.in", "depot-wheels-42")
	require.NoError(t, err)
	assert.Equal(t, "Asha Nair", user.Profile.Name)

	// Email lookup is case-insensitive.
	_, err = st.authenticate("ASHA@railops.in", "depot-wheels-42")
	assert.NoError(t, err)

	_, err = st.authenticate("asha@railops.in", "wrong")
	assert.ErrorIs(t, err, errInvalidCredentials)

	assert.Len(t, st.listTrainsets(""), 4)
	assert.Len(t, st.listTrainsets(models.TrainsetMaintenance), 1)
	assert.Len(t, st.listComponents(""), 12)

	snap := st.kpis()
	assert.Equal(t, 4, snap.FleetSize)
	assert.Equal(t, 1, snap.OpenComponentFaults)
}

func TestStoreMileageRollsUpToTrainset(t *testing.T) {
	st, err := newStore()
	require.NoError(t, err)

	trainsets := st.listTrainsets("")
	require.NotEmpty(t, trainsets)
	target := trainsets[0]

	_, err = st.createMileage(models.MileageLog{
		TrainsetID: target.ID,
		LogDate:    time.Now(),
		DistanceKM: 120,
	})
	require.NoError(t, err)

	after, err := st.trainset(target.ID)
	require.NoError(t, err)
	assert.InDelta(t, target.CurrentMileageKM+120, after.CurrentMileageKM, 0.001)

	_, err = st.createMileage(models.MileageLog{TrainsetID: "missing", DistanceKM: 10})
	assert.ErrorIs(t, err, errNotFound)
}

func TestStoreMileageCorrectionMovesOdometerByDelta(t *testing.T) {
	st, err := newStore()
	require.NoError(t, err)

	trainsets := st.listTrainsets("")
	require.NotEmpty(t, trainsets)
	target := trainsets[0]

	log, err := st.createMileage(models.MileageLog{
		TrainsetID: target.ID,
		LogDate:    time.Now(),
		DistanceKM: 100,
	})
	require.NoError(t, err)

	_, err = st.updateMileage(log.ID, func(m *models.MileageLog) {
		m.DistanceKM = 160
	})
	require.NoError(t, err)

	after, err := st.trainset(target.ID)
	require.NoError(t, err)
	assert.InDelta(t, target.CurrentMileageKM+160, after.CurrentMileageKM, 0.001)

	require.NoError(t, st.deleteMileage(log.ID))
	reverted, err := st.trainset(target.ID)
	require.NoError(t, err)
	assert.InDelta(t, target.CurrentMileageKM, reverted.CurrentMileageKM, 0.001)

	_, err = st.mileageLog(log.ID)
	assert.ErrorIs(t, err, errNotFound)
	assert.ErrorIs(t, st.deleteMileage(log.ID), errNotFound)
}

func TestStoreMileageDateRangeFilter(t *testing.T) {
	st, err := newStore()
	require.NoError(t, err)

	trainsets := st.listTrainsets("")
	require.NotEmpty(t, trainsets)
	target := trainsets[0]

	// Seeds sit at one and two days back; the fresh entry is the only one
	// inside the last hour.
	log, err := st.createMileage(models.MileageLog{
		TrainsetID: target.ID,
		LogDate:    time.Now(),
		DistanceKM: 42,
	})
	require.NoError(t, err)

	recent := st.listMileage(target.ID, time.Now().Add(-time.Hour), time.Time{})
	require.Len(t, recent, 1)
	assert.Equal(t, log.ID, recent[0].ID)

	older := st.listMileage(target.ID, time.Time{}, time.Now().Add(-time.Hour))
	require.Len(t, older, 2)
	for _, entry := range older {
		assert.NotEqual(t, log.ID, entry.ID)
	}

	all := st.listMileage(target.ID, time.Time{}, time.Time{})
	assert.Len(t, all, 3)
}

func TestStoreDeleteTrainsetCascadesComponents(t *testing.T) {
	st, err := newStore()
	require.NoError(t, err)

	trainsets := st.listTrainsets("")
	require.NotEmpty(t, trainsets)
	target := trainsets[0]
	require.NotEmpty(t, st.listComponents(target.ID))

	require.NoError(t, st.deleteTrainset(target.ID))
	assert.Empty(t, st.listComponents(target.ID))
}
