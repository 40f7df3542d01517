package gallery

import (
	"context"
	"testing"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileIsFetchedOncePerSession(t *testing.T) {
	tc := newTestController(t)
	tc.client.profiles["aluna@minasbahia.org"] = &models.Profile{
		Email:       "aluna@minasbahia.org",
		Name:        "Aluna",
		AccessLevel: models.LevelGraduate,
		Editor:      true,
	}

	first, err := tc.Profile(context.Background(), " Aluna@MinasBahia.org ")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.LevelGraduate, first.AccessLevel)

	second, err := tc.Profile(context.Background(), "aluna@minasbahia.org")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, tc.client.profileCalls)
}

func TestUnknownProfileIsVisitor(t *testing.T) {
	tc := newTestController(t)

	profile, err := tc.Profile(context.Background(), "ninguem@example.com")
	require.NoError(t, err)
	assert.Nil(t, profile)

	profile, err = tc.Profile(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, profile)
	assert.Equal(t, 1, tc.client.profileCalls)
}

func TestProfileBackendError(t *testing.T) {
	tc := newTestController(t)
	tc.client.profileErr = errBackendDown

	_, err := tc.Profile(context.Background(), "aluna@minasbahia.org")
	assert.ErrorIs(t, err, errBackendDown)
}
