package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want string
	}{
		{0, "Bronze"},
		{499, "Bronze"},
		{500, "Silver"},
		{1499, "Silver"},
		{1500, "Gold"},
		{3999, "Gold"},
		{4000, "Platinum"},
		{9999, "Platinum"},
		{10000, "Diamond"},
		{123456, "Diamond"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RankForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestComputeProfileDelta(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())

	t.Run("win applies xp, rank and badges", func(t *testing.T) {
		u := store.user(1)
		u.XP = 470
		u.MatchesPlayed = 9
		u.MatchesWon = 0
		require.NoError(t, store.SaveUser(u))

		delta, err := engine.computeProfileDelta(1, PlayerResult{
			Score:         30,
			Won:           true,
			Perfect:       true,
			QuestionCount: 3,
		})
		require.NoError(t, err)

		assert.Equal(t, 500, delta.user.XP)
		assert.Equal(t, "Silver", delta.user.Rank)
		assert.Equal(t, 10, delta.user.MatchesPlayed)
		assert.Equal(t, 1, delta.user.MatchesWon)
		assert.ElementsMatch(t,
			[]string{"first-match", "veteran", "first-win", "perfect-round"},
			delta.newBadges)
	})

	t.Run("held badges are not re-awarded", func(t *testing.T) {
		u := store.user(2)
		u.MatchesPlayed = 3
		u.AddBadge("first-match")
		require.NoError(t, store.SaveUser(u))

		delta, err := engine.computeProfileDelta(2, PlayerResult{Score: 0, QuestionCount: 3})
		require.NoError(t, err)
		assert.Empty(t, delta.newBadges)
		assert.True(t, delta.user.HasBadge("first-match"))
	})

	t.Run("xp collector at the threshold", func(t *testing.T) {
		store.addUser(7, "grinder")
		u := store.user(7)
		u.XP = 990
		u.MatchesPlayed = 20
		u.AddBadge("first-match")
		u.AddBadge("veteran")
		require.NoError(t, store.SaveUser(u))

		delta, err := engine.computeProfileDelta(7, PlayerResult{Score: 10, QuestionCount: 3})
		require.NoError(t, err)
		assert.Equal(t, 1000, delta.user.XP)
		assert.Contains(t, delta.newBadges, "xp-collector")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := engine.computeProfileDelta(99, PlayerResult{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
