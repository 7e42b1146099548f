package arena

import (
	"time"

	"quizduel/backend/internal/models"
)

// RankThreshold maps a lifetime XP floor to a rank label. The table is
// ordered ascending and scanned for the highest satisfied threshold.
type RankThreshold struct {
	XP   int
	Name string
}

// RankThresholds is the fixed rank ladder.
var RankThresholds = []RankThreshold{
	{0, "Bronze"},
	{500, "Silver"},
	{1500, "Gold"},
	{4000, "Platinum"},
	{10000, "Diamond"},
}

// RankForXP returns the rank label for a lifetime XP total.
func RankForXP(xp int) string {
	rank := RankThresholds[0].Name
	for _, t := range RankThresholds {
		if xp >= t.XP {
			rank = t.Name
		}
	}
	return rank
}

// BadgeTrigger awards a badge the first time its condition holds after a
// match. Conditions are pure functions of the updated profile and the
// player's result in this match.
type BadgeTrigger struct {
	ID    string
	Check func(u *models.User, res PlayerResult) bool
}

// PlayerResult is one player's outcome handed to badge checks.
type PlayerResult struct {
	Score         int
	Won           bool
	Perfect       bool // every question answered correctly
	QuestionCount int
}

// BadgeTriggers is the ordered badge table.
var BadgeTriggers = []BadgeTrigger{
	{"first-match", func(u *models.User, _ PlayerResult) bool { return u.MatchesPlayed >= 1 }},
	{"veteran", func(u *models.User, _ PlayerResult) bool { return u.MatchesPlayed >= 10 }},
	{"first-win", func(u *models.User, _ PlayerResult) bool { return u.MatchesWon >= 1 }},
	{"perfect-round", func(_ *models.User, res PlayerResult) bool { return res.Perfect }},
	{"xp-collector", func(u *models.User, _ PlayerResult) bool { return u.XP >= 1000 }},
}

// profileDelta is the computed, not-yet-persisted update for one player.
type profileDelta struct {
	user      *models.User
	newBadges []string
}

// finalize is the terminal transition: it computes the outcome, persists the
// match and both profiles, broadcasts the summary and tears the room down.
// Idempotent; only the first caller past the finalized flag proceeds.
func (e *Engine) finalize(room *Room, forfeiter *uint, reason string) {
	room.mu.Lock()
	if room.finalized {
		room.mu.Unlock()
		return
	}
	room.finalized = true
	room.State = models.MatchFinished
	room.questionGen++ // cancel any armed question deadline
	for uid := range room.graceGens {
		room.graceGens[uid]++ // cancel any armed grace timer
	}

	var winner *PlayerState
	switch {
	case forfeiter != nil:
		if opp := room.opponent(*forfeiter); opp != nil {
			winner = opp
			winner.Score += ForfeitBonus
		}
	default:
		if len(room.Players) == 2 {
			a, b := room.Players[0], room.Players[1]
			if a.Score > b.Score {
				winner = a
			} else if b.Score > a.Score {
				winner = b
			}
			// Equal scores are an explicit draw: no winner, no bonus.
			if winner == nil && reason == "finished" {
				reason = "draw"
			}
		}
	}

	var winnerID *uint
	if winner != nil {
		id := winner.UserID
		winnerID = &id
	}

	type playerSnapshot struct {
		userID    uint
		username  string
		score     int
		forfeited bool
		correct   int
		session   Session
	}
	players := make([]playerSnapshot, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, playerSnapshot{
			userID:    p.UserID,
			username:  p.Username,
			score:     p.Score,
			forfeited: forfeiter != nil && p.UserID == *forfeiter,
			correct:   p.Correct,
			session:   p.Session,
		})
	}
	leaderboard := room.scoreboard()
	finalScores := room.scores()
	questionCount := room.QuestionCount
	matchID := room.MatchID

	// Id and code must stop resolving before anything slow happens.
	e.registry.Remove(matchID)
	room.mu.Unlock()

	finishedAt := time.Now()
	persistFailed := false

	if err := e.persistOutcome(matchID, winnerID, reason, finishedAt, finalScores, forfeiter); err != nil {
		persistFailed = true
		e.logger.Error("failed to persist match outcome", "match_id", matchID, "error", err)
	}

	// Two phases: compute every player's delta first, then persist them all,
	// collecting failures individually. A failure on one player is never
	// rolled back onto another; the inconsistency window is observable in
	// the log instead of silent.
	deltas := make(map[uint]*profileDelta, len(players))
	for _, p := range players {
		res := PlayerResult{
			Score:         p.score,
			Won:           winnerID != nil && *winnerID == p.userID,
			Perfect:       questionCount > 0 && p.correct == questionCount,
			QuestionCount: questionCount,
		}
		delta, err := e.computeProfileDelta(p.userID, res)
		if err != nil {
			persistFailed = true
			e.logger.Error("failed to load profile for finalize",
				"match_id", matchID, "user_id", p.userID, "error", err)
			continue
		}
		deltas[p.userID] = delta
	}
	for userID, delta := range deltas {
		if err := e.store.SaveUser(delta.user); err != nil {
			persistFailed = true
			e.logger.Error("failed to persist profile update",
				"match_id", matchID, "user_id", userID, "error", err)
		} else if len(delta.newBadges) > 0 {
			e.logger.Info("badges awarded",
				"match_id", matchID, "user_id", userID, "badges", delta.newBadges)
		}
	}

	ended := &MatchEndedPayload{
		WinnerID:    winnerID,
		FinalScores: finalScores,
		Leaderboard: leaderboard,
		Reason:      reason,
	}
	for _, p := range players {
		if p.session == nil {
			continue
		}
		if persistFailed {
			p.session.Send(EventError, &Error{
				Code:    CodePersistenceFailed,
				Message: "match finished but results may not have been fully saved",
			})
		}
		p.session.Send(EventMatchEnded, ended)
	}

	e.logger.Info("match finalized",
		"match_id", matchID,
		"reason", reason,
		"winner_id", winnerID,
		"scores", finalScores)
}

// persistOutcome writes the finished match row with scores and timestamps.
func (e *Engine) persistOutcome(matchID string, winnerID *uint, reason string, finishedAt time.Time, scores map[uint]int, forfeiter *uint) error {
	match, err := e.store.Match(matchID)
	if err != nil {
		return err
	}
	match.State = models.MatchFinished
	match.WinnerID = winnerID
	match.Reason = reason
	match.FinishedAt = &finishedAt
	if match.StartedAt == nil {
		match.StartedAt = &match.CreatedAt
	}
	for i := range match.Players {
		p := &match.Players[i]
		if score, ok := scores[p.UserID]; ok {
			p.Score = score
		}
		if forfeiter != nil && p.UserID == *forfeiter {
			p.Forfeited = true
		}
	}
	return e.store.SaveMatch(match)
}

// computeProfileDelta loads a profile and applies this match's score to
// lifetime and weekly XP, recomputes the rank and evaluates badge triggers.
// Nothing is persisted here.
func (e *Engine) computeProfileDelta(userID uint, res PlayerResult) (*profileDelta, error) {
	user, err := e.store.User(userID)
	if err != nil {
		return nil, err
	}

	user.XP += res.Score
	user.WeeklyXP += res.Score
	user.Rank = RankForXP(user.XP)
	user.MatchesPlayed++
	if res.Won {
		user.MatchesWon++
	}

	var awarded []string
	for _, trigger := range BadgeTriggers {
		if user.HasBadge(trigger.ID) {
			continue
		}
		if trigger.Check(user, res) {
			user.AddBadge(trigger.ID)
			awarded = append(awarded, trigger.ID)
		}
	}

	return &profileDelta{user: user, newBadges: awarded}, nil
}
