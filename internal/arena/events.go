package arena

import "quizduel/backend/internal/models"

// Realtime event names, server to client.
const (
	EventUserJoinedSuccess     = "user-joined-success"
	EventError                 = "error"
	EventMatchCreated          = "match-created"
	EventMatchAvailable        = "match-available"
	EventMatchReady            = "match-ready"
	EventMatchJoined           = "match-joined"
	EventMatchRemovedFromLobby = "match-removed-from-lobby"
	EventStartBattle           = "start-battle"
	EventQuestionDisplay       = "question-display"
	EventAnswerValidated       = "answer-validated"
	EventOpponentAnswered      = "opponent-answered"
	EventQuestionTimeout       = "question-timeout"
	EventQuestionResults       = "question-results"
	EventOpponentFinishReady   = "opponent-finish-ready"
	EventOpponentDisconnected  = "opponent-disconnected"
	EventOpponentReconnected   = "opponent-reconnected"
	EventMatchStateRestored    = "match-state-restored"
	EventMatchEnded            = "match-ended"
	EventTimerSync             = "timer-sync"
)

// Session is one live client connection bound to a user. Send must never
// block; slow consumers are the transport's problem, not the engine's.
type Session interface {
	UserID() uint
	Username() string
	Send(event string, payload any)
}

// LobbyBroadcaster fans an event out to every connected client, used for
// match availability announcements outside any room.
type LobbyBroadcaster interface {
	BroadcastLobby(event string, payload any)
}

// QuestionPayload is the question-display event body.
type QuestionPayload struct {
	Index           int             `json:"index"`
	Text            string          `json:"text"`
	Options         []models.Option `json:"options"`
	CorrectOptionID string          `json:"correctOptionId"`
	TimeLimit       int             `json:"timeLimit"`
	Number          int             `json:"number"`
	Total           int             `json:"total"`
}

// AnswerView is one player's answer as shown in question-results.
type AnswerView struct {
	OptionID string `json:"optionId"`
	Correct  bool   `json:"correct"`
}

// ResultsPayload is the question-results event body.
type ResultsPayload struct {
	Index           int                 `json:"index"`
	CorrectOptionID string              `json:"correctOptionId"`
	PlayerAnswers   map[uint]AnswerView `json:"playerAnswers"`
	Scores          map[uint]int        `json:"scores"`
}

// ScoreEntry is one row of a match leaderboard.
type ScoreEntry struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// MatchEndedPayload is the terminal match-ended event body. WinnerID is null
// on a draw.
type MatchEndedPayload struct {
	WinnerID    *uint        `json:"winnerId"`
	FinalScores map[uint]int `json:"finalScores"`
	Leaderboard []ScoreEntry `json:"leaderboard"`
	Reason      string       `json:"reason"`
}

// PlayerStatusView is one player's live status in match-state-restored.
type PlayerStatusView struct {
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	Score        int    `json:"score"`
	Answered     bool   `json:"answered"`
	Disconnected bool   `json:"disconnected"`
	FinishReady  bool   `json:"finishReady"`
}

// StatePayload is the match-state-restored event body, replayed to a
// reconnecting client only.
type StatePayload struct {
	MatchID          string             `json:"matchId"`
	State            string             `json:"state"`
	Question         *QuestionPayload   `json:"question,omitempty"`
	RemainingSeconds float64            `json:"remainingSeconds"`
	Players          []PlayerStatusView `json:"players"`
}

// TimerSyncPayload is the timer-sync reply body.
type TimerSyncPayload struct {
	QuestionIndex    int     `json:"questionIndex"`
	RemainingSeconds float64 `json:"remainingSeconds"`
	Percentage       float64 `json:"percentage"`
}
