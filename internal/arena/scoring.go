package arena

// Scoring constants. XP accrual is the only score mutation during normal
// play; the forfeit bonus is the one-time adjustment applied at finalize.
const (
	XPPerCorrectAnswer = 10
	ForfeitBonus       = 50
)

// IsCorrect is the whole answer validator: exact equality against the stored
// correct option id. No partial credit, no negative scoring.
func IsCorrect(selectedOptionID, correctOptionID string) bool {
	return selectedOptionID == correctOptionID
}

// AwardForAnswer returns the XP increment for a submission.
func AwardForAnswer(correct bool) int {
	if correct {
		return XPPerCorrectAnswer
	}
	return 0
}
