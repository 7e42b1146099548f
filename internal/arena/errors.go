package arena

import "fmt"

// Error codes surfaced to clients as structured error events.
const (
	CodeInvalidQuestionCount  = "INVALID_QUESTION_COUNT"
	CodeInvalidTimeLimit      = "INVALID_TIME_LIMIT"
	CodeCategoryNotFound      = "CATEGORY_NOT_FOUND"
	CodeInsufficientQuestions = "INSUFFICIENT_QUESTIONS"
	CodeMatchNotFound         = "MATCH_NOT_FOUND"
	CodeMatchUnavailable      = "MATCH_UNAVAILABLE"
	CodeQuestionNotFound      = "QUESTION_NOT_FOUND"
	CodePersistenceFailed     = "PERSISTENCE_FAILED"
	CodeInternal              = "INTERNAL_ERROR"
)

// Error is a structured engine error. Validation, lookup and state-conflict
// errors are terminal only for the triggering request; room and match state
// are left unchanged.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
