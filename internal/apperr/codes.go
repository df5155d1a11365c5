package apperr

// Code is a stable machine-readable error code surfaced to clients.
type Code string

const (
	CodeInternal Code = "INTERNAL"

	// Input validation
	CodeInvalidMode        Code = "INVALID_MODE"
	CodeInvalidMaxPlayers  Code = "INVALID_MAX_PLAYERS"
	CodeMissingSessionID   Code = "MISSING_SESSION_ID"
	CodeMissingAnswer      Code = "MISSING_ANSWER"
	CodeInvalidAnswerIndex Code = "INVALID_ANSWER_INDEX"
	CodeMissingMonsterID   Code = "MISSING_MONSTER_ID"
	CodeMissingTarget      Code = "MISSING_TARGET"
	CodeSelfVote           Code = "SELF_VOTE"
	CodeInvalidPayload     Code = "INVALID_PAYLOAD"

	// Lookups
	CodeSessionNotFound  Code = "SESSION_NOT_FOUND"
	CodeQuestionNotFound Code = "QUESTION_NOT_FOUND"
	CodeTargetNotFound   Code = "TARGET_NOT_FOUND"

	// Lifecycle and round state
	CodeGameAlreadyStarted Code = "GAME_ALREADY_STARTED"
	CodeGameNotInProgress  Code = "GAME_NOT_IN_PROGRESS"
	CodeNotEnoughPlayers   Code = "NOT_ENOUGH_PLAYERS"
	CodeWrongRound         Code = "WRONG_ROUND"
	CodeGameNotCompleted   Code = "GAME_NOT_COMPLETED"

	// Duplicate contributions
	CodeAlreadyMember   Code = "ALREADY_MEMBER"
	CodeGameFull        Code = "GAME_FULL"
	CodeAlreadyAnswered Code = "ALREADY_ANSWERED"
	CodeAlreadyVoted    Code = "ALREADY_VOTED"

	// Access
	CodeNotMember    Code = "NOT_A_MEMBER"
	CodeNotCreator   Code = "NOT_CREATOR"
	CodeMissingToken Code = "MISSING_TOKEN"
	CodeInvalidToken Code = "INVALID_TOKEN"

	// Storage
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)
