package model

import "time"

type RoundType string

const (
	RoundQuiz   RoundType = "quiz"
	RoundBattle RoundType = "battle"
	RoundVote   RoundType = "vote"
)

// ActionDefeat is the only battle action the server records.
const ActionDefeat = "defeat"

// Round is the shared envelope of the three round variants. Exactly one of
// Quiz, Battle or Vote is set, matching Type.
type Round struct {
	Type        RoundType  `json:"type" bson:"type"`
	StartedAt   time.Time  `json:"startedAt" bson:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`

	Quiz   *QuizRound   `json:"quiz,omitempty" bson:"quiz,omitempty"`
	Battle *BattleRound `json:"battle,omitempty" bson:"battle,omitempty"`
	Vote   *VoteRound   `json:"vote,omitempty" bson:"vote,omitempty"`
}

// Completed reports whether the round has been closed.
func (r *Round) Completed() bool {
	return r.CompletedAt != nil
}

func NewQuizRound(questions []RoundQuestion, now time.Time) Round {
	return Round{Type: RoundQuiz, StartedAt: now, Quiz: &QuizRound{Questions: questions}}
}

func NewBattleRound(now time.Time) Round {
	return Round{Type: RoundBattle, StartedAt: now, Battle: &BattleRound{PlayerActions: []PlayerAction{}}}
}

func NewVoteRound(now time.Time) Round {
	return Round{Type: RoundVote, StartedAt: now, Vote: &VoteRound{Votes: []Vote{}}}
}

type QuizRound struct {
	Questions []RoundQuestion `json:"questions" bson:"questions"`
}

// RoundQuestion is a bank question copied into a quiz round together with
// its answer log.
type RoundQuestion struct {
	QuestionID    string         `json:"questionId" bson:"questionId"`
	Text          string         `json:"text" bson:"text"`
	Options       []string       `json:"options" bson:"options"`
	CorrectAnswer int            `json:"correctAnswer" bson:"correctAnswer"`
	Category      string         `json:"category,omitempty" bson:"category,omitempty"`
	PlayerAnswers []PlayerAnswer `json:"playerAnswers" bson:"playerAnswers"`
}

// AnswerBy returns the answer userID gave to this question.
func (q *RoundQuestion) AnswerBy(userID string) (*PlayerAnswer, bool) {
	for i := range q.PlayerAnswers {
		if q.PlayerAnswers[i].UserID == userID {
			return &q.PlayerAnswers[i], true
		}
	}
	return nil, false
}

type PlayerAnswer struct {
	UserID      string    `json:"userId" bson:"userId"`
	AnswerIndex int       `json:"answerIndex" bson:"answerIndex"`
	IsCorrect   bool      `json:"isCorrect" bson:"isCorrect"`
	AnsweredAt  time.Time `json:"answeredAt" bson:"answeredAt"`
}

type BattleRound struct {
	MonstersDefeated int            `json:"monstersDefeated" bson:"monstersDefeated"`
	PlayerActions    []PlayerAction `json:"playerActions" bson:"playerActions"`
}

type PlayerAction struct {
	UserID   string    `json:"userId" bson:"userId"`
	Action   string    `json:"action" bson:"action"`
	TargetID string    `json:"targetId" bson:"targetId"`
	At       time.Time `json:"at" bson:"at"`
}

type VoteRound struct {
	Votes []Vote `json:"votes" bson:"votes"`
}

// VoteBy returns the vote cast by voterID.
func (r *VoteRound) VoteBy(voterID string) (*Vote, bool) {
	for i := range r.Votes {
		if r.Votes[i].VoterID == voterID {
			return &r.Votes[i], true
		}
	}
	return nil, false
}

type Vote struct {
	VoterID  string    `json:"voterId" bson:"voterId"`
	TargetID string    `json:"targetId" bson:"targetId"`
	At       time.Time `json:"at" bson:"at"`
}
