package model

import "time"

// Difficulty of a bank question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// CategoryGeneral is used when no participant declared an interest.
const CategoryGeneral = "general"

// Categories lists every category a question or an interest may carry.
var Categories = []string{
	"science", "history", "gaming", "movies", "sports",
	"tech", "music", "geography", "literature", "art",
	"food", "animals", CategoryGeneral,
}

// QuestionOptionCount is the fixed number of options per question.
const QuestionOptionCount = 4

// Question is read-only reference data in the question bank
type Question struct {
	ID            string     `json:"id" bson:"_id"`
	Text          string     `json:"text" bson:"text"`
	Options       []string   `json:"options" bson:"options"`
	CorrectAnswer int        `json:"correctAnswer" bson:"correctAnswer"`
	Category      string     `json:"category" bson:"category"`
	Difficulty    Difficulty `json:"difficulty" bson:"difficulty"`
	UsageCount    int        `json:"usageCount" bson:"usageCount"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
}

// ToRoundQuestion copies the question into a fresh quiz-round entry.
func (q *Question) ToRoundQuestion() RoundQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return RoundQuestion{
		QuestionID:    q.ID,
		Text:          q.Text,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
		Category:      q.Category,
		PlayerAnswers: []PlayerAnswer{},
	}
}
