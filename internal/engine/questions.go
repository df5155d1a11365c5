package engine

import (
	"github.com/samber/lo"

	"planetguard/internal/model"
)

// QuizQuestionCount is the maximum number of questions in a quiz round.
const QuizQuestionCount = 10

var fallbackQuestions = []model.Question{
	{
		ID:            "fallback-1",
		Text:          "Which programming language was used to write the first version of Twitter?",
		Options:       []string{"Ruby on Rails", "PHP", "Python", "Java"},
		CorrectAnswer: 0,
		Category:      "tech",
		Difficulty:    model.DifficultyMedium,
	},
	{
		ID:   "fallback-2",
		Text: "What does HTML stand for?",
		Options: []string{
			"Hyper Text Markup Language",
			"High Tech Multi Language",
			"Hyper Transfer Markup Language",
			"Home Tool Markup Language",
		},
		CorrectAnswer: 0,
		Category:      "tech",
		Difficulty:    model.DifficultyEasy,
	},
	{
		ID:            "fallback-3",
		Text:          "Which of these is NOT a JavaScript framework or library?",
		Options:       []string{"Angular", "React", "Django", "Vue"},
		CorrectAnswer: 2,
		Category:      "tech",
		Difficulty:    model.DifficultyEasy,
	},
	{
		ID:   "fallback-4",
		Text: "What is the most common use of CSS?",
		Options: []string{
			"To define the structure of web pages",
			"To style web pages",
			"To create interactive elements",
			"To connect to databases",
		},
		CorrectAnswer: 1,
		Category:      "tech",
		Difficulty:    model.DifficultyEasy,
	},
	{
		ID:            "fallback-5",
		Text:          "Which data structure follows the LIFO principle?",
		Options:       []string{"Queue", "Stack", "Tree", "Graph"},
		CorrectAnswer: 1,
		Category:      "tech",
		Difficulty:    model.DifficultyEasy,
	},
}

// FallbackQuestions returns a fresh copy of the generic question set used
// when the bank has nothing for the players' interests.
func FallbackQuestions() []model.Question {
	out := make([]model.Question, len(fallbackQuestions))
	for i, q := range fallbackQuestions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// InterestCategories returns the union of the given interest lists in first
// seen order, or the general category when nobody declared any.
func InterestCategories(interests ...[]string) []string {
	categories := lo.Uniq(lo.Compact(lo.Flatten(interests)))
	if len(categories) == 0 {
		return []string{model.CategoryGeneral}
	}
	return categories
}

// RoundQuestions turns sampled bank questions into quiz-round entries. At
// most QuizQuestionCount are used; an empty sample yields the fallback set.
func RoundQuestions(sampled []model.Question) []model.RoundQuestion {
	if len(sampled) == 0 {
		sampled = FallbackQuestions()
	}
	if len(sampled) > QuizQuestionCount {
		sampled = sampled[:QuizQuestionCount]
	}
	return lo.Map(sampled, func(q model.Question, _ int) model.RoundQuestion {
		return q.ToRoundQuestion()
	})
}
