package engine

import (
	"time"

	"github.com/samber/lo"

	"planetguard/internal/apperr"
	"planetguard/internal/model"
)

const (
	correctAnswerScore  = 10
	correctAnswerHealth = 5
	wrongAnswerHealth   = -3
)

// AnswerOutcome is the effect of one accepted quiz answer
type AnswerOutcome struct {
	QuestionIndex int
	IsCorrect     bool
	Transition
}

// SubmitAnswer records userID's answer to one question of the active quiz
// round. A player may answer each question once.
func SubmitAnswer(s *model.Session, userID string, questionIndex, answerIndex int, now time.Time) (*AnswerOutcome, error) {
	playerIdx, roundIdx, err := requireActiveRound(s, userID, model.RoundQuiz)
	if err != nil {
		return nil, err
	}
	round := &s.Rounds[roundIdx]
	quiz := round.Quiz
	if questionIndex < 0 || questionIndex >= len(quiz.Questions) {
		return nil, apperr.NotFound(apperr.CodeQuestionNotFound, "question not found")
	}
	question := &quiz.Questions[questionIndex]
	if answerIndex < 0 || answerIndex >= len(question.Options) {
		return nil, apperr.Validation(apperr.CodeInvalidAnswerIndex, "answer index is out of range")
	}
	if _, answered := question.AnswerBy(userID); answered {
		return nil, apperr.Conflict(apperr.CodeAlreadyAnswered, "you have already answered this question")
	}

	isCorrect := answerIndex == question.CorrectAnswer
	question.PlayerAnswers = append(question.PlayerAnswers, model.PlayerAnswer{
		UserID:      userID,
		AnswerIndex: answerIndex,
		IsCorrect:   isCorrect,
		AnsweredAt:  now,
	})

	player := &s.Players[playerIdx]
	if isCorrect {
		player.Score += correctAnswerScore
		if player.Role != model.RoleImposter {
			adjustHealth(s, correctAnswerHealth)
		}
	} else {
		adjustHealth(s, wrongAnswerHealth)
	}

	out := &AnswerOutcome{QuestionIndex: questionIndex, IsCorrect: isCorrect, Transition: noTransition()}
	if quizComplete(quiz, len(s.Players)) {
		round.CompletedAt = &now
		out.CompletedRound = roundIdx
		if len(s.Rounds) == roundIdx+1 {
			s.Rounds = append(s.Rounds, model.NewBattleRound(now))
			out.StartedRound = len(s.Rounds) - 1
		}
	}
	return out, nil
}

func quizComplete(quiz *model.QuizRound, playerCount int) bool {
	return lo.EveryBy(quiz.Questions, func(q model.RoundQuestion) bool {
		return len(q.PlayerAnswers) == playerCount
	})
}
