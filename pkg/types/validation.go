package types

import "regexp"

// Compiled once at package initialization; user IDs arrive on every
// connection attempt.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUserID checks if a user ID meets format requirements.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// Validate ensures an authored quiz meets all structural requirements before
// it is persisted. Executions only ever reference validated quizzes.
func (q *Quiz) Validate() error {
	if len(q.Title) < 1 || len(q.Title) > 200 {
		return ErrInvalidQuizTitle
	}
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	for _, question := range q.Questions {
		if question.Title == "" {
			return ErrInvalidQuestionTitle
		}
		if len(question.Answers) < 2 {
			return ErrTooFewAnswers
		}
		for _, answer := range question.Answers {
			if answer.Title == "" {
				return ErrInvalidAnswerTitle
			}
		}
	}
	return nil
}

// AnswerTitles returns the answer titles of a question in stored order. This
// is the only answer view that may be broadcast to participants.
func (q *Question) AnswerTitles() []string {
	titles := make([]string, 0, len(q.Answers))
	for _, answer := range q.Answers {
		titles = append(titles, answer.Title)
	}
	return titles
}
