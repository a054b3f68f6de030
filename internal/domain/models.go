package domain

import "time"

// PassStatus is the verdict of a scored submission.
type PassStatus string

const (
	PassStatusPass PassStatus = "pass"
	PassStatusFail PassStatus = "fail"
)

// Quiz is the metadata of a timed multiple-choice quiz. The question set is
// loaded separately and ordered by stored question id.
type Quiz struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration"`
	TotalMarks      int    `json:"totalMarks"`
	Active          bool   `json:"active"`
}

// Question is a single MCQ with exactly one correct option.
type Question struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quizId"`
	Text          string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Marks         int      `json:"marks"` // defaults to 1 if zero
	Explanation   string   `json:"explanation,omitempty"`
}

// EffectiveMarks returns the marks awarded for answering this question
// correctly.
func (q Question) EffectiveMarks() int {
	if q.Marks <= 0 {
		return 1
	}
	return q.Marks
}

// QuestionView is the pre-submission shape served to clients. It never
// carries the correct answer or the explanation; options are always a
// non-nil slice.
type QuestionView struct {
	ID      string   `json:"id"`
	QuizID  string   `json:"quizId"`
	Text    string   `json:"questionText"`
	Options []string `json:"options"`
	Marks   int      `json:"marks"`
}

// View sanitizes a question for delivery before submission.
func (q Question) View() QuestionView {
	opts := q.Options
	if opts == nil {
		opts = []string{}
	}
	return QuestionView{
		ID:      q.ID,
		QuizID:  q.QuizID,
		Text:    q.Text,
		Options: opts,
		Marks:   q.EffectiveMarks(),
	}
}

// QuizSummary is a list-view row: quiz metadata plus the requesting user's
// latest verdict and whether the quiz is still open for that user.
type QuizSummary struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    int         `json:"duration"`
	TotalMarks  int         `json:"totalMarks"`
	PassStatus  *PassStatus `json:"passStatus"`
	Active      bool        `json:"active"`
}

// Submission is an immutable record of one completed attempt.
type Submission struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	UserID      string     `json:"userId"`
	Score       int        `json:"score"`
	PassStatus  PassStatus `json:"passStatus"`
	SubmittedAt time.Time  `json:"submittedAt"`
}

// StoredAnswer snapshots one question at submission time. Review views are
// reconstructed from these rows alone, so later edits to the question bank
// cannot rewrite history. UserAnswer is nil for unanswered questions.
type StoredAnswer struct {
	SubmissionID  string   `json:"submissionId"`
	QuestionID    string   `json:"questionId"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	UserAnswer    *string  `json:"userAnswer"`
	CorrectAnswer string   `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation"`
}

// AnswerReview is one row of the post-submission review payload.
type AnswerReview struct {
	QuestionID    string   `json:"questionId"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	UserAnswer    *string  `json:"userAnswer"`
	CorrectAnswer string   `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation"`
}

// ResultData is the full review of a submission.
type ResultData struct {
	SubmissionID   string         `json:"submissionId"`
	QuizID         string         `json:"quizId"`
	QuizTitle      string         `json:"quizTitle"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	PassStatus     PassStatus     `json:"passStatus"`
	Questions      []AnswerReview `json:"questions"`
}

// User is a registered student.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StudentStats is the dashboard counter set for one student.
type StudentStats struct {
	TotalQuizzesAttended int `json:"totalQuizzesAttended"`
	ActiveQuizzes        int `json:"activeQuizzes"`
	InactiveQuizzes      int `json:"inactiveQuizzes"`
}

// PerformanceRow is one entry of a student's submission history, newest
// first.
type PerformanceRow struct {
	QuizTitle   string    `json:"quizTitle"`
	Score       int       `json:"score"`
	TotalMarks  int       `json:"totalMarks"`
	SubmittedAt time.Time `json:"submittedAt"`
}
