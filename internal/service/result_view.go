package service

import (
	"campus_exam_backend/internal/model"
	"encoding/json"
	"time"
)

// The result view builder is deliberately a pure function keyed by
// (privileged, published) so the redaction rules are testable in isolation.

type ExamSummary struct {
	ID         uint             `json:"id"`
	Title      string           `json:"title"`
	Status     model.ExamStatus `json:"status"`
	TotalMarks int              `json:"totalMarks"`
	PassMark   int              `json:"passMark"`
}

type SessionSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Venue     string    `json:"venue"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type StudentSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	RegNo string `json:"regNo"`
}

type AnswerResultView struct {
	QuestionID   uint                   `json:"questionId"`
	QuestionText string                 `json:"questionText"`
	QuestionType model.QuestionType     `json:"questionType"`
	Marks        float64                `json:"marks"`
	Options      []model.QuestionOption `json:"options,omitempty"`

	SelectedOptionKey string `json:"selectedOptionKey,omitempty"`
	AnswerText        string `json:"answerText,omitempty"`
	AttachmentURL     string `json:"attachmentUrl,omitempty"`

	// Grading detail, present only for privileged viewers or once the
	// exam's results are published.
	IsCorrect        *bool    `json:"isCorrect,omitempty"`
	MarksAwarded     *float64 `json:"marksAwarded,omitempty"`
	CorrectOptionKey string   `json:"correctOptionKey,omitempty"`
	Explanation      string   `json:"explanation,omitempty"`
}

type AttemptResultView struct {
	AttemptID       string         `json:"attemptId"`
	Exam            ExamSummary    `json:"exam"`
	Session         SessionSummary `json:"session"`
	Student         StudentSummary `json:"student"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         *time.Time     `json:"endTime,omitempty"`
	TimeUsedSeconds int            `json:"timeUsedSeconds"`
	AutoSubmitted   bool           `json:"autoSubmitted"`

	ScoreAchieved         *float64 `json:"scoreAchieved,omitempty"`
	IsGraded              *bool    `json:"isGraded,omitempty"`
	RequiresManualGrading *bool    `json:"requiresManualGrading,omitempty"`

	Answers []AnswerResultView `json:"answers"`
}

// BuildAttemptResultView shapes a submitted attempt for a viewer.
// includeGradingDetail controls the redaction of isCorrect, marksAwarded,
// correct option keys, explanations and the aggregate score; the answer
// content itself is always visible.
func BuildAttemptResultView(attempt *model.ExamAttempt, exam *model.Exam, session *model.ExamSession,
	student *model.User, questions []model.BankQuestion, answers []model.AttemptAnswer,
	includeGradingDetail bool) (*AttemptResultView, error) {

	answerByQuestion := make(map[uint]*model.AttemptAnswer, len(answers))
	for i := range answers {
		answerByQuestion[answers[i].QuestionID] = &answers[i]
	}

	view := &AttemptResultView{
		AttemptID: attempt.ID,
		Exam: ExamSummary{
			ID:         exam.ID,
			Title:      exam.Title,
			Status:     exam.Status,
			TotalMarks: exam.TotalMarks,
			PassMark:   exam.PassMark,
		},
		Session: SessionSummary{
			ID:        session.ID,
			Title:     session.Title,
			Venue:     session.Venue,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
		},
		Student: StudentSummary{
			ID:    student.ID,
			Name:  student.Name,
			RegNo: student.RegNo,
		},
		StartTime:       attempt.StartTime,
		EndTime:         attempt.EndTime,
		TimeUsedSeconds: attempt.TimeUsedSeconds,
		AutoSubmitted:   attempt.AutoSubmitted,
	}

	agg := AggregateScore(questions, answerByQuestion)
	if includeGradingDetail {
		score := attempt.ScoreAchieved
		graded := attempt.IsGraded
		pending := agg.RequiresManualGrading
		view.ScoreAchieved = &score
		view.IsGraded = &graded
		view.RequiresManualGrading = &pending
	}

	view.Answers = make([]AnswerResultView, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		item := AnswerResultView{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			QuestionType: q.QuestionType,
			Marks:        q.Marks,
		}
		if len(q.Options) > 0 {
			if err := json.Unmarshal(q.Options, &item.Options); err != nil {
				return nil, err
			}
		}
		if ans := answerByQuestion[q.ID]; ans != nil {
			item.SelectedOptionKey = ans.SelectedOptionKey
			item.AnswerText = ans.AnswerText
			item.AttachmentURL = ans.AttachmentURL
			if includeGradingDetail {
				item.IsCorrect = ans.IsCorrect
				item.MarksAwarded = ans.MarksAwarded
			}
		}
		if includeGradingDetail {
			item.CorrectOptionKey = q.CorrectOptionKey
			item.Explanation = q.Explanation
		}
		view.Answers = append(view.Answers, item)
	}

	return view, nil
}
