package domain

import (
	"time"

	"github.com/uptrace/bun"
)

// QuizMode controls question presentation only; scoring is mode-agnostic.
type QuizMode string

const (
	ModeStandard QuizMode = "standard" // all questions at once
	ModeFocused  QuizMode = "focused"  // one question at a time
)

// QuestionType discriminates how a submitted answer is parsed and evaluated.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionIdentification QuestionType = "identification"
)

// Role is the viewer role attached to analytics requests.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleLearner    Role = "learner"
)

// Participation lifecycle states.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in_progress"
)

// XPSourceQuiz tags XP ledger rows produced by quiz participations.
const XPSourceQuiz = "quiz"

// User carries the minimum identity needed by reports plus the denormalized
// lifetime XP counter. The XP history table remains the source of truth.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID   string `bun:"id,pk" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
	Role Role   `bun:"role,notnull" json:"role"`
	XP   int    `bun:"xp,notnull,default:0" json:"xp"`
}

// Quiz is the authored quiz content. TotalScore and TotalTime are derived
// sums over the questions, recomputed by the authoring side whenever
// questions change; this core treats them as read-only.
type Quiz struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID          string     `bun:"id,pk" json:"id"`
	OwnerID     string     `bun:"owner_id,notnull" json:"ownerId"`
	Title       string     `bun:"title,notnull" json:"title"`
	Description string     `bun:"description" json:"description"`
	Mode        QuizMode   `bun:"mode,notnull,default:'standard'" json:"mode"`
	TotalScore  int        `bun:"total_score,notnull,default:0" json:"totalScore"`
	TotalTime   int        `bun:"total_time,notnull,default:0" json:"totalTime"` // seconds
	Questions   []Question `bun:"rel:has-many,join:id=quiz_id" json:"questions"`
}

// Question owns its choices. TimeLimit is nil when the question is untimed.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID        string       `bun:"id,pk" json:"id"`
	QuizID    string       `bun:"quiz_id,notnull" json:"quizId"`
	Type      QuestionType `bun:"question_type,notnull" json:"type"`
	Text      string       `bun:"text,notnull" json:"text"`
	Score     int          `bun:"score,notnull,default:0" json:"score"`
	TimeLimit *int         `bun:"time_limit" json:"timeLimit,omitempty"` // seconds
	Required  bool         `bun:"required,notnull,default:false" json:"required"`
	Position  int          `bun:"position,notnull,default:0" json:"position"`
	Choices   []Choice     `bun:"rel:has-many,join:id=question_id" json:"choices"`
}

// Choice is one answer option. For identification questions a single choice
// with IsCorrect=true holds the canonical answer text (no distractors).
type Choice struct {
	bun.BaseModel `bun:"table:choices,alias:c"`

	ID         string `bun:"id,pk" json:"id"`
	QuestionID string `bun:"question_id,notnull" json:"questionId"`
	Text       string `bun:"text,notnull" json:"text"`
	IsCorrect  bool   `bun:"is_correct,notnull,default:false" json:"isCorrect"`
}

// Participation is one user's single scored attempt at one quiz. At most one
// row may exist per (user, quiz); the database enforces this with a unique
// index so concurrent duplicate submissions cannot slip past the app check.
type Participation struct {
	bun.BaseModel `bun:"table:participations,alias:p"`

	ID          string    `bun:"id,pk" json:"id"`
	UserID      string    `bun:"user_id,notnull" json:"userId"`
	QuizID      string    `bun:"quiz_id,notnull" json:"quizId"`
	TotalScore  int       `bun:"total_score,notnull,default:0" json:"totalScore"`
	XPEarned    int       `bun:"xp_earned,notnull,default:0" json:"xpEarned"`
	TimeTaken   *int      `bun:"time_taken" json:"timeTaken,omitempty"` // seconds, client-reported
	Status      string    `bun:"status,notnull" json:"status"`
	CompletedAt time.Time `bun:"completed_at,notnull" json:"completedAt"`
	Answers     []Answer  `bun:"rel:has-many,join:id=participation_id" json:"answers"`
	User        *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// Answer is the stored outcome for one question within a participation.
// Correctness is computed once at submission time and never re-derived.
type Answer struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID              string `bun:"id,pk" json:"id"`
	ParticipationID string `bun:"participation_id,notnull" json:"participationId"`
	QuestionID      string `bun:"question_id,notnull" json:"questionId"`
	Value           string `bun:"value,notnull" json:"value"` // raw string, or JSON array for checkbox
	IsCorrect       bool   `bun:"is_correct,notnull" json:"isCorrect"`
}

// XPHistory is the append-only XP ledger. One row per scored attempt.
type XPHistory struct {
	bun.BaseModel `bun:"table:xp_history,alias:xh"`

	ID          string    `bun:"id,pk" json:"id"`
	UserID      string    `bun:"user_id,notnull" json:"userId"`
	SourceType  string    `bun:"source_type,notnull" json:"sourceType"`
	SourceID    string    `bun:"source_id,notnull" json:"sourceId"`
	XPEarned    int       `bun:"xp_earned,notnull" json:"xpEarned"`
	Description string    `bun:"description" json:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// SubmissionResult is what a successful submission reports back to the caller.
type SubmissionResult struct {
	ParticipationID string  `json:"participationId"`
	TotalScore      int     `json:"totalScore"`
	XPEarned        int     `json:"xpEarned"`
	Percentage      float64 `json:"percentage"`
}
