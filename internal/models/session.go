package models

type ViewMode string

const (
	ModeDoing   ViewMode = "doing"
	ModeSummary ViewMode = "summary"
	ModeReview  ViewMode = "review"
)

type PromptKind string

const (
	PromptNone    PromptKind = ""
	PromptMissing PromptKind = "missing"
	PromptConfirm PromptKind = "confirm"
)

// Prompt is a blocking dialog the student has to answer before continuing.
type Prompt struct {
	Kind    PromptKind `json:"kind"`
	Missing int        `json:"missing,omitempty"`
	Message string     `json:"message"`
}

type PaletteStatus string

const (
	StatusUnanswered PaletteStatus = "unanswered"
	StatusAnswered   PaletteStatus = "answered"
	StatusCorrect    PaletteStatus = "correct"
	StatusIncorrect  PaletteStatus = "incorrect"
)

type PaletteEntry struct {
	Index      int           `json:"index"`
	QuestionID ID            `json:"question_id"`
	Status     PaletteStatus `json:"status"`
	Current    bool          `json:"current"`
}

// ScrollTarget tells the view where to scroll after a palette jump.
type ScrollTarget struct {
	Index  int `json:"index"`
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

type ReviewItem struct {
	Index         int           `json:"index"`
	Question      Question      `json:"question"`
	Answer        any           `json:"answer"`
	IsCorrect     bool          `json:"is_correct"`
	CorrectAnswer any           `json:"correct_answer,omitempty"`
	Solution      string        `json:"solution,omitempty"`
	Status        PaletteStatus `json:"status"`
}

// Snapshot is a read-only copy of a session's observable state.
type Snapshot struct {
	ID         string             `json:"id"`
	Test       Test               `json:"test"`
	Mode       ViewMode           `json:"mode"`
	Closed     bool               `json:"closed"`
	Remaining  int                `json:"remaining"`
	Cursor     int                `json:"cursor"`
	Questions  []Question         `json:"questions"`
	Answers    map[ID]any         `json:"answers"`
	Prompt     *Prompt            `json:"prompt,omitempty"`
	Result     *SubmissionResult  `json:"result,omitempty"`
	Submitting bool               `json:"submitting"`
}
