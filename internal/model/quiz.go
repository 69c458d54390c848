package model

// swagger:model Quiz
type Quiz struct {
	BaseModel

	Name            string `gorm:"size:255;not null" json:"name"`
	Grade           string `gorm:"size:50;index;not null" json:"grade"`
	DurationMinutes int    `gorm:"not null" json:"durationMinutes"`

	// QuestionsToShow is the size of the per-attempt subset; it never exceeds
	// the pool size (enforced when the quiz is authored, not per attempt).
	QuestionsToShow int `gorm:"not null" json:"questionsToShow"`

	IsActive  bool `gorm:"default:true" json:"isActive"`
	IsVisible bool `gorm:"default:false" json:"isVisible"`

	Prepaid bool `gorm:"default:false" json:"prepaid"`
	Price   int  `gorm:"default:0" json:"price"`

	ShowAnswersAfterQuiz bool `gorm:"default:true" json:"showAnswersAfterQuiz"`

	ChapterID *uint `gorm:"index" json:"chapterId,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Free reports whether the quiz requires no purchase at all.
func (q *Quiz) Free() bool {
	return !q.Prepaid || q.Price == 0
}

// QuizQuestion is one entry of a quiz's question pool. Position is the
// 0-based pool index the selector works with; the pool is always read
// ordered by it.
type QuizQuestion struct {
	BaseModel

	QuizID   uint `gorm:"index:idx_quiz_position,unique" json:"quizId"`
	Position int  `gorm:"index:idx_quiz_position,unique" json:"position"`

	Title   string `gorm:"type:text;not null" json:"title"`
	Image   string `gorm:"size:500" json:"image,omitempty"`
	Answer1 string `gorm:"type:text" json:"answer1"`
	Answer2 string `gorm:"type:text" json:"answer2"`
	Answer3 string `gorm:"type:text" json:"answer3"`
	Answer4 string `gorm:"type:text" json:"answer4"`

	// CorrectAnswer is the 1-based index of the right option. Never sent to
	// students while an attempt is in progress.
	CorrectAnswer int `gorm:"not null" json:"-"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// Option returns the option text for a 1-based answer index, or "" when the
// index is out of range.
func (q *QuizQuestion) Option(n int) string {
	switch n {
	case 1:
		return q.Answer1
	case 2:
		return q.Answer2
	case 3:
		return q.Answer3
	case 4:
		return q.Answer4
	}
	return ""
}
