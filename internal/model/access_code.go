package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CodeType string

const (
	CodeTypeQuiz           CodeType = "quiz"
	CodeTypeChapter        CodeType = "chapter"
	CodeTypeGeneralQuiz    CodeType = "general_quiz"
	CodeTypeGeneralChapter CodeType = "general_chapter"
)

// AccessCode is a single-use redemption code. General codes grant a
// grade-wide entitlement; specific codes unlock one quiz or chapter.
type AccessCode struct {
	BaseModel

	Code        string   `gorm:"size:36;uniqueIndex;not null" json:"code"`
	CodeType    CodeType `gorm:"size:30;not null" json:"codeType"`
	Grade       string `gorm:"size:50" json:"grade"`
	IsAllGrades bool   `gorm:"default:false" json:"isAllGrades"`

	Used   bool       `gorm:"default:false;index" json:"used"`
	UsedBy *uint      `gorm:"type:bigint unsigned" json:"usedBy,omitempty"`
	UsedAt *time.Time `json:"usedAt,omitempty"`
}

func (AccessCode) TableName() string {
	return "access_codes"
}

func (c *AccessCode) BeforeCreate(tx *gorm.DB) error {
	if c.Code == "" {
		c.Code = uuid.New().String()
	}
	return nil
}

func (c *AccessCode) General() bool {
	return c.CodeType == CodeTypeGeneralQuiz || c.CodeType == CodeTypeGeneralChapter
}

// QuizPurchase marks a specific quiz as unlocked for a student.
type QuizPurchase struct {
	BaseModel

	UserID uint `gorm:"index:idx_user_quiz_purchase,unique;type:bigint unsigned" json:"userId"`
	QuizID uint `gorm:"index:idx_user_quiz_purchase,unique;type:bigint unsigned" json:"quizId"`
	CodeID uint `gorm:"type:bigint unsigned" json:"codeId"`
}

func (QuizPurchase) TableName() string {
	return "quiz_purchases"
}

// ChapterPurchase marks a chapter as unlocked for a student.
type ChapterPurchase struct {
	BaseModel

	UserID    uint `gorm:"index:idx_user_chapter_purchase,unique;type:bigint unsigned" json:"userId"`
	ChapterID uint `gorm:"index:idx_user_chapter_purchase,unique;type:bigint unsigned" json:"chapterId"`
	CodeID    uint `gorm:"type:bigint unsigned" json:"codeId"`
}

func (ChapterPurchase) TableName() string {
	return "chapter_purchases"
}
