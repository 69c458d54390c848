package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel

	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"size:255;not null" json:"-"`
	Phone    string   `gorm:"size:30" json:"phone"`
	Role     UserRole `gorm:"type:enum('student','teacher','admin');default:'student'" json:"role"`
	Grade    string   `gorm:"size:50;index" json:"grade"`

	// Lifetime quiz totals, incremented atomically when an attempt completes.
	TotalScore     int `gorm:"default:0" json:"totalScore"`
	TotalQuestions int `gorm:"default:0" json:"totalQuestions"`
	ExamsEntered   int `gorm:"default:0" json:"examsEntered"`

	// Grade-wide entitlements granted by general redemption codes.
	GeneralQuizAccess    bool `gorm:"default:false" json:"generalQuizAccess"`
	GeneralChapterAccess bool `gorm:"default:false" json:"generalChapterAccess"`
}

func (User) TableName() string {
	return "users"
}

// CanPurchaseContent reports whether content of the given grade matches the
// student's own grade. Teachers and admins are not grade restricted.
func (u *User) CanPurchaseContent(contentGrade string) bool {
	if u.Role != Student {
		return true
	}
	return u.Grade == contentGrade
}
