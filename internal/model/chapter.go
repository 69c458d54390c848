package model

// swagger:model Chapter
type Chapter struct {
	BaseModel

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Grade       string `gorm:"size:50;index;not null" json:"grade"`
	Price       int    `gorm:"default:0" json:"price"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`

	Videos []Video `gorm:"foreignKey:ChapterID" json:"videos,omitempty"`
	PDFs   []PDF   `gorm:"foreignKey:ChapterID" json:"pdfs,omitempty"`
}

func (Chapter) TableName() string {
	return "chapters"
}

// Free reports whether the chapter requires no purchase.
func (c *Chapter) Free() bool {
	return c.Price <= 0
}

type Video struct {
	BaseModel

	ChapterID uint   `gorm:"index;type:bigint unsigned" json:"chapterId"`
	Title     string `gorm:"size:255;not null" json:"title"`
	URL       string `gorm:"size:500;not null" json:"url"`
	Prepaid   bool   `gorm:"default:false" json:"prepaid"`
	Order     int    `gorm:"default:0" json:"order"`
}

func (Video) TableName() string {
	return "videos"
}

type PDF struct {
	BaseModel

	ChapterID uint   `gorm:"index;type:bigint unsigned" json:"chapterId"`
	Title     string `gorm:"size:255;not null" json:"title"`

	// FileKey is the object name inside the storage bucket.
	FileKey string `gorm:"size:500;not null" json:"fileKey"`
}

func (PDF) TableName() string {
	return "pdfs"
}
