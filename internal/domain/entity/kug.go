package entity

// Kug is a city based Kotlin User Group.
type Kug struct {
	Model
	Name        string     `gorm:"not null;uniqueIndex" json:"name"`
	City        string     `gorm:"not null" json:"city"`
	Description string     `json:"description"`
	Website     string     `json:"website"`
	SocialLinks StringList `json:"social_links"`
}
