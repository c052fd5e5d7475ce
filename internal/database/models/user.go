package models

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`

	// OAuth metadata, empty for password accounts
	Provider   string `gorm:"index" json:"-"`
	ProviderID string `gorm:"index" json:"-"`

	// Relationships
	Memberships []UserTeam `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
