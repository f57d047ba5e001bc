package model

import "time"

// Profile 对应于 profiles 表，与 User 一对一。
type Profile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	University string    `gorm:"type:varchar(200)" json:"university"`
	Bio        string    `gorm:"type:text" json:"bio"`
	AvatarKey  string    `gorm:"type:varchar(500)" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Profile) TableName() string {
	return "profiles"
}
