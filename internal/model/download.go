package model

import "time"

// Download 记录某个用户下载过某篇论文，(user_id, paper_id) 唯一。
type Download struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_download_user_paper,priority:1" json:"userId"`
	PaperID      uint      `gorm:"not null;uniqueIndex:idx_download_user_paper,priority:2;index" json:"paperId"`
	Paper        *Paper    `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"-"`
	DownloadedAt time.Time `gorm:"autoCreateTime;index" json:"downloadedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Download) TableName() string {
	return "downloads"
}
