package repository

import (
	"pastpapers-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DownloadRepository 接口定义了下载记录的持久化操作。
type DownloadRepository interface {
	// Record 幂等地记录 (user, paper)，并把论文下载次数加一。
	Record(userID, paperID uint) (firstTime bool, err error)
	CountByPaper(paperID uint) (int64, error)
	FindByUser(userID uint, limit int) ([]model.Download, error)
}

type downloadRepository struct {
	db *gorm.DB
}

// NewDownloadRepository 创建一个新的 DownloadRepository 实例。
func NewDownloadRepository(db *gorm.DB) DownloadRepository {
	return &downloadRepository{db: db}
}

func (r *downloadRepository) Record(userID, paperID uint) (bool, error) {
	var firstTime bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// 唯一索引吸收并发的重复插入
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Download{UserID: userID, PaperID: paperID})
		if res.Error != nil {
			return res.Error
		}
		firstTime = res.RowsAffected > 0
		return tx.Model(&model.Paper{}).Where("id = ?", paperID).
			UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
	})
	return firstTime, err
}

func (r *downloadRepository) CountByPaper(paperID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Download{}).Where("paper_id = ?", paperID).Count(&count).Error
	return count, err
}

// FindByUser 返回用户最近下载过的论文记录，论文已预加载。
func (r *downloadRepository) FindByUser(userID uint, limit int) ([]model.Download, error) {
	var downloads []model.Download
	err := r.db.Preload("Paper").Where("user_id = ?", userID).
		Order("downloaded_at DESC, id DESC").Limit(limit).Find(&downloads).Error
	return downloads, err
}
