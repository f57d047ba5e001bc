package repository

import (
	"strings"

	"pastpapers-go/internal/model"

	"gorm.io/gorm"
)

// ProfileRepository 接口定义了用户资料的持久化操作。
type ProfileRepository interface {
	Create(profile *model.Profile) error
	FindByUserID(userID uint) (*model.Profile, error)
	GetOrCreate(userID uint) (*model.Profile, error)
	Update(profile *model.Profile) error
	List(search string, offset, limit int) ([]model.Profile, int64, error)
	// SaveWithUser 在一个事务中同时保存用户与资料。
	SaveWithUser(user *model.User, profile *model.Profile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建一个新的 ProfileRepository 实例。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) SaveWithUser(user *model.User, profile *model.Profile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return tx.Omit("User").Save(profile).Error
	})
}

func (r *profileRepository) Create(profile *model.Profile) error {
	return r.db.Create(profile).Error
}

func (r *profileRepository) FindByUserID(userID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetOrCreate 返回用户的资料，不存在时创建一条空资料。
func (r *profileRepository) GetOrCreate(userID uint) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Where(model.Profile{UserID: userID}).FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(profile *model.Profile) error {
	return r.db.Omit("User").Save(profile).Error
}

// List 按用户名或学校搜索资料，按用户名排序。
func (r *profileRepository) List(search string, offset, limit int) ([]model.Profile, int64, error) {
	var profiles []model.Profile
	var total int64

	build := func() *gorm.DB {
		q := r.db.Model(&model.Profile{}).Joins("JOIN users ON users.id = profiles.user_id")
		if term := strings.TrimSpace(search); term != "" {
			pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
			q = q.Where("(LOWER(users.username) LIKE ?"+likeEscapeQuery+" OR LOWER(profiles.university) LIKE ?"+likeEscapeQuery+")", pattern, pattern)
		}
		return q
	}
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := build().Select("profiles.*").Preload("User").
		Order("users.username ASC").Offset(offset).Limit(limit).Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}
