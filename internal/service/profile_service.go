package service

import (
	"context"
	"fmt"
	"strings"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/validator"
)

const recentDownloadsLimit = 5

// UserForm 是账户页中的用户信息表单。
type UserForm struct {
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
}

// ProfileForm 是账户页中的资料表单。
type ProfileForm struct {
	University string `form:"university" json:"university" validate:"max=200"`
	Bio        string `form:"bio" json:"bio"`
}

// AccountView 是账户页展示的数据。
type AccountView struct {
	User            AccountUser      `json:"user"`
	Profile         AccountProfile   `json:"profile"`
	EditMode        bool             `json:"edit_mode"`
	RecentDownloads []model.PaperDTO `json:"recent_downloads"`
}

// AccountUser 是账户页中的用户字段。
type AccountUser struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// AccountProfile 是账户页中的资料字段。
type AccountProfile struct {
	University string `json:"university"`
	Bio        string `json:"bio"`
	AvatarURL  string `json:"avatar_url"`
}

// ProfileRow 是后台资料列表的一行。
type ProfileRow struct {
	ID         uint            `json:"id"`
	Username   string          `json:"username"`
	University string          `json:"university"`
	CreatedAt  model.LocalTime `json:"created_at"`
}

// ProfileList 是后台资料列表的一页。
type ProfileList struct {
	Profiles []ProfileRow `json:"profiles"`
	Page     model.Page   `json:"page"`
}

// ProfileService 接口定义了账户与资料的读取和修改。
type ProfileService interface {
	GetOrCreate(userID uint) (*model.Profile, error)
	GetAccount(ctx context.Context, user *model.User, editMode bool) (*AccountView, error)
	UpdateAccount(ctx context.Context, user *model.User, uf UserForm, pf ProfileForm, avatar *Upload) (*AccountView, error)
	ListProfiles(search, page string) (*ProfileList, error)
}

type profileService struct {
	profileRepo   repository.ProfileRepository
	downloadRepo  repository.DownloadRepository
	store         storage.ObjectStore
	adminPageSize int
}

// NewProfileService 创建一个新的 ProfileService 实例。
func NewProfileService(profileRepo repository.ProfileRepository, downloadRepo repository.DownloadRepository, store storage.ObjectStore, adminPageSize int) ProfileService {
	if adminPageSize < 1 {
		adminPageSize = 25
	}
	return &profileService{profileRepo: profileRepo, downloadRepo: downloadRepo, store: store, adminPageSize: adminPageSize}
}

// GetOrCreate 返回用户资料，旧用户首次访问时补建。
func (s *profileService) GetOrCreate(userID uint) (*model.Profile, error) {
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		log.Errorf("[ProfileService] 获取或创建资料失败, userID: %d, error: %v", userID, err)
		return nil, fmt.Errorf("获取用户资料失败: %w", err)
	}
	return profile, nil
}

func (s *profileService) view(ctx context.Context, user *model.User, profile *model.Profile, editMode bool) *AccountView {
	v := &AccountView{
		User: AccountUser{
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
		},
		Profile: AccountProfile{
			University: profile.University,
			Bio:        profile.Bio,
		},
		EditMode: editMode,
	}
	if profile.AvatarKey != "" {
		if url, err := s.store.URL(ctx, profile.AvatarKey, presignExpiry); err == nil {
			v.Profile.AvatarURL = url
		}
	}
	v.RecentDownloads = []model.PaperDTO{}
	if downloads, err := s.downloadRepo.FindByUser(user.ID, recentDownloadsLimit); err == nil {
		for _, d := range downloads {
			if d.Paper != nil {
				v.RecentDownloads = append(v.RecentDownloads, d.Paper.ToDTO())
			}
		}
	}
	return v
}

func (s *profileService) GetAccount(ctx context.Context, user *model.User, editMode bool) (*AccountView, error) {
	profile, err := s.GetOrCreate(user.ID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, user, profile, editMode), nil
}

// UpdateAccount 两个表单都校验通过后才在一个事务中保存，头像在提交后替换。
func (s *profileService) UpdateAccount(ctx context.Context, user *model.User, uf UserForm, pf ProfileForm, avatar *Upload) (*AccountView, error) {
	uf.FirstName = strings.TrimSpace(uf.FirstName)
	uf.LastName = strings.TrimSpace(uf.LastName)
	pf.University = strings.TrimSpace(pf.University)

	userErrs := validator.Validate(&uf)
	profileErrs := validator.Validate(&pf)
	if avatar != nil && !validator.IsImage(avatar.Filename) {
		if profileErrs == nil {
			profileErrs = map[string]string{}
		}
		profileErrs["avatar"] = "Upload a valid image (jpg, jpeg, png, gif or webp)."
	}
	if len(userErrs) > 0 || len(profileErrs) > 0 {
		return nil, &AccountFormError{User: userErrs, Profile: profileErrs}
	}

	profile, err := s.GetOrCreate(user.ID)
	if err != nil {
		return nil, err
	}

	oldAvatar := ""
	if avatar != nil {
		key := AvatarObjectKey(user.ID, avatar.Filename)
		if _, err := putObject(ctx, s.store, key, *avatar); err != nil {
			log.Errorf("[ProfileService] 上传头像失败, userID: %d, error: %v", user.ID, err)
			return nil, fmt.Errorf("上传头像失败: %w", err)
		}
		oldAvatar = profile.AvatarKey
		profile.AvatarKey = key
	}

	updatedUser := *user
	updatedUser.FirstName = uf.FirstName
	updatedUser.LastName = uf.LastName
	profile.University = pf.University
	profile.Bio = pf.Bio

	if err := s.profileRepo.SaveWithUser(&updatedUser, profile); err != nil {
		if avatar != nil {
			deleteObjects(ctx, s.store, profile.AvatarKey)
		}
		log.Errorf("[ProfileService] 保存账户失败, userID: %d, error: %v", user.ID, err)
		return nil, fmt.Errorf("保存账户失败: %w", err)
	}
	deleteObjects(ctx, s.store, oldAvatar)

	*user = updatedUser
	log.Infof("[ProfileService] 账户已更新, user: %s", user.Username)
	return s.view(ctx, user, profile, false), nil
}

func (s *profileService) ListProfiles(search, rawPage string) (*ProfileList, error) {
	_, total, err := s.profileRepo.List(search, 0, 1)
	if err != nil {
		return nil, err
	}
	page := model.NewPage(parsePage(rawPage), s.adminPageSize, total)
	profiles, _, err := s.profileRepo.List(search, page.Offset(), s.adminPageSize)
	if err != nil {
		return nil, err
	}
	rows := make([]ProfileRow, 0, len(profiles))
	for _, p := range profiles {
		row := ProfileRow{ID: p.ID, University: p.University, CreatedAt: model.LocalTime(p.CreatedAt)}
		if p.User != nil {
			row.Username = p.User.Username
		}
		rows = append(rows, row)
	}
	return &ProfileList{Profiles: rows, Page: page}, nil
}
