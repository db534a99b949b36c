package store

import (
	"fmt"
	"time"

	"voicescribe/models"

	"github.com/jinzhu/gorm"
)

// Stats aggregates the counters the admin statistics handler reports.
type Stats struct {
	RegisteredUsers int
	NewUsersToday   int
	UploadedAudios  int
	GptRequests     int
}

// UserStore is the narrow persistence contract the bot core depends on.
// Get returns (nil, nil) when the user is unknown; Update is atomic at record
// granularity and immediately visible to subsequent reads.
type UserStore interface {
	Get(number int64) (*models.User, error)
	Create(user *models.User) (*models.User, error)
	Update(number int64, fields map[string]interface{}) (*models.User, error)
	Stats() (Stats, error)
}

// GormUserStore implements UserStore on the gorm connection.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Get(number int64) (*models.User, error) {
	var user models.User
	err := s.db.Where("number = ?", number).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", number, err)
	}
	return &user, nil
}

func (s *GormUserStore) Create(user *models.User) (*models.User, error) {
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %d: %w", user.Number, err)
	}
	return user, nil
}

func (s *GormUserStore) Update(number int64, fields map[string]interface{}) (*models.User, error) {
	res := s.db.Model(&models.User{}).Where("number = ?", number).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("update user %d: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update user %d: not found", number)
	}
	return s.Get(number)
}

func (s *GormUserStore) Stats() (Stats, error) {
	var stats Stats

	if err := s.db.Model(&models.User{}).Count(&stats.RegisteredUsers).Error; err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}

	midnight := time.Now().Truncate(24 * time.Hour)
	if err := s.db.Model(&models.User{}).
		Where("created_at >= ?", midnight).
		Count(&stats.NewUsersToday).Error; err != nil {
		return Stats{}, fmt.Errorf("count new users: %w", err)
	}

	type sums struct {
		Uploaded int
		Gpt      int
	}
	var total sums
	if err := s.db.Model(&models.User{}).
		Select("COALESCE(SUM(uploaded_audios), 0) AS uploaded, COALESCE(SUM(gpt_requests), 0) AS gpt").
		Scan(&total).Error; err != nil {
		return Stats{}, fmt.Errorf("sum counters: %w", err)
	}
	stats.UploadedAudios = total.Uploaded
	stats.GptRequests = total.Gpt

	return stats, nil
}

// ReleaseAwaitingMedia resets users stuck in the awaiting-media state. The
// admission set lives in memory only, so after a restart no job can complete
// the window those users are waiting on; clearing it at startup lets them
// start over instead of cancelling a job that no longer exists.
func (s *GormUserStore) ReleaseAwaitingMedia() (int, error) {
	res := s.db.Model(&models.User{}).
		Where("state = ?", models.STATE_AWAITING_MEDIA).
		Update("state", "")
	if res.Error != nil {
		return 0, fmt.Errorf("reset awaiting_media: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
