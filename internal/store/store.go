package store

import (
	"errors"
	"time"

	"github.com/go-oauthd/oauthd/internal/core"
	"github.com/go-oauthd/oauthd/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ensure Store implements the credential store contract at compile time
var _ core.Store = (*Store)(nil)

// Store is the gorm-backed credential store. Uniqueness of codes and
// tokens is enforced by unique indexes; a collision fails the insert.
type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.AuthorizationCode{},
		&models.DeviceCode{},
		&models.Token{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Client operations

func (s *Store) GetClient(clientID string) (*models.Client, error) {
	var client models.Client
	if err := s.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &client, nil
}

func (s *Store) CreateClient(client *models.Client) error {
	return s.db.Create(client).Error
}

func (s *Store) UpdateClient(client *models.Client) error {
	return s.db.Save(client).Error
}

func (s *Store) DeleteClient(clientID string) error {
	return s.db.Where("client_id = ?", clientID).Delete(&models.Client{}).Error
}

// User operations

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}

func (s *Store) DeleteUser(id string) error {
	return s.db.Delete(&models.User{}, "id = ?", id).Error
}

// Authorization code operations

func (s *Store) CreateAuthorizationCode(code *models.AuthorizationCode) error {
	return s.db.Create(code).Error
}

func (s *Store) GetAuthorizationCode(codeHash string) (*models.AuthorizationCode, error) {
	var code models.AuthorizationCode
	if err := s.db.Where("code_hash = ?", codeHash).First(&code).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &code, nil
}

// ClaimAuthorizationCode deletes the code row and reports ErrNotFound
// when zero rows were affected. Under concurrent exchange of the same
// code the delete is the serialization point: exactly one caller sees
// a row deleted, every other caller gets ErrNotFound.
func (s *Store) ClaimAuthorizationCode(codeHash string) error {
	res := s.db.Where("code_hash = ?", codeHash).Delete(&models.AuthorizationCode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Device code operations

func (s *Store) CreateDeviceCode(dc *models.DeviceCode) error {
	return s.db.Create(dc).Error
}

func (s *Store) GetDeviceCode(deviceCode string) (*models.DeviceCode, error) {
	var dc models.DeviceCode
	if err := s.db.Where("device_code = ?", deviceCode).First(&dc).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &dc, nil
}

func (s *Store) GetDeviceCodeByUserCode(userCode string) (*models.DeviceCode, error) {
	var dc models.DeviceCode
	if err := s.db.Where("user_code = ?", userCode).First(&dc).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &dc, nil
}

// ApproveDeviceCode binds the approving user and flips is_approved in
// place. The WHERE guard makes approval valid only while pending, so a
// second approval attempt affects zero rows and fails with ErrNotFound.
func (s *Store) ApproveDeviceCode(userCode, userID string) error {
	now := time.Now()
	res := s.db.Model(&models.DeviceCode{}).
		Where("user_code = ? AND is_approved = ?", userCode, false).
		Updates(map[string]any{
			"is_approved": true,
			"user_id":     userID,
			"approved_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimDeviceCode deletes the device code row; same at-most-one-winner
// semantics as ClaimAuthorizationCode.
func (s *Store) ClaimDeviceCode(deviceCode string) error {
	res := s.db.Where("device_code = ?", deviceCode).Delete(&models.DeviceCode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDeviceCode(deviceCode string) error {
	return s.db.Where("device_code = ?", deviceCode).Delete(&models.DeviceCode{}).Error
}

// Token operations

func (s *Store) CreateToken(t *models.Token) error {
	return s.db.Create(t).Error
}

func (s *Store) GetTokenByAccessToken(accessToken string) (*models.Token, error) {
	var t models.Token
	if err := s.db.Where("access_token = ?", accessToken).First(&t).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

func (s *Store) GetTokenByRefreshToken(refreshToken string) (*models.Token, error) {
	var t models.Token
	if err := s.db.Where("refresh_token = ?", refreshToken).First(&t).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

func (s *Store) DeleteTokenByAccessToken(accessToken string) error {
	return s.db.Where("access_token = ?", accessToken).Delete(&models.Token{}).Error
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
