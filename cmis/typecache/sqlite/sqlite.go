// Package sqlite implements a persistent type-definition cache using GORM
// over SQLite. Definitions are stored in their wire JSON form, so the
// payload survives upgrades that add model fields.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/content-interop/cmis-go/cmis/jsoncodec"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/cmis/typecache"
)

func init() {
	typecache.Register("sqlite", NewStore)
}

// Settings are the sqlite driver options.
type Settings struct {
	// Filename inside DataDir, defaults to typecache.db.
	Filename string `mapstructure:"filename"`
}

// typeRecord is one cached definition row.
type typeRecord struct {
	RepositoryID string `gorm:"primaryKey"`
	TypeID       string `gorm:"primaryKey"`
	Payload      []byte
	UpdatedAt    int64
}

// Store is the GORM-backed cache.
type Store struct {
	db    *gorm.DB
	codec jsoncodec.Codec
}

// NewStore opens the database and migrates the schema.
func NewStore(cfg *typecache.DriverConfig) (typecache.Store, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required for sqlite type cache")
	}
	var settings Settings
	if cfg.Settings != nil {
		if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
			return nil, err
		}
	}
	if settings.Filename == "" {
		settings.Filename = "typecache.db"
	}

	dbPath := filepath.Join(cfg.DataDir, settings.Filename)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open type cache database: %w", err)
	}
	if err := db.AutoMigrate(&typeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate type cache database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, repositoryID, typeID string) (*model.TypeDefinition, error) {
	var rec typeRecord
	result := s.db.WithContext(ctx).
		First(&rec, "repository_id = ? AND type_id = ?", repositoryID, typeID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, typecache.ErrNotFound
		}
		return nil, result.Error
	}
	def, err := s.codec.DecodeTypeDefinition(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("corrupt type cache row %s/%s: %w", repositoryID, typeID, err)
	}
	return def, nil
}

func (s *Store) Put(ctx context.Context, repositoryID string, def *model.TypeDefinition) error {
	wire, err := s.codec.EncodeTypeDefinition(def)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	rec := typeRecord{
		RepositoryID: repositoryID,
		TypeID:       def.ID,
		Payload:      payload,
		UpdatedAt:    time.Now().Unix(),
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

func (s *Store) Remove(ctx context.Context, repositoryID, typeID string) error {
	return s.db.WithContext(ctx).
		Delete(&typeRecord{}, "repository_id = ? AND type_id = ?", repositoryID, typeID).Error
}

func (s *Store) RemoveAll(ctx context.Context, repositoryID string) error {
	return s.db.WithContext(ctx).
		Delete(&typeRecord{}, "repository_id = ?", repositoryID).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ typecache.Store = (*Store)(nil)
