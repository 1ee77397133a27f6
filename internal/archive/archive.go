// Package archive stores the standings of finished games in postgres.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thegreathir/jigarpich/internal/engine"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type GameRecord struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	RoomID     string       `gorm:"size:5;not null;index" json:"room_id"`
	Rounds     int          `gorm:"not null" json:"rounds"`
	FinishedAt time.Time    `gorm:"not null;index" json:"finished_at"`
	Teams      []TeamRecord `gorm:"foreignKey:GameRecordID;constraint:OnDelete:CASCADE" json:"teams"`
}

type TeamRecord struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	GameRecordID uint   `gorm:"not null;index" json:"-"`
	Position     int    `gorm:"not null" json:"position"`
	Label        string `gorm:"size:16" json:"label"`
	Members      string `gorm:"size:255" json:"members"`
	ElapsedMs    int64  `gorm:"not null" json:"elapsed_ms"`
	Leading      bool   `json:"leading"`
}

type Archive struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to dsn and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Archive, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	a, err := New(db)
	if err != nil {
		return nil, err
	}
	log.Info("results archive ready")
	return a, nil
}

func New(db *gorm.DB) (*Archive, error) {
	if err := db.AutoMigrate(&GameRecord{}, &TeamRecord{}); err != nil {
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return &Archive{db: db, now: time.Now}, nil
}

// RecordGame stores one finished game with its teams in table order.
func (a *Archive) RecordGame(ctx context.Context, roomID string, rounds int, standings []engine.Standing) error {
	rec := GameRecord{RoomID: roomID, Rounds: rounds, FinishedAt: a.now().UTC()}
	for i, s := range standings {
		names := make([]string, len(s.Members))
		for j, m := range s.Members {
			names[j] = m.Name
		}
		rec.Teams = append(rec.Teams, TeamRecord{
			Position:  i,
			Label:     s.Team,
			Members:   strings.Join(names, " & "),
			ElapsedMs: s.Elapsed.Milliseconds(),
			Leading:   s.Leading,
		})
	}
	if err := a.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("archive: record game %s: %w", roomID, err)
	}
	return nil
}

// Recent returns the newest finished games first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	var out []GameRecord
	err := a.db.WithContext(ctx).
		Preload("Teams", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("finished_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("archive: recent: %w", err)
	}
	return out, nil
}

func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
