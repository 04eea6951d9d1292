package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"speech-grader/entities"
)

// ErrNotFound reports a missing row for the given owner/id pair.
var ErrNotFound = errors.New("recording not found")

// Repository is the ledger holding recording metadata and user credentials.
// Every mutation is a single atomic statement; no multi-statement
// transaction spans this boundary.
type Repository interface {
	Init(ctx context.Context) error
	InsertRecording(ctx context.Context, rec *entities.Recording) (uint, error)
	ListByOwner(ctx context.Context, owner string) ([]entities.Recording, error)
	GetByID(ctx context.Context, owner string, id uint) (*entities.Recording, error)
	DeleteByID(ctx context.Context, owner string, id uint) (bool, error)
	CreateUser(ctx context.Context, username, password string) bool
	VerifyUser(ctx context.Context, username, password string) bool
}

type repo struct {
	db *gorm.DB
}

func NewRepo(dbPath string) (Repository, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	gormDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &repo{db: gormDB}, nil
}

// Init creates the schema when absent and adds newly introduced columns to a
// pre-existing table without touching data. Safe to call on every start.
func (r *repo) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&entities.Recording{}, &entities.User{})
}

func (r *repo) InsertRecording(ctx context.Context, rec *entities.Recording) (uint, error) {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (r *repo) ListByOwner(ctx context.Context, owner string) ([]entities.Recording, error) {
	var recordings []entities.Recording
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Find(&recordings).Error
	if err != nil {
		return nil, err
	}
	// chronological order has to come from parsing, not text comparison:
	// rows legitimately carry mixed layouts.
	for i := range recordings {
		recordings[i].Timestamp = NormalizeTimestamp(recordings[i].Timestamp)
	}
	sort.SliceStable(recordings, func(i, j int) bool {
		ti, _ := parseTimestamp(recordings[i].Timestamp)
		tj, _ := parseTimestamp(recordings[j].Timestamp)
		return ti.After(tj)
	})
	return recordings, nil
}

func (r *repo) GetByID(ctx context.Context, owner string, id uint) (*entities.Recording, error) {
	rec := &entities.Recording{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", owner, id).
		First(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Timestamp = NormalizeTimestamp(rec.Timestamp)
	return rec, nil
}

func (r *repo) DeleteByID(ctx context.Context, owner string, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", owner, id).
		Delete(&entities.Recording{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateUser hashes the password and inserts the account. It reports false
// on any failure, duplicate username included; the HTTP boundary decides how
// to phrase that to the client.
func (r *repo) CreateUser(ctx context.Context, username, password string) bool {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to hash password")
		return false
	}
	user := entities.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		zerolog.Ctx(ctx).Debug().Str("username", username).Err(err).Msg("user creation rejected")
		return false
	}
	return true
}

// VerifyUser reports false uniformly for an unknown username or a wrong
// password, so callers cannot enumerate accounts.
func (r *repo) VerifyUser(ctx context.Context, username, password string) bool {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// timestampLayouts are the two representations historical rows may carry:
// RFC3339 and the space-separated form, each with or without sub-second
// precision.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// NormalizeTimestamp renders a stored timestamp as ISO-8601. Values that
// match no known layout pass through unchanged rather than failing the
// whole query.
func NormalizeTimestamp(raw string) string {
	if ts, ok := parseTimestamp(raw); ok {
		return ts.Format(time.RFC3339Nano)
	}
	return raw
}
