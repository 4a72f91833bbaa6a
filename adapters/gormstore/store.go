package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gigboard/market"
	"gigboard/models"
)

type storeOptions struct {
	maxAttempts int
	logger      *slog.Logger
}

type StoreOption func(*storeOptions)

// WithMaxAttempts 設置交易遇到提交衝突時最多執行的次數
func WithMaxAttempts(n int) StoreOption {
	return func(o *storeOptions) {
		o.maxAttempts = n
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// Store 以 gorm 實作 market.Repository
type Store struct {
	db      *gorm.DB
	options *storeOptions
}

var _ market.Repository = (*Store)(nil)

func New(db *gorm.DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	options := &storeOptions{
		maxAttempts: 3,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.maxAttempts < 1 {
		options.maxAttempts = 1
	}
	options.logger = options.logger.With(slog.String("caller", "GormStore"))
	return &Store{db: db, options: options}, nil
}

// Migrate 建立或更新所有資料表
func (s *Store) Migrate(ctx context.Context) error {
	const op = "Store.Migrate"
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
	}
	return nil
}

// Ping 確認資料庫連線是否正常
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction 在同一個交易中執行 fn
// 當提交因為序列化衝突或死結失敗時，整個 fn 會重新執行，直到次數用完
func (s *Store) Transaction(ctx context.Context, fn func(repo market.Repository) error) error {
	const op = "Store.Transaction"
	var err error
	for attempt := 1; attempt <= s.options.maxAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&Store{db: tx, options: s.options})
		})
		if err == nil {
			return nil
		}
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		s.options.logger.Warn(
			"Transaction conflict, retrying",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
	}
	return wrap(op, err)
}

func (s *Store) CreateGig(ctx context.Context, gig *models.Gig) error {
	const op = "Store.CreateGig"
	admins := gig.Admins
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(gig).Error; err != nil {
			return err
		}
		for i := range admins {
			admins[i].GigID = gig.ID
			if err := tx.Omit(clause.Associations).Create(&admins[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrap(op, err)
	}
	gig.Admins = admins
	return nil
}

func (s *Store) FindGig(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	return s.findGig(ctx, "Store.FindGig", s.db, id)
}

// LockGig 以 SELECT ... FOR SHARE 讀取工作，雇用時的 UPDATE 會等待持有鎖的交易結束
// SQLite 不支援列鎖，交易本身已經是序列化的
func (s *Store) LockGig(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	return s.findGig(ctx, "Store.LockGig", s.db.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}), id)
}

func (s *Store) findGig(ctx context.Context, op string, db *gorm.DB, id uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	err := db.WithContext(ctx).
		Preload("Owner").
		Preload("Admins.User").
		First(&gig, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, market.NotFound(op, "Gig not found")
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return &gig, nil
}

// escapeLike 跳脫 LIKE 的萬用字元，讓搜尋字串只做字面比對
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Store) ListOpenGigs(ctx context.Context, filter market.OpenGigsFilter) ([]models.Gig, int64, error) {
	const op = "Store.ListOpenGigs"
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", models.GigStatusOpen)
		if filter.Search != "" {
			pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
			db = db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Gig{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, wrap(op, err)
	}

	var gigs []models.Gig
	err := s.db.WithContext(ctx).
		Scopes(scope).
		Preload("Owner").
		Order("created_at DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&gigs).Error
	if err != nil {
		return nil, 0, wrap(op, err)
	}
	return gigs, total, nil
}

func (s *Store) ListGigsForUser(ctx context.Context, userID uuid.UUID) ([]models.Gig, error) {
	const op = "Store.ListGigsForUser"
	managed := s.db.WithContext(ctx).Model(&models.GigAdmin{}).Select("gig_id").Where("user_id = ?", userID)
	var gigs []models.Gig
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Admins.User").
		Where("owner_id = ?", userID).
		Or("id IN (?)", managed).
		Order("created_at DESC, id DESC").
		Find(&gigs).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	return gigs, nil
}

func (s *Store) AddGigAdmin(ctx context.Context, gigID, userID uuid.UUID) error {
	const op = "Store.AddGigAdmin"
	err := s.db.WithContext(ctx).Create(&models.GigAdmin{GigID: gigID, UserID: userID}).Error
	if err != nil && isDuplicateKey(err) {
		return market.Conflict(op, "User is already an admin")
	}
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *Store) RemoveGigAdmin(ctx context.Context, gigID, userID uuid.UUID) (bool, error) {
	const op = "Store.RemoveGigAdmin"
	result := s.db.WithContext(ctx).
		Where("gig_id = ? AND user_id = ?", gigID, userID).
		Delete(&models.GigAdmin{})
	if result.Error != nil {
		return false, wrap(op, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) ClaimGig(ctx context.Context, gigID uuid.UUID) (bool, error) {
	const op = "Store.ClaimGig"
	result := s.db.WithContext(ctx).
		Model(&models.Gig{}).
		Where("id = ? AND status = ?", gigID, models.GigStatusOpen).
		Update("status", models.GigStatusAssigned)
	if result.Error != nil {
		return false, wrap(op, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) CreateBid(ctx context.Context, bid *models.Bid) error {
	const op = "Store.CreateBid"
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(bid).Error
	if err != nil && isDuplicateKey(err) {
		return market.DuplicateBid(op, "You have already submitted a bid for this gig")
	}
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *Store) FindBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	const op = "Store.FindBid"
	var bid models.Bid
	err := s.db.WithContext(ctx).Preload("Freelancer").First(&bid, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, market.NotFound(op, "Bid not found")
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return &bid, nil
}

func (s *Store) ListBidsByGig(ctx context.Context, gigID uuid.UUID) ([]models.Bid, error) {
	const op = "Store.ListBidsByGig"
	var bids []models.Bid
	err := s.db.WithContext(ctx).
		Preload("Freelancer").
		Where("gig_id = ?", gigID).
		Order("created_at DESC, id DESC").
		Find(&bids).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	return bids, nil
}

func (s *Store) ListBidsByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Bid, error) {
	const op = "Store.ListBidsByFreelancer"
	var bids []models.Bid
	err := s.db.WithContext(ctx).
		Preload("Gig.Owner").
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC, id DESC").
		Find(&bids).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	return bids, nil
}

func (s *Store) AcceptBid(ctx context.Context, bidID, gigID uuid.UUID) (bool, error) {
	const op = "Store.AcceptBid"
	result := s.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("id = ? AND gig_id = ? AND status = ?", bidID, gigID, models.BidStatusPending).
		Update("status", models.BidStatusHired)
	if result.Error != nil {
		return false, wrap(op, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) RejectPendingBids(ctx context.Context, gigID, exceptBidID uuid.UUID) (int64, error) {
	const op = "Store.RejectPendingBids"
	result := s.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("gig_id = ? AND id <> ? AND status = ?", gigID, exceptBidID, models.BidStatusPending).
		Update("status", models.BidStatusRejected)
	if result.Error != nil {
		return 0, wrap(op, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	const op = "Store.CreateNotification"
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	const op = "Store.ListNotifications"
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	return notifications, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	const op = "Store.MarkNotificationRead"
	var notification models.Notification
	err := s.db.WithContext(ctx).First(&notification, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, market.NotFound(op, "Notification not found")
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	if notification.Read {
		return &notification, nil
	}
	if err := s.db.WithContext(ctx).Model(&notification).Update("read", true).Error; err != nil {
		return nil, wrap(op, err)
	}
	notification.Read = true
	return &notification, nil
}

// UpsertUser 沒有 Email 時保留原本的 Email，不會覆寫成 NULL
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	const op = "Store.UpsertUser"
	columns := []string{"name", "updated_at"}
	if user.Email != nil {
		columns = append(columns, "email")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(user).Error
	if err != nil && isDuplicateKey(err) {
		return market.Conflict(op, "Email is already used by another user")
	}
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *Store) FindUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	const op = "Store.FindUsers"
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrap(op, err)
	}
	return users, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "Store.FindUserByEmail"
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, market.NotFound(op, "User not found")
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return &user, nil
}
