package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"

	"gigboard/models"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
	MaxBidMessageLength  = 2000

	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage 確保 (page-1)*limit 不會溢位
	MaxPage = 100000
)

// Service 實作工作、出價、雇用與通知的業務邏輯
type Service struct {
	repo        Repository
	dispatcher  Dispatcher
	htmlChecker *bluemonday.Policy
	logger      *slog.Logger
}

type ServiceOption func(*Service)

// WithServiceLogger 設置日誌記錄器
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServiceHTMLPolicy 設置描述與出價訊息的 HTML 過濾規則
func WithServiceHTMLPolicy(policy *bluemonday.Policy) ServiceOption {
	return func(s *Service) {
		s.htmlChecker = policy
	}
}

// NewService 建立業務邏輯服務，dispatcher 為 nil 時不會進行即時推播
func NewService(repo Repository, dispatcher Dispatcher, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository cannot be nil")
	}
	s := &Service{
		repo:        repo,
		dispatcher:  dispatcher,
		htmlChecker: bluemonday.UGCPolicy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("caller", "MarketService"))
	return s, nil
}

// SyncUser 將身分提供者的使用者資訊同步到本地
func (s *Service) SyncUser(ctx context.Context, id uuid.UUID, name, email string) (*models.User, error) {
	const op = "Service.SyncUser"
	if id == uuid.Nil {
		return nil, Validation(op, "User id is required")
	}
	user := &models.User{
		ID:    id,
		Name:  strings.TrimSpace(name),
		Email: lo.EmptyableToPtr(strings.ToLower(strings.TrimSpace(email))),
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

type CreateGigInput struct {
	Title       string
	Description string
	Budget      float64
	Admins      []uuid.UUID
}

// CreateGig 建立工作，呼叫者成為擁有者
// 初始管理員清單會移除空值與擁有者本身並去除重複
func (s *Service) CreateGig(ctx context.Context, input CreateGigInput, callerID uuid.UUID) (*models.Gig, error) {
	const op = "Service.CreateGig"
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(s.htmlChecker.Sanitize(input.Description))
	switch {
	case title == "":
		return nil, Validation(op, "Title is required")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return nil, Validation(op, fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLength))
	case description == "":
		return nil, Validation(op, "Description is required")
	case utf8.RuneCountInString(description) > MaxDescriptionLength:
		return nil, Validation(op, fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLength))
	case !(input.Budget > 0) || math.IsInf(input.Budget, 0):
		return nil, Validation(op, "Budget must be a positive number")
	}

	adminIDs := lo.Uniq(lo.Filter(input.Admins, func(id uuid.UUID, _ int) bool {
		return id != uuid.Nil && id != callerID
	}))
	if len(adminIDs) > 0 {
		users, err := s.repo.FindUsers(ctx, adminIDs)
		if err != nil {
			return nil, err
		}
		if len(users) != len(adminIDs) {
			return nil, Validation(op, "Some admins are not registered users")
		}
	}

	gig := &models.Gig{
		Title:       title,
		Description: description,
		Budget:      input.Budget,
		OwnerID:     callerID,
		Status:      models.GigStatusOpen,
		Admins: lo.Map(adminIDs, func(id uuid.UUID, _ int) models.GigAdmin {
			return models.GigAdmin{UserID: id}
		}),
	}
	if err := s.repo.CreateGig(ctx, gig); err != nil {
		return nil, err
	}
	return s.repo.FindGig(ctx, gig.ID)
}

// GetGig 取得單一工作
func (s *Service) GetGig(ctx context.Context, gigID uuid.UUID) (*models.Gig, error) {
	return s.repo.FindGig(ctx, gigID)
}

// ListMyGigs 列出呼叫者擁有或管理的工作
func (s *Service) ListMyGigs(ctx context.Context, callerID uuid.UUID) ([]models.Gig, error) {
	return s.repo.ListGigsForUser(ctx, callerID)
}

type OpenGigsQuery struct {
	Search string
	Page   int
	Limit  int
}

type GigPage struct {
	Gigs       []models.Gig
	Total      int64
	TotalPages int
	Page       int
	Limit      int
}

// ListOpenGigs 以標題子字串(不分大小寫)分頁查詢開放中的工作
func (s *Service) ListOpenGigs(ctx context.Context, query OpenGigsQuery) (*GigPage, error) {
	const op = "Service.ListOpenGigs"
	if query.Page > MaxPage {
		return nil, Validation(op, fmt.Sprintf("Page cannot exceed %d", MaxPage))
	}
	page := max(query.Page, 1)
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	gigs, total, err := s.repo.ListOpenGigs(ctx, OpenGigsFilter{
		Search: strings.TrimSpace(query.Search),
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return &GigPage{
		Gigs:       gigs,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		Page:       page,
		Limit:      limit,
	}, nil
}

// AddAdmin 以 Email 新增工作的管理員(僅限擁有者)，並通知被新增的使用者
func (s *Service) AddAdmin(ctx context.Context, gigID uuid.UUID, email string, callerID uuid.UUID) (*models.Gig, error) {
	const op = "Service.AddAdmin"
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, Validation(op, "Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, Validation(op, "Email is invalid")
	}
	gig, err := s.repo.FindGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if !CanManageAdmins(gig, callerID) {
		return nil, Forbidden(op, "Only the owner can manage admins")
	}
	target, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFound(op, "User with that email not found")
		}
		return nil, err
	}
	if IsOwner(gig, target.ID) {
		return nil, Conflict(op, "Owner cannot be added as admin")
	}
	if !CanAddAdmin(gig, target.ID) {
		return nil, Conflict(op, "User is already an admin")
	}
	if err := s.repo.AddGigAdmin(ctx, gig.ID, target.ID); err != nil {
		return nil, err
	}
	updated, err := s.repo.FindGig(ctx, gig.ID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &models.Notification{
		UserID:  target.ID,
		Type:    models.NotificationTypeAdminAssigned,
		Message: fmt.Sprintf("You have been assigned as an admin for the gig %q", updated.Title),
		Data:    newNotificationData(updated.ID, nil),
	})
	return updated, nil
}

// RemoveAdmin 移除工作的管理員(僅限擁有者)
func (s *Service) RemoveAdmin(ctx context.Context, gigID, userID, callerID uuid.UUID) (*models.Gig, error) {
	const op = "Service.RemoveAdmin"
	gig, err := s.repo.FindGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if !CanManageAdmins(gig, callerID) {
		return nil, Forbidden(op, "Only the owner can manage admins")
	}
	if !IsAdmin(gig, userID) {
		return nil, NotFound(op, "Admin not found on this gig")
	}
	removed, err := s.repo.RemoveGigAdmin(ctx, gig.ID, userID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, NotFound(op, "Admin not found on this gig")
	}
	return s.repo.FindGig(ctx, gig.ID)
}

// ListNotifications 列出呼叫者的通知
func (s *Service) ListNotifications(ctx context.Context, callerID uuid.UUID) ([]models.Notification, error) {
	return s.repo.ListNotifications(ctx, callerID)
}

// MarkRead 將呼叫者的通知標記為已讀
func (s *Service) MarkRead(ctx context.Context, notificationID, callerID uuid.UUID) (*models.Notification, error) {
	return s.repo.MarkNotificationRead(ctx, notificationID, callerID)
}
