package market

import (
	"context"

	"github.com/google/uuid"

	"gigboard/models"
)

// OpenGigsFilter 是查詢開放中工作的條件
type OpenGigsFilter struct {
	Search string
	Offset int
	Limit  int
}

// GigRepository 定義工作與管理員成員關係的存取操作
type GigRepository interface {
	// CreateGig 建立工作以及初始管理員
	CreateGig(ctx context.Context, gig *models.Gig) error
	// FindGig 以 ID 取得工作(包含管理員)，不存在時回傳 NOT_FOUND
	FindGig(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	// LockGig 與 FindGig 相同，但在交易中對工作加上共享鎖，直到交易結束前狀態不會被其他交易修改
	LockGig(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	// ListOpenGigs 以標題子字串搜尋開放中的工作，並回傳總筆數
	ListOpenGigs(ctx context.Context, filter OpenGigsFilter) ([]models.Gig, int64, error)
	// ListGigsForUser 列出使用者擁有或管理的工作
	ListGigsForUser(ctx context.Context, userID uuid.UUID) ([]models.Gig, error)
	// AddGigAdmin 新增管理員，重複新增回傳 CONFLICT
	AddGigAdmin(ctx context.Context, gigID, userID uuid.UUID) error
	// RemoveGigAdmin 移除管理員，回傳是否真的有移除
	RemoveGigAdmin(ctx context.Context, gigID, userID uuid.UUID) (bool, error)
	// ClaimGig 只在工作狀態仍為 open 時將其改為 assigned (compare-and-set)
	ClaimGig(ctx context.Context, gigID uuid.UUID) (bool, error)
}

// BidRepository 定義出價的存取操作
type BidRepository interface {
	// CreateBid 建立出價，(gig_id, freelancer_id) 重複時回傳 DUPLICATE_BID
	CreateBid(ctx context.Context, bid *models.Bid) error
	// FindBid 以 ID 取得出價，不存在時回傳 NOT_FOUND
	FindBid(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	// ListBidsByGig 依建立時間新到舊列出工作的所有出價(包含出價者)
	ListBidsByGig(ctx context.Context, gigID uuid.UUID) ([]models.Bid, error)
	// ListBidsByFreelancer 依建立時間新到舊列出接案者的所有出價(包含工作與擁有者)
	ListBidsByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Bid, error)
	// AcceptBid 只在出價仍為 pending 時將其改為 hired (compare-and-set)
	AcceptBid(ctx context.Context, bidID, gigID uuid.UUID) (bool, error)
	// RejectPendingBids 將同工作中其他 pending 的出價改為 rejected，回傳影響筆數
	RejectPendingBids(ctx context.Context, gigID, exceptBidID uuid.UUID) (int64, error)
}

// NotificationRepository 定義持久化通知的存取操作
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	// ListNotifications 依建立時間新到舊列出使用者的通知
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	// MarkNotificationRead 將屬於使用者的通知標記為已讀，不存在或不屬於該使用者時回傳 NOT_FOUND
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error)
}

// UserRepository 定義使用者鏡像資料的存取操作
type UserRepository interface {
	// UpsertUser 以 ID 新增或更新使用者的名稱與 Email
	UpsertUser(ctx context.Context, user *models.User) error
	// FindUsers 取得所有存在的使用者，不存在的 ID 會被忽略
	FindUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	// FindUserByEmail 以 Email (不分大小寫) 取得使用者，不存在時回傳 NOT_FOUND
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Repository 是業務邏輯所需的所有儲存操作
// Transaction 中的 fn 收到的是綁定同一個交易的 Repository，fn 回傳錯誤時整個交易會回滾。
// 實作可以在遇到暫時性的提交衝突時重新執行 fn，因此 fn 不能有交易以外的副作用。
type Repository interface {
	GigRepository
	BidRepository
	NotificationRepository
	UserRepository

	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

// Event 是推播給使用者的即時事件
type Event struct {
	Type    models.NotificationType `json:"-" msgpack:"type"`
	ID      string                  `json:"id" msgpack:"id"`
	Message string                  `json:"message" msgpack:"message"`
	GigID   string                  `json:"gigId" msgpack:"gigId"`
	BidID   string                  `json:"bidId,omitempty" msgpack:"bidId,omitempty"`
}

// Dispatcher 將事件推送給使用者目前所有連線中的 session
// 推送是盡力而為的，失敗不會影響已經提交的狀態
type Dispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, event Event) error
}
