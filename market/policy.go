package market

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"gigboard/models"
)

// 以下為授權判斷，全部都是沒有副作用的純函式

func IsOwner(gig *models.Gig, userID uuid.UUID) bool {
	return gig.OwnerID == userID
}

func IsAdmin(gig *models.Gig, userID uuid.UUID) bool {
	return lo.Contains(gig.AdminIDs(), userID)
}

// CanBid 工作仍開放，且出價者不是擁有者也不是管理員
func CanBid(gig *models.Gig, callerID uuid.UUID) bool {
	return gig.Status == models.GigStatusOpen && !IsOwner(gig, callerID) && !IsAdmin(gig, callerID)
}

// CanViewBids 擁有者或管理員才能查看出價
func CanViewBids(gig *models.Gig, callerID uuid.UUID) bool {
	return IsOwner(gig, callerID) || IsAdmin(gig, callerID)
}

// CanHire 與 CanViewBids 相同
func CanHire(gig *models.Gig, callerID uuid.UUID) bool {
	return CanViewBids(gig, callerID)
}

// CanManageAdmins 只有擁有者能管理管理員，管理員不能管理其他管理員
func CanManageAdmins(gig *models.Gig, callerID uuid.UUID) bool {
	return IsOwner(gig, callerID)
}

// CanAddAdmin 目標不能是擁有者，也不能已經是管理員
func CanAddAdmin(gig *models.Gig, targetID uuid.UUID) bool {
	return !IsOwner(gig, targetID) && !IsAdmin(gig, targetID)
}
