package model

import "time"

// 操作の種類
type AuditAction string

const (
	//テーブルの強制解放。
	AuditActionForceReleaseTable AuditAction = "FORCE_RELEASE_TABLE"
	//注文キャンセル。
	AuditActionCancelOrder AuditAction = "CANCEL_ORDER"
	//在庫を調整した操作。
	AuditActionAdjustStock AuditAction = "ADJUST_STOCK"
	//商品の作成・公開状態変更。
	AuditActionUpdateProduct AuditAction = "UPDATE_PRODUCT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceTable   AuditResourceType = "table"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceProduct AuditResourceType = "product"
)

// 監査ログ（オペレーター操作ログ）。
// 「誰が」「何を」「どの対象に」行ったかを残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したスタッフのID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//補足情報（JSON文字列）。
	Detail string `gorm:"type:text" json:"detail"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
