package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFinalized OrderStatus = "FINALIZED"
)

// テーブル占有のカウント対象外になるステータス
var TerminalOrderStatuses = []OrderStatus{
	OrderStatusCancelled,
	OrderStatusDelivered,
	OrderStatusFinalized,
}

// IsTerminal は占有判定で終端かどうか。
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusDelivered, OrderStatusFinalized:
		return true
	}
	return false
}

// IsReceived は提供済み（受け取り済み）かどうか。
func (s OrderStatus) IsReceived() bool {
	return s == OrderStatusDelivered || s == OrderStatusFinalized
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodPix  PaymentMethod = "PIX"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPix:
		return true
	}
	return false
}

// 注文。TableIDがnullならカウンター/デリバリー注文。
// Totalは常に明細から計算した値（centavos）。
// IsActiveはstatusとIsPaidから保守する導出フラグで、単独の真実にはしない。
type Order struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64          `gorm:"not null;index" json:"user_id"`
	TableID       *int64         `gorm:"index" json:"table_id"`
	Status        OrderStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	Total         int64          `gorm:"not null" json:"total"`
	IsPaid        bool           `gorm:"not null;default:false" json:"is_paid"`
	IsActive      bool           `gorm:"not null;default:true;index" json:"is_active"`
	PaymentMethod *PaymentMethod `gorm:"type:varchar(10)" json:"payment_method"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`

	User  User        `gorm:"foreignKey:UserID" json:"user"`
	Table *Table      `gorm:"foreignKey:TableID" json:"table,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}
