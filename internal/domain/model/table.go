package model

import "time"

type TableStatus string

const (
	TableStatusFree        TableStatus = "FREE"
	TableStatusOccupied    TableStatus = "OCCUPIED"
	TableStatusReserved    TableStatus = "RESERVED"
	TableStatusMaintenance TableStatus = "MAINTENANCE"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableStatusFree, TableStatusOccupied, TableStatusReserved, TableStatusMaintenance:
		return true
	}
	return false
}

// 店内のテーブル。Numberは人が読む識別子（"12" や "B3"）。
// AssignedToIDは注文を開始した担当スタッフ。
type Table struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Number       string      `gorm:"type:varchar(10);not null;uniqueIndex" json:"number"`
	Capacity     int         `gorm:"not null;default:4" json:"capacity"`
	Status       TableStatus `gorm:"type:varchar(20);not null;default:'FREE'" json:"status"`
	AssignedToID *int64      `json:"assigned_to_id"`
	CreatedAt    time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`

	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}
