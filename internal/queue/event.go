// Package queue はブローカーに流すメッセージの定義と送信。
package queue

const (
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
	EventOrderReceived  = "order.received"
)

// キッチン表示やモニターが購読する注文イベント。
// 消費側がDBを引かなくて済む程度の情報だけ持たせる。
type OrderEvent struct {
	Type        string `json:"type"`
	OrderID     int64  `json:"order_id"`
	TableID     *int64 `json:"table_id,omitempty"`
	TableNumber string `json:"table_number,omitempty"`
	Status      string `json:"status"`
	Total       int64  `json:"total"`
	IsPaid      bool   `json:"is_paid"`
	OccurredAt  string `json:"occurred_at"`
}
