package model

import "time"

// 注文明細。Priceは作成時に確定した単価（商品価格＋選択した追加の価格）。
// 後から商品や追加の価格が変わっても再計算しない。
type OrderItem struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64     `gorm:"not null;index" json:"order_id"`
	ProductID      int64     `gorm:"not null;index" json:"product_id"`
	Quantity       int64     `gorm:"not null" json:"quantity"`
	Price          int64     `gorm:"not null" json:"price"`
	Notes          string    `gorm:"type:text" json:"notes"`
	Customizations string    `gorm:"type:text" json:"customizations"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}
