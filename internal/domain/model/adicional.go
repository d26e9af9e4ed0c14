package model

import "time"

// 商品につけられる有料の追加（adicional）。
// 価格はnull許容でnullは0円扱い。
type Adicional struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Price       *int64    `json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (a Adicional) PriceOrZero() int64 {
	if a.Price == nil {
		return 0
	}
	return *a.Price
}
