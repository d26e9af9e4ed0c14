package db

import (
	"fmt"
	"os"

	"app/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect() (*gorm.DB, error) {
	// DATABASE_URL があれば最優先で使う
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "postgres")
	pass := getenv("POSTGRES_PASSWORD", "postgres")
	name := getenv("POSTGRES_DB", "app")
	ssl := getenv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, ssl,
	)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate はスキーマを作り、業務制約のインデックスを張る。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Product{},
		&model.Adicional{},
		&model.Table{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		return err
	}

	// 1テーブルにつきアクティブ注文は1件。
	// アプリ側の存在チェックだけだと同時作成で競合するのでDBでも保証する。
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_active_table
		 ON orders (table_id)
		 WHERE table_id IS NOT NULL
		   AND status NOT IN ('CANCELLED','DELIVERED','FINALIZED')`,
	).Error
}

// SeedTables は初回起動時にフロアのテーブルを作る。既にあれば何もしない。
func SeedTables(db *gorm.DB, count int) error {
	var n int64
	if err := db.Model(&model.Table{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tables := make([]model.Table, 0, count)
	for i := 1; i <= count; i++ {
		tables = append(tables, model.Table{
			Number:   fmt.Sprintf("%d", i),
			Capacity: 4,
			Status:   model.TableStatusFree,
		})
	}
	return db.Create(&tables).Error
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
