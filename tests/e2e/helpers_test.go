package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// BASE_URLを指していない環境ではスキップする。
// 例: BASE_URL=http://localhost:8080 go test ./tests/e2e/...
type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		t.Skip("BASE_URL not set; skipping e2e tests")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}

	return &TestClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}
}

// DATABASE_URLがあれば直接DBを確認できる（監査ログなど）。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping DB assertions")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	return db
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int64  `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenVersion int64  `json:"token_version"`
}

type AuthLoginResponse struct {
	User  UserDTO        `json:"user"`
	Token JwtAccessToken `json:"token"`
}

type TableDTO struct {
	ID           int64  `json:"id"`
	Number       string `json:"number"`
	Capacity     int    `json:"capacity"`
	Status       string `json:"status"`
	AssignedToID *int64 `json:"assigned_to_id"`
}

type ActiveOrderDTO struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	Total      int64  `json:"total"`
	IsActive   bool   `json:"is_active"`
	IsReceived bool   `json:"is_received"`
}

type TableStateDTO struct {
	ID           int64            `json:"id"`
	Number       string           `json:"number"`
	Status       string           `json:"status"`
	AssignedToID *int64           `json:"assigned_to_id"`
	ActiveOrders []ActiveOrderDTO `json:"active_orders"`
}

type TableStatusCheckDTO struct {
	Table            TableDTO         `json:"table"`
	ActiveOrders     []ActiveOrderDTO `json:"active_orders"`
	ShouldBeOccupied bool             `json:"should_be_occupied"`
	StatusMatches    bool             `json:"status_matches"`
}

type OrderItemDTO struct {
	ID            int64   `json:"id"`
	ProductID     int64   `json:"product_id"`
	Name          string  `json:"name"`
	Price         int64   `json:"price"`
	Quantity      int64   `json:"quantity"`
	AdicionaisIDs []int64 `json:"adicionais_ids"`
}

type OrderDTO struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	TableID       *int64         `json:"table_id"`
	Status        string         `json:"status"`
	Total         int64          `json:"total"`
	IsPaid        bool           `json:"is_paid"`
	IsActive      bool           `json:"is_active"`
	PaymentMethod string         `json:"payment_method"`
	Items         []OrderItemDTO `json:"items"`
}

func (c *TestClient) doJSON(
	ctx context.Context,
	t *testing.T,
	method string,
	path string,
	bearer string,
	bodyBytes []byte,
) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if bodyBytes != nil {
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("http.NewRequest failed: %v", err)
	}

	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		t.Fatalf("HTTP.Do failed: %v", err)
	}

	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	return resp, data
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	return b
}

func mustUnmarshal(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("json.Unmarshal failed: %v body=%s", err, string(body))
	}
}

// 管理者を登録してログインし、アクセストークンを返す。
// 既に登録済みならログインだけが通る。
func loginAsAdmin(t *testing.T, c *TestClient, ctx context.Context) (string, int64) {
	t.Helper()

	email := "e2e-admin@example.com"
	password := "e2e-admin-password-123"

	_, _ = c.doJSON(ctx, t, http.MethodPost, "/auth/register", "", mustMarshal(t, map[string]string{
		"name":     "E2E Admin",
		"email":    email,
		"password": password,
		"role":     "ADMIN",
	}))

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/auth/login", "", mustMarshal(t, map[string]string{
		"email":    email,
		"password": password,
	}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var login AuthLoginResponse
	mustUnmarshal(t, body, &login)
	return login.Token.AccessToken, login.User.ID
}

// 商品を1つ用意してIDを返す。
func createProduct(t *testing.T, c *TestClient, ctx context.Context, access string, name string, price int64) int64 {
	t.Helper()

	resp, body := c.doJSON(ctx, t, http.MethodPost, "/admin/products", access, mustMarshal(t, map[string]interface{}{
		"name":         name,
		"description":  "e2e product",
		"price":        price,
		"stock":        100,
		"is_available": true,
	}))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var created struct {
		ID int64 `json:"id"`
	}
	mustUnmarshal(t, body, &created)
	return created.ID
}

// FREEなテーブルを探す。見つからなければテストは失敗。
func findFreeTable(t *testing.T, c *TestClient, ctx context.Context, access string) TableDTO {
	t.Helper()

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/tables", access, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list tables failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var tables []TableDTO
	mustUnmarshal(t, body, &tables)
	for _, tb := range tables {
		if tb.Status == "FREE" {
			return tb
		}
	}
	t.Fatal("no FREE table available for e2e test")
	return TableDTO{}
}

func tablePath(tableID int64, suffix string) string {
	return fmt.Sprintf("/tables/%d/%s", tableID, suffix)
}

func orderPath(orderID int64, suffix string) string {
	return fmt.Sprintf("/orders/%d/%s", orderID, suffix)
}
