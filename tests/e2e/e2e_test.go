//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Full sale cycle: login → open → add lines → finalize → list
//   - Partial then full refund with stock restoration
//   - Cancel removes the transaction
//   - Public cached price check

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lanepos/internal/config"
	"lanepos/internal/infra"
	"lanepos/internal/model"
	"lanepos/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	engine *gin.Engine
	db     *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("lanepos_test"),
		tcPostgres.WithUsername("lanepos"),
		tcPostgres.WithPassword("lanepos"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		StoreName:          "LanePOS Test",
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("lanepos2026"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		ID:           uuid.New(),
		Username:     "admin.e2e",
		Name:         "Admin E2E",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Active:       true,
	}).Error)

	r, _ := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "lanepos2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{
		server: srv,
		token:  loginBody.AccessToken,
		engine: r,
		db:     db,
	}
}

// createItem seeds a catalog item over the API and returns its id.
func createItem(t *testing.T, env *testEnv, name, barcode string, price float64, taxRate float64, qty int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/items",
		jsonBody(t, map[string]any{
			"name":     name,
			"price":    price,
			"tax_rate": taxRate,
			"quantity": qty,
			"barcodes": []string{barcode},
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &item)
	return item.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)
	createItem(t, env, "Sparkling Water", "0001112223334", 2.99, 0.0875, 20)

	// Open a transaction
	openResp := do(t, env.server, "POST", "/v1/transactions", jsonBody(t, map[string]any{}), env.token)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var opened struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeJSON(t, openResp, &opened)
	assert.Equal(t, "open", opened.Status)

	// Add a line by barcode
	lineResp := do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/lines",
		jsonBody(t, map[string]any{"barcode": "0001112223334", "quantity": 2}),
		env.token,
	)
	require.Equal(t, http.StatusOK, lineResp.StatusCode)
	var withLine struct {
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	}
	decodeJSON(t, lineResp, &withLine)
	assert.Equal(t, "5.98", withLine.Subtotal)
	assert.Equal(t, "0.52", withLine.Tax)
	assert.Equal(t, "6.5", withLine.Total)

	// Finalize with cash
	finResp := do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/finalize",
		jsonBody(t, map[string]any{"cash_amount": 10}),
		env.token,
	)
	require.Equal(t, http.StatusOK, finResp.StatusCode)
	var fin struct {
		Change      string `json:"change"`
		Transaction struct {
			Status string `json:"status"`
		} `json:"transaction"`
	}
	decodeJSON(t, finResp, &fin)
	assert.Equal(t, "finalized", fin.Transaction.Status)
	assert.Equal(t, "3.5", fin.Change)

	// Stock decremented
	var item model.Item
	require.NoError(t, env.db.Where("name = ?", "Sparkling Water").First(&item).Error)
	assert.Equal(t, 18, item.Quantity)

	// Listed with refund_status none
	listResp := do(t, env.server, "GET", "/v1/transactions", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Data []struct {
			ID           string `json:"id"`
			RefundStatus string `json:"refund_status"`
		} `json:"data"`
	}
	decodeJSON(t, listResp, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, opened.ID, list.Data[0].ID)
	assert.Equal(t, "none", list.Data[0].RefundStatus)
}

func TestE2E_RefundCycle(t *testing.T) {
	env := setupTestEnv(t)
	createItem(t, env, "Orange Juice", "0102030405060", 4.50, 0.07, 10)
	createItem(t, env, "Granola", "0607080910111", 6.25, 0.07, 10)

	// Build and finalize a two-line sale.
	var opened struct {
		ID string `json:"id"`
	}
	decodeJSON(t, do(t, env.server, "POST", "/v1/transactions", jsonBody(t, map[string]any{}), env.token), &opened)

	do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/lines",
		jsonBody(t, map[string]any{"barcode": "0102030405060", "quantity": 2}), env.token)
	var withLines struct {
		Lines []struct {
			ID string `json:"id"`
		} `json:"lines"`
	}
	decodeJSON(t, do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/lines",
		jsonBody(t, map[string]any{"barcode": "0607080910111", "quantity": 1}), env.token), &withLines)
	require.Len(t, withLines.Lines, 2)

	finResp := do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/finalize",
		jsonBody(t, map[string]any{"cash_amount": 50}), env.token)
	require.Equal(t, http.StatusOK, finResp.StatusCode)
	finResp.Body.Close()

	// Partial refund: first line only.
	ref1Resp := do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/refund",
		jsonBody(t, map[string]any{"line_ids": []string{withLines.Lines[0].ID}}), env.token)
	require.Equal(t, http.StatusOK, ref1Resp.StatusCode)
	var ref1 struct {
		RefundID string `json:"refund_id"`
		Total    string `json:"total"`
		Partial  bool   `json:"partial"`
	}
	decodeJSON(t, ref1Resp, &ref1)
	assert.True(t, ref1.Partial)
	assert.Equal(t, "9.63", ref1.Total)

	// Stock restored for the refunded line.
	var juice model.Item
	require.NoError(t, env.db.Where("name = ?", "Orange Juice").First(&juice).Error)
	assert.Equal(t, 10, juice.Quantity)

	// Re-selecting an already refunded line is a bad request.
	dupResp := do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/refund",
		jsonBody(t, map[string]any{"line_ids": []string{withLines.Lines[0].ID}}), env.token)
	assert.Equal(t, http.StatusBadRequest, dupResp.StatusCode)
	dupResp.Body.Close()

	// Full refund: remaining line. Same refund record reused.
	ref2Resp := do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/refund",
		jsonBody(t, map[string]any{"line_ids": []string{withLines.Lines[1].ID}}), env.token)
	require.Equal(t, http.StatusOK, ref2Resp.StatusCode)
	var ref2 struct {
		RefundID string `json:"refund_id"`
		Partial  bool   `json:"partial"`
	}
	decodeJSON(t, ref2Resp, &ref2)
	assert.False(t, ref2.Partial)
	assert.Equal(t, ref1.RefundID, ref2.RefundID)

	// Original now refunded; reversal hidden from the listing.
	var listed struct {
		Data []struct {
			ID           string `json:"id"`
			Status       string `json:"status"`
			RefundStatus string `json:"refund_status"`
		} `json:"data"`
	}
	decodeJSON(t, do(t, env.server, "GET", "/v1/transactions", nil, env.token), &listed)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "refunded", listed.Data[0].Status)
	assert.Equal(t, "full", listed.Data[0].RefundStatus)
}

func TestE2E_CancelOpenTransaction(t *testing.T) {
	env := setupTestEnv(t)
	createItem(t, env, "Chips", "7778889990001", 1.99, 0, 5)

	var opened struct {
		ID string `json:"id"`
	}
	decodeJSON(t, do(t, env.server, "POST", "/v1/transactions", jsonBody(t, map[string]any{}), env.token), &opened)
	do(t, env.server, "POST", "/v1/transactions/"+opened.ID+"/lines",
		jsonBody(t, map[string]any{"barcode": "7778889990001", "quantity": 1}), env.token)

	cancelResp := do(t, env.server, "DELETE", "/v1/transactions/"+opened.ID, nil, env.token)
	assert.Equal(t, http.StatusNoContent, cancelResp.StatusCode)
	cancelResp.Body.Close()

	getResp := do(t, env.server, "GET", "/v1/transactions/"+opened.ID, nil, env.token)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()

	// Stock never touched for a cancelled transaction.
	var chips model.Item
	require.NoError(t, env.db.Where("name = ?", "Chips").First(&chips).Error)
	assert.Equal(t, 5, chips.Quantity)
}

func TestE2E_PublicPriceCheck(t *testing.T) {
	env := setupTestEnv(t)
	createItem(t, env, "Trail Mix", "3030303030303", 7.49, 0.0875, 12)

	// No token required.
	resp := do(t, env.server, "GET", "/v1/price/3030303030303", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var price struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	decodeJSON(t, resp, &price)
	assert.Equal(t, "Trail Mix", price.Name)
	assert.Equal(t, "7.49", price.Price)

	// Second hit comes from cache and matches.
	resp2 := do(t, env.server, "GET", "/v1/price/3030303030303", nil, "")
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var cached struct {
		Price string `json:"price"`
	}
	decodeJSON(t, resp2, &cached)
	assert.Equal(t, price.Price, cached.Price)

	// Unknown barcode → 404.
	missResp := do(t, env.server, "GET", "/v1/price/0000000000000", nil, "")
	assert.Equal(t, http.StatusNotFound, missResp.StatusCode)
	missResp.Body.Close()
}
