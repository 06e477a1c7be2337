package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prize-lottery/internal/config"
	"github.com/prize-lottery/internal/constants"
	"github.com/prize-lottery/internal/lottery"
	"github.com/prize-lottery/internal/models"
	"github.com/prize-lottery/internal/provider"

	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"
)

const routerTestSecret = "router-secret"

func setupRouterTest(t *testing.T) (*gin.Engine, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := models.OpenDB("sqlite", dsn, gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "debug"},
		Admin:    config.AdminConfig{Secret: routerTestSecret},
		Campaign: config.CampaignConfig{TicketExpiresAt: "2099-12-31T14:59:59Z"},
		Draw: config.DrawConfig{
			Weights: map[string]string{"ss": "0.001", "s": "0.015", "a": "0.12", "b": "0.864"},
		},
	}
	c, err := provider.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	return SetupRouter(cfg, c), c
}

// seedLowestRank 只放入 B 等级库存，任意抽中等级都会降级命中
func seedLowestRank(t *testing.T, c *provider.Container, codes ...string) {
	t.Helper()
	items := make([]models.PrizeCode, 0, len(codes))
	for _, code := range codes {
		items = append(items, models.PrizeCode{
			Code:        code,
			BenefitText: lottery.BenefitPrefix(constants.RankB) + " " + code,
			Rank:        constants.RankB,
			Status:      constants.PrizeCodeStatusUnassigned,
		})
	}
	if err := c.PrizeCodeRepo.CreateBatch(context.Background(), items); err != nil {
		t.Fatalf("seed codes failed: %v", err)
	}
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func postJSONWithHeader(r *gin.Engine, path, body, header, value string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, value)
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestDrawFlowThroughRouter(t *testing.T) {
	r, c := setupRouterTest(t)
	seedLowestRank(t, c, "LOT-B-0001")

	w := postJSON(r, "/api/admin/add-ticket", `{"secret":"router-secret","phone":"090-1111-2222"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("add ticket want 200 ok got %d %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/admin/ticket-count", `{"secret":"router-secret","phone":"09011112222"}`)
	if resp := decodeBody(t, w); resp["count"] != float64(1) {
		t.Fatalf("ticket count want 1 got %v", resp)
	}

	w = postJSON(r, "/api/draw", `{"phone":"09011112222"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("draw want 200 got %d %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if resp["code"] != "LOT-B-0001" || resp["benefit_text"] != "B賞 LOT-B-0001" {
		t.Fatalf("unexpected draw response: %v", resp)
	}
	if len(resp) != 2 {
		t.Fatalf("draw response should only carry code and benefit_text: %v", resp)
	}

	w = postJSON(r, "/api/draw", `{"phone":"09011112222"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second draw want 400 got %d", w.Code)
	}
	if resp := decodeBody(t, w); resp["error"] == nil || resp["error"] == "" {
		t.Fatalf("error body expected, got %v", resp)
	}

	w = postJSON(r, "/api/admin/redeem", `{"secret":"router-secret","code":"0001"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("redeem by short code want 200 got %d %s", w.Code, w.Body.String())
	}
	w = postJSON(r, "/api/admin/redeem", `{"secret":"router-secret","code":"0001"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("redeem twice want 404 got %d", w.Code)
	}

	w = postJSON(r, "/api/admin/lookup", `{"secret":"router-secret","query":"0001"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup want 200 got %d %s", w.Code, w.Body.String())
	}
	lookup := decodeBody(t, w)
	if lookup["phone"] != "09011112222" {
		t.Fatalf("lookup phone mismatch: %v", lookup)
	}
	tickets, _ := lookup["tickets"].(map[string]interface{})
	if tickets["used"] != float64(1) || tickets["unused"] != float64(0) {
		t.Fatalf("lookup tickets mismatch: %v", tickets)
	}

	w = postJSON(r, "/api/admin/operation-logs", `{"secret":"router-secret"}`)
	logs := decodeBody(t, w)
	if logs["total"] != float64(2) || logs["page"] != float64(1) || logs["page_size"] != float64(20) {
		t.Fatalf("operation logs mismatch: %v", logs)
	}
}

func TestAdminRoutesRejectWrongSecret(t *testing.T) {
	r, _ := setupRouterTest(t)

	paths := []string{
		"/api/admin/add-ticket",
		"/api/admin/remove-ticket",
		"/api/admin/ticket-count",
		"/api/admin/redeem",
		"/api/admin/unredeem",
		"/api/admin/stock",
		"/api/admin/lookup",
		"/api/admin/user",
		"/api/admin/reconcile",
		"/api/admin/operation-logs",
	}
	for _, path := range paths {
		w := postJSON(r, path, `{"secret":"wrong","phone":"09011112222","code":"0001","query":"0001"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s want 401 got %d", path, w.Code)
		}
		if resp := decodeBody(t, w); resp["error"] != "secret mismatch" {
			t.Fatalf("%s error body mismatch: %v", path, resp)
		}
	}
}

func TestAdminRoutesStatusMapping(t *testing.T) {
	r, c := setupRouterTest(t)
	seedLowestRank(t, c, "LOT-B-0002", "LOT-B-0003")

	w := postJSON(r, "/api/admin/add-ticket", `{"secret":"router-secret"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing phone want 400 got %d", w.Code)
	}
	w = postJSON(r, "/api/admin/remove-ticket", `{"secret":"router-secret","phone":"09099998888"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("remove without ticket want 404 got %d", w.Code)
	}
	w = postJSON(r, "/api/admin/lookup", `{"secret":"router-secret","query":"ZZZZ"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("lookup miss want 404 got %d", w.Code)
	}
	w = postJSON(r, "/api/admin/reconcile", `{"secret":"router-secret","window_minutes":-1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative window want 400 got %d", w.Code)
	}
	w = postJSON(r, "/api/draw", `not-json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body want 400 got %d", w.Code)
	}

	w = postJSON(r, "/api/admin/stock", `{"secret":"router-secret"}`)
	stock := decodeBody(t, w)
	if stock["b"] != float64(2) || stock["total"] != float64(2) || stock["ss"] != float64(0) {
		t.Fatalf("stock mismatch: %v", stock)
	}

	w = postJSON(r, "/api/admin/reconcile", `{"secret":"router-secret"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"findings":[]`) {
		t.Fatalf("reconcile want empty findings got %d %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/admin/user", `{"secret":"router-secret","phone":"09099998888"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"codes":[]`) {
		t.Fatalf("user codes want empty list got %d %s", w.Code, w.Body.String())
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	r, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("healthz want 200 ok got %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request id header should be set")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "lottery_http_requests_total") {
		t.Fatalf("metrics exposition should include request counter")
	}
}

func TestErrorMessagesFollowRequestLocale(t *testing.T) {
	r, _ := setupRouterTest(t)

	w := postJSONWithHeader(r, "/api/admin/stock", `{"secret":"wrong"}`, "X-Locale", "ja")
	if resp := decodeBody(t, w); w.Code != http.StatusUnauthorized || resp["error"] != "合言葉が違います" {
		t.Fatalf("ja secret mismatch want 401 合言葉が違います got %d %v", w.Code, resp)
	}

	w = postJSONWithHeader(r, "/api/draw", `{"phone":"09055556666"}`, "Accept-Language", "ja-JP,en;q=0.5")
	if resp := decodeBody(t, w); w.Code != http.StatusBadRequest || resp["error"] != "抽選権がありません" {
		t.Fatalf("ja no ticket want 400 抽選権がありません got %d %v", w.Code, resp)
	}

	w = postJSON(r, "/api/draw", `{"phone":"09055556666"}`)
	if resp := decodeBody(t, w); resp["error"] != "no usable draw ticket" {
		t.Fatalf("default locale message mismatch: %v", resp)
	}
}

func TestStoreFailureSurfacesCause(t *testing.T) {
	r, _ := setupRouterTest(t)

	sqlDB, err := models.DB.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close sql db failed: %v", err)
	}

	w := postJSON(r, "/api/admin/ticket-count", `{"secret":"router-secret","phone":"09011112222"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("closed store want 500 got %d %s", w.Code, w.Body.String())
	}
	msg, _ := decodeBody(t, w)["error"].(string)
	if !strings.HasPrefix(msg, "store failure: count_tickets: ") {
		t.Fatalf("store failure should name the operation, got %q", msg)
	}
	if !strings.Contains(msg, "database is closed") {
		t.Fatalf("store failure should carry the driver cause, got %q", msg)
	}
}
