package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"queueflow/internal/adapters/http/middleware"
	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/adapters/persistence/repositories"
	"queueflow/internal/config"
	"queueflow/internal/core/services"
	"queueflow/internal/pkg/clock"
	"queueflow/internal/pkg/jwt"
	"queueflow/internal/pkg/password"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Monday 09:00 UTC
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   string          `json:"error"`
}

type testServer struct {
	app      *fiber.App
	clock    *clock.FakeClock
	centerID uint
	otherID  uint
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	lat, lon := 12.9716, 77.5946
	center := &models.ServiceCenter{Code: "BLR01", Name: "Central", AvgServiceMinutes: 15, IsActive: true, Latitude: &lat, Longitude: &lon}
	other := &models.ServiceCenter{Code: "BLR02", Name: "North", AvgServiceMinutes: 15, IsActive: true, Latitude: &lat, Longitude: &lon}
	for _, c := range []*models.ServiceCenter{center, other} {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("seed center: %v", err)
		}
	}
	hash, err := password.HashWithCost("counter-pass", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Create(&models.Operator{Username: "desk1", Password: hash, CenterID: center.ID, Role: "OPERATOR", IsActive: true}).Error; err != nil {
		t.Fatalf("seed operator: %v", err)
	}

	cfg := &config.Config{AppMode: "dev", JWT: config.JWTConfig{Secret: testSecret, AccessTokenMins: 60}}
	clk := clock.Fake(t0)
	hub := services.NewSSEHub()
	queueService := services.NewQueueService(
		repositories.NewCenterRepository(db),
		repositories.NewParticipantRepository(db),
		repositories.NewTokenRepository(db),
		services.NewQueueNotifyService(hub, time.UTC),
		clk,
		time.UTC,
	)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, &Deps{
		Config:       cfg,
		Location:     time.UTC,
		QueueService: queueService,
		AuthService:  services.NewAuthService(repositories.NewOperatorRepository(db), cfg),
		Hub:          hub,
	})
	return &testServer{app: app, clock: clk, centerID: center.ID, otherID: other.ID}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func operatorToken(t *testing.T, centerID uint, role string) string {
	t.Helper()
	tok, err := jwt.GenerateAccessToken(1, centerID, "desk1", role, testSecret, 60)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

type tokenView struct {
	ID       uint   `json:"id"`
	Ref      string `json:"ref"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	CenterID uint   `json:"center_id"`
}

// activeToken registers a participant standing at the center, books and pays
func (s *testServer) activeToken(t *testing.T, mobile string) tokenView {
	t.Helper()
	lat, lon := 12.9716, 77.5946
	code, env := s.do(t, "POST", "/api/v1/participants", map[string]interface{}{
		"name": "Asha", "mobile": mobile, "latitude": lat, "longitude": lon,
	}, "")
	if code != fiber.StatusOK {
		t.Fatalf("register: %d %s", code, env.Error)
	}
	var p struct {
		ID uint `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &p)

	code, env = s.do(t, "POST", fmt.Sprintf("/api/v1/centers/%d/tokens", s.centerID), map[string]uint{"participant_id": p.ID}, "")
	if code != fiber.StatusCreated {
		t.Fatalf("admit: %d %s", code, env.Error)
	}
	var tok tokenView
	_ = json.Unmarshal(env.Data, &tok)

	code, env = s.do(t, "POST", fmt.Sprintf("/api/v1/tokens/%d/payment", tok.ID), nil, "")
	if code != fiber.StatusOK {
		t.Fatalf("payment: %d %s", code, env.Error)
	}
	_ = json.Unmarshal(env.Data, &tok)
	return tok
}

func TestBookingFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	tok := s.activeToken(t, "9000000001")
	if tok.Status != "Active" || tok.Label != "T001" {
		t.Fatalf("got %+v", tok)
	}

	// paying twice is an invalid transition
	if code, _ := s.do(t, "POST", fmt.Sprintf("/api/v1/tokens/%d/payment", tok.ID), nil, ""); code != fiber.StatusConflict {
		t.Fatalf("second payment status=%d, want 409", code)
	}

	code, env := s.do(t, "GET", fmt.Sprintf("/api/v1/centers/%d/queue/online", s.centerID), nil, "")
	if code != fiber.StatusOK {
		t.Fatalf("queue state: %d %s", code, env.Error)
	}
	var lane struct {
		Tokens []struct {
			Position int    `json:"position"`
			Badge    string `json:"status_badge"`
		} `json:"tokens"`
		CanCallNext bool `json:"can_call_next"`
	}
	if err := json.Unmarshal(env.Data, &lane); err != nil {
		t.Fatalf("decode lane: %v", err)
	}
	if len(lane.Tokens) != 1 || lane.Tokens[0].Position != 1 {
		t.Fatalf("lane %+v", lane)
	}

	code, env = s.do(t, "GET", "/api/v1/track/"+tok.Ref, nil, "")
	if code != fiber.StatusOK {
		t.Fatalf("track: %d %s", code, env.Error)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	tok := s.activeToken(t, "9000000001")

	var p struct {
		ID uint `json:"participant_id"`
	}
	_, env := s.do(t, "GET", fmt.Sprintf("/api/v1/tokens/%d", tok.ID), nil, "")
	var detail struct {
		Token struct {
			ParticipantID uint `json:"participant_id"`
		} `json:"token"`
	}
	_ = json.Unmarshal(env.Data, &detail)
	p.ID = detail.Token.ParticipantID

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown center", "GET", "/api/v1/centers/999", nil, fiber.StatusNotFound},
		{"bad center id", "GET", "/api/v1/centers/abc", nil, fiber.StatusBadRequest},
		{"unknown lane", "GET", fmt.Sprintf("/api/v1/centers/%d/queue/express", s.centerID), nil, fiber.StatusBadRequest},
		{"duplicate token", "POST", fmt.Sprintf("/api/v1/centers/%d/tokens", s.centerID), map[string]uint{"participant_id": p.ID}, fiber.StatusConflict},
		{"admit without participant", "POST", fmt.Sprintf("/api/v1/centers/%d/tokens", s.centerID), map[string]uint{}, fiber.StatusBadRequest},
		{"cancel by stranger", "POST", fmt.Sprintf("/api/v1/tokens/%d/cancel", tok.ID), map[string]uint{"participant_id": p.ID + 100}, fiber.StatusForbidden},
		{"unknown ref", "GET", "/api/v1/track/nope", nil, fiber.StatusNotFound},
		{"bad mobile", "POST", "/api/v1/participants", map[string]string{"name": "X", "mobile": "123"}, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, tt.method, tt.path, tt.body, "")
			if code != tt.want {
				t.Fatalf("status=%d, want %d (%s)", code, tt.want, env.Error)
			}
			if env.Success {
				t.Fatal("success=true on an error response")
			}
		})
	}
}

func TestAdminRequiresOperator(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(t, "GET", "/api/v1/admin/dashboard", nil, ""); code != fiber.StatusUnauthorized {
		t.Fatalf("no token: status=%d, want 401", code)
	}
	if code, _ := s.do(t, "GET", "/api/v1/admin/dashboard", nil, "garbage"); code != fiber.StatusUnauthorized {
		t.Fatalf("bad token: status=%d, want 401", code)
	}
	if code, _ := s.do(t, "GET", "/api/v1/admin/dashboard", nil, operatorToken(t, s.centerID, "VIEWER")); code != fiber.StatusForbidden {
		t.Fatalf("wrong role: status=%d, want 403", code)
	}
	code, env := s.do(t, "GET", "/api/v1/admin/dashboard", nil, operatorToken(t, s.centerID, "OPERATOR"))
	if code != fiber.StatusOK {
		t.Fatalf("operator: status=%d (%s)", code, env.Error)
	}
	var lanes []json.RawMessage
	if err := json.Unmarshal(env.Data, &lanes); err != nil || len(lanes) != 2 {
		t.Fatalf("dashboard lanes=%d err=%v", len(lanes), err)
	}
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(t, "POST", "/api/v1/auth/login", map[string]string{"username": "desk1", "password": "wrong"}, ""); code != fiber.StatusUnauthorized {
		t.Fatalf("wrong password: status=%d, want 401", code)
	}

	code, env := s.do(t, "POST", "/api/v1/auth/login", map[string]string{"username": "desk1", "password": "counter-pass"}, "")
	if code != fiber.StatusOK {
		t.Fatalf("login: status=%d (%s)", code, env.Error)
	}
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &auth); err != nil || auth.AccessToken == "" {
		t.Fatalf("no access token: %v", err)
	}

	code, env = s.do(t, "GET", "/api/v1/auth/me", nil, auth.AccessToken)
	if code != fiber.StatusOK {
		t.Fatalf("me: status=%d (%s)", code, env.Error)
	}
	var op struct {
		Username string `json:"username"`
		CenterID uint   `json:"center_id"`
	}
	_ = json.Unmarshal(env.Data, &op)
	if op.Username != "desk1" || op.CenterID != s.centerID {
		t.Fatalf("me=%+v", op)
	}
}

func TestCallNextOverHTTP(t *testing.T) {
	s := newTestServer(t)
	bearer := operatorToken(t, s.centerID, "OPERATOR")

	code, env := s.do(t, "POST", "/api/v1/admin/queue/walkin/call-next", nil, bearer)
	if code != fiber.StatusOK {
		t.Fatalf("empty lane: status=%d", code)
	}
	var res struct {
		Outcome string  `json:"outcome"`
		RetryAt *string `json:"retry_at"`
		Token   *struct {
			ID uint `json:"id"`
		} `json:"token"`
	}
	_ = json.Unmarshal(env.Data, &res)
	if res.Outcome != "empty" {
		t.Fatalf("outcome=%s, want empty", res.Outcome)
	}

	tok := s.activeToken(t, "9000000001")

	// the token is not due until 09:10
	code, env = s.do(t, "POST", "/api/v1/admin/queue/online/call-next", nil, bearer)
	if code != fiber.StatusOK {
		t.Fatalf("denied call: status=%d, want 200", code)
	}
	res.RetryAt = nil
	_ = json.Unmarshal(env.Data, &res)
	if res.Outcome != "denied" || res.RetryAt == nil || *res.RetryAt != "2026-03-02T09:10:00Z" {
		t.Fatalf("got outcome=%s retry_at=%v", res.Outcome, res.RetryAt)
	}

	s.clock.Advance(10 * time.Minute)
	code, env = s.do(t, "POST", "/api/v1/admin/queue/online/call-next", nil, bearer)
	if code != fiber.StatusOK {
		t.Fatalf("admit call: status=%d", code)
	}
	_ = json.Unmarshal(env.Data, &res)
	if res.Outcome != "admitted" || res.Token == nil || res.Token.ID != tok.ID {
		t.Fatalf("got outcome=%s token=%v", res.Outcome, res.Token)
	}
}

func TestNoShowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	tok := s.activeToken(t, "9000000001")
	path := fmt.Sprintf("/api/v1/admin/tokens/%d/no-show", tok.ID)

	if code, _ := s.do(t, "POST", path, map[string]string{"reason": "  "}, operatorToken(t, s.centerID, "OPERATOR")); code != fiber.StatusBadRequest {
		t.Fatalf("blank reason: status=%d, want 400", code)
	}
	if code, _ := s.do(t, "POST", path, map[string]string{"reason": "absent"}, operatorToken(t, s.otherID, "OPERATOR")); code != fiber.StatusForbidden {
		t.Fatalf("other center: status=%d, want 403", code)
	}

	code, env := s.do(t, "POST", path, map[string]string{"reason": "absent"}, operatorToken(t, s.centerID, "OPERATOR"))
	if code != fiber.StatusOK {
		t.Fatalf("no-show: status=%d (%s)", code, env.Error)
	}
	var out struct {
		Status string `json:"status"`
		Reason string `json:"expired_reason"`
	}
	_ = json.Unmarshal(env.Data, &out)
	if out.Status != "Expired" || out.Reason != "no-show: absent" {
		t.Fatalf("got %+v", out)
	}
}
