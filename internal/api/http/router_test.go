package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/claimdesk/claim-service/internal/api/http/handlers"
	"github.com/claimdesk/claim-service/internal/auth"
	"github.com/claimdesk/claim-service/internal/config"
	"github.com/claimdesk/claim-service/internal/lifecycle"
	"github.com/claimdesk/claim-service/internal/observability"
	"github.com/claimdesk/claim-service/internal/persistence"
	"github.com/claimdesk/claim-service/internal/repository"
	"github.com/claimdesk/claim-service/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hash, err := auth.HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	authenticator := auth.NewClientAuthenticator(auth.NewTokenManager("test-secret", 5), []config.ClientCredential{
		{ID: "chat-gw", Actor: "USER", SecretHash: hash},
		{ID: "review-bot", Actor: "AGENT", SecretHash: hash},
	})

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	claimService := service.NewClaimService(service.ClaimDependencies{
		ClaimRepo: repository.NewMemoryClaimRepository(),
		Lifecycle: lifecycle.New(),
		Metrics:   metrics,
		Logger:    logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("claim-service", "test", nil, &persistence.Redis{}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authenticator),
		Claims:         handlers.NewClaimsHandler(claimService),
		AuthMiddleware: auth.NewAuthMiddleware(authenticator.TokenManager()),
	})

	s := &testServer{app: app, tokens: map[string]string{}}
	for _, id := range []string{"chat-gw", "review-bot"} {
		var resp struct {
			Data struct {
				AccessToken string `json:"access_token"`
			} `json:"data"`
		}
		status := s.do(t, nethttp.MethodPost, "/auth/token", "", map[string]string{"client_id": id, "client_secret": "s3cret"}, &resp)
		if status != nethttp.StatusOK {
			t.Fatalf("token for %s: status %d", id, status)
		}
		s.tokens[id] = resp.Data.AccessToken
	}
	return s
}

func (s *testServer) do(t *testing.T, method, path, client string, body any, out any) int {
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
	if client != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[client])
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type claimEnvelope struct {
	Data struct {
		ClaimID        string   `json:"claim_id"`
		Version        int64    `json:"version"`
		PolicyNo       string   `json:"policy_no"`
		State          string   `json:"state"`
		AllowedActions []string `json:"allowed_actions"`
		Timeline       []struct {
			Action string `json:"action"`
			Actor  string `json:"actor"`
		} `json:"timeline"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

var intake = map[string]any{
	"accident_type":        "collision",
	"accident_date_time":   "2026-02-27T18:30:00Z",
	"accident_location":    "Main St & 3rd Ave",
	"accident_description": "Rear-ended at a red light",
	"reporter_name":        "Jordan Lee",
	"reporter_contact":     "+1-555-0100",
	"attachments":          []string{"uploads/photo-1.jpg"},
}

func TestClaimRoutes_FullLifecycle(t *testing.T) {
	s := newTestServer(t)

	var opened claimEnvelope
	if status := s.do(t, nethttp.MethodPost, "/claims", "chat-gw", map[string]any{"policy_no": "21auto-0042"}, &opened); status != nethttp.StatusCreated {
		t.Fatalf("open status = %d, want 201", status)
	}
	id := opened.Data.ClaimID
	if opened.Data.State != "DRAFT" || opened.Data.PolicyNo != "21AUTO-0042" {
		t.Errorf("opened = %+v", opened.Data)
	}

	steps := []struct {
		client string
		action string
		body   any
		want   string
	}{
		{"chat-gw", "complete-intake", intake, "READY_TO_SUBMIT"},
		{"chat-gw", "submit", nil, "SUBMITTED"},
		{"review-bot", "start-review", nil, "IN_REVIEW"},
		{"review-bot", "approve", nil, "CLOSED"},
	}
	for _, step := range steps {
		var got claimEnvelope
		status := s.do(t, nethttp.MethodPost, "/claims/"+id+"/actions/"+step.action, step.client, step.body, &got)
		if status != nethttp.StatusOK {
			t.Fatalf("%s status = %d, want 200", step.action, status)
		}
		if got.Data.State != step.want {
			t.Fatalf("%s state = %s, want %s", step.action, got.Data.State, step.want)
		}
	}

	var timeline struct {
		Data []struct {
			Action string `json:"action"`
			Actor  string `json:"actor"`
		} `json:"data"`
	}
	if status := s.do(t, nethttp.MethodGet, "/claims/"+id+"/timeline", "chat-gw", nil, &timeline); status != nethttp.StatusOK {
		t.Fatalf("timeline status = %d", status)
	}
	if len(timeline.Data) != 5 || timeline.Data[3].Actor != "AGENT" {
		t.Errorf("timeline = %+v", timeline.Data)
	}

	var closed errorEnvelope
	if status := s.do(t, nethttp.MethodPost, "/claims/"+id+"/actions/withdraw", "chat-gw", nil, &closed); status != nethttp.StatusConflict {
		t.Errorf("withdraw on closed status = %d, want 409", status)
	}
	if closed.Error.Code != "TERMINAL_STATE_VIOLATION" {
		t.Errorf("code = %q, want TERMINAL_STATE_VIOLATION", closed.Error.Code)
	}
}

func TestClaimRoutes_Errors(t *testing.T) {
	s := newTestServer(t)

	var opened claimEnvelope
	s.do(t, nethttp.MethodPost, "/claims", "chat-gw", map[string]any{"policy_no": "21AUTO-0042"}, &opened)
	id := opened.Data.ClaimID

	tests := []struct {
		name       string
		method     string
		path       string
		client     string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"no token", nethttp.MethodGet, "/claims/" + id, "", nil, nethttp.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown claim", nethttp.MethodGet, "/claims/missing", "chat-gw", nil, nethttp.StatusNotFound, "NOT_FOUND"},
		{"bad policy", nethttp.MethodPost, "/claims", "chat-gw", map[string]any{"policy_no": "AUTO"}, nethttp.StatusUnprocessableEntity, "PAYLOAD_VALIDATION_FAILED"},
		{"missing policy", nethttp.MethodPost, "/claims", "chat-gw", map[string]any{}, nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"submit from draft", nethttp.MethodPost, "/claims/" + id + "/actions/submit", "chat-gw", nil, nethttp.StatusConflict, "INVALID_TRANSITION"},
		{"intake incomplete", nethttp.MethodPost, "/claims/" + id + "/actions/complete-intake", "chat-gw", map[string]any{"accident_type": "collision"}, nethttp.StatusUnprocessableEntity, "PAYLOAD_VALIDATION_FAILED"},
		{"unknown action", nethttp.MethodPost, "/claims/" + id + "/actions/teleport", "chat-gw", nil, nethttp.StatusConflict, "INVALID_TRANSITION"},
		{"list without policy", nethttp.MethodGet, "/claims", "chat-gw", nil, nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"metrics as user", nethttp.MethodGet, "/metrics", "chat-gw", nil, nethttp.StatusForbidden, "FORBIDDEN"},
		{"unknown route", nethttp.MethodGet, "/nope", "", nil, nethttp.StatusNotFound, "NOT_FOUND"},
		{"unknown claim subroute", nethttp.MethodGet, "/claims/" + id + "/attachments", "chat-gw", nil, nethttp.StatusNotFound, "NOT_FOUND"},
		{"bad credentials", nethttp.MethodPost, "/auth/token", "", map[string]string{"client_id": "chat-gw", "client_secret": "nope"}, nethttp.StatusUnauthorized, "UNAUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got errorEnvelope
			status := s.do(t, tt.method, tt.path, tt.client, tt.body, &got)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if got.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Error.Code, tt.wantCode)
			}
		})
	}

	var current claimEnvelope
	s.do(t, nethttp.MethodGet, "/claims/"+id, "chat-gw", nil, &current)
	if current.Data.Version != 1 || len(current.Data.Timeline) != 1 {
		t.Errorf("rejected requests changed the claim: v%d with %d events", current.Data.Version, len(current.Data.Timeline))
	}
}

func TestClaimRoutes_UserCannotReview(t *testing.T) {
	s := newTestServer(t)

	var opened claimEnvelope
	s.do(t, nethttp.MethodPost, "/claims", "chat-gw", map[string]any{"policy_no": "21AUTO-0042"}, &opened)
	id := opened.Data.ClaimID
	s.do(t, nethttp.MethodPost, "/claims/"+id+"/actions/complete-intake", "chat-gw", intake, nil)
	s.do(t, nethttp.MethodPost, "/claims/"+id+"/actions/submit", "chat-gw", nil, nil)

	var got errorEnvelope
	if status := s.do(t, nethttp.MethodPost, "/claims/"+id+"/actions/start-review", "chat-gw", nil, &got); status != nethttp.StatusConflict {
		t.Errorf("status = %d, want 409", status)
	}
	if got.Error.Details["actor"] != "USER" {
		t.Errorf("details = %v, want actor USER", got.Error.Details)
	}
}

func TestClaimRoutes_AmendAndList(t *testing.T) {
	s := newTestServer(t)

	var opened claimEnvelope
	s.do(t, nethttp.MethodPost, "/claims", "chat-gw", map[string]any{"policy_no": "21AUTO-0042", "reporter_name": "Jordan Lee"}, &opened)
	s.do(t, nethttp.MethodPost, "/claims", "chat-gw", map[string]any{"policy_no": "21AUTO-0042"}, nil)

	var amended claimEnvelope
	status := s.do(t, nethttp.MethodPatch, "/claims/"+opened.Data.ClaimID, "chat-gw", map[string]any{"reporter_contact": "+1-555-0100"}, &amended)
	if status != nethttp.StatusOK {
		t.Fatalf("amend status = %d", status)
	}
	if amended.Data.Version != 2 || amended.Data.State != "DRAFT" {
		t.Errorf("amended = v%d %s, want v2 DRAFT", amended.Data.Version, amended.Data.State)
	}

	var list struct {
		Data []struct {
			ClaimID string `json:"claim_id"`
		} `json:"data"`
	}
	if status := s.do(t, nethttp.MethodGet, "/claims?policy_no=21auto-0042", "review-bot", nil, &list); status != nethttp.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(list.Data) != 2 {
		t.Errorf("len = %d, want 2", len(list.Data))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	var ready struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if status := s.do(t, nethttp.MethodGet, "/health/ready", "", nil, &ready); status != nethttp.StatusOK {
		t.Fatalf("ready status = %d", status)
	}
	if ready.Dependencies["postgres"] != "memory" || ready.Dependencies["redis"] != "disabled" {
		t.Errorf("dependencies = %v", ready.Dependencies)
	}

	s.do(t, nethttp.MethodPost, "/claims", "chat-gw", map[string]any{"policy_no": "21AUTO-0042"}, nil)
	var metrics struct {
		Data observability.MetricsSnapshot `json:"data"`
	}
	if status := s.do(t, nethttp.MethodGet, "/metrics", "review-bot", nil, &metrics); status != nethttp.StatusOK {
		t.Fatalf("metrics status = %d", status)
	}
	if metrics.Data.Transitions["create|ok"] != 1 {
		t.Errorf("transitions = %v", metrics.Data.Transitions)
	}
}
