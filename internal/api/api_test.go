package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/alaf-team/alaf/internal/db"
	"github.com/alaf-team/alaf/internal/model"
	"github.com/alaf-team/alaf/internal/store"
)

const testSecret = "test-secret"

// captureMailer records the last verification code instead of sending it.
type captureMailer struct {
	code *string
}

func (m captureMailer) SendVerificationCode(_ context.Context, _ string, code string) error {
	*m.code = code
	return nil
}

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, *string) {
	t.Helper()

	database := db.NewTestDB(t)
	var lastCode string
	server := httptest.NewServer(NewRouter(database, testSecret, captureMailer{&lastCode}))
	t.Cleanup(server.Close)
	return server, database, &lastCode
}

func createTestUser(t *testing.T, database *sql.DB, name, email, password, role string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user, err := store.CreateUser(context.Background(), database, name, email, string(hash), "", role)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func loginUser(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return result.Token
}

// doJSON sends a JSON request with an optional bearer token.
func doJSON(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	return resp
}

// doMultipart sends a multipart form request with an optional bearer token.
func doMultipart(t *testing.T, method, url, token string, fields map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing form field: %v", err)
		}
	}
	mw.Close()

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	return resp
}

func registerTestItem(t *testing.T, server *httptest.Server, database *sql.DB) int64 {
	t.Helper()

	place, err := store.CreatePlace(context.Background(), database, "G동 (도서관)")
	if err != nil {
		t.Fatalf("creating place: %v", err)
	}

	resp := doMultipart(t, http.MethodPost, server.URL+"/api/items", "", map[string]string{
		"name":           "검정색 지갑",
		"description":    "카드 2장 들어 있음",
		"category_id":    "12",
		"found_date":     "2026-01-10",
		"place_id":       fmt.Sprintf("%d", place.ID),
		"detail_address": "3층 열람실",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("item registration returned %d", resp.StatusCode)
	}

	var item struct {
		ItemID int64 `json:"item_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	return item.ItemID
}

func TestLoginAndLogout(t *testing.T) {
	server, database, _ := setupTestServer(t)
	createTestUser(t, database, "Kim Minsu", "minsu@example.com", "password123", model.RoleUser)

	// Wrong password is refused.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/login", "",
		map[string]string{"email": "minsu@example.com", "password": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", resp.StatusCode)
	}

	token := loginUser(t, server, "minsu@example.com", "password123")

	resp = doJSON(t, http.MethodGet, server.URL+"/api/requests/mine", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/auth/logout", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout returned %d", resp.StatusCode)
	}

	// The token is dead after logout.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/requests/mine", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestSignupFlow(t *testing.T) {
	server, _, lastCode := setupTestServer(t)

	register := func() int {
		resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", "", map[string]string{
			"name":     "Lee Jiwon",
			"email":    "jiwon@example.com",
			"password": "password123",
		})
		resp.Body.Close()
		return resp.StatusCode
	}

	// Registration without a verified email is refused.
	if code := register(); code != http.StatusBadRequest {
		t.Errorf("expected 400 before verification, got %d", code)
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/send-code", "",
		map[string]string{"email": "jiwon@example.com"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send-code returned %d", resp.StatusCode)
	}
	if *lastCode == "" {
		t.Fatal("expected a verification code to be sent")
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/auth/verify-code", "",
		map[string]string{"email": "jiwon@example.com", "code": *lastCode})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify-code returned %d", resp.StatusCode)
	}

	if code := register(); code != http.StatusCreated {
		t.Fatalf("expected 201 after verification, got %d", code)
	}

	loginUser(t, server, "jiwon@example.com", "password123")
}

func TestItemAndClaimLifecycle(t *testing.T) {
	server, database, _ := setupTestServer(t)
	createTestUser(t, database, "Admin", "admin@example.com", "adminpass123", model.RoleAdmin)
	createTestUser(t, database, "User One", "one@example.com", "password123", model.RoleUser)
	createTestUser(t, database, "User Two", "two@example.com", "password123", model.RoleUser)

	adminToken := loginUser(t, server, "admin@example.com", "adminpass123")
	oneToken := loginUser(t, server, "one@example.com", "password123")
	twoToken := loginUser(t, server, "two@example.com", "password123")

	itemID := registerTestItem(t, server, database)

	// The item shows up in the public listing.
	resp := doJSON(t, http.MethodGet, server.URL+"/api/items", "", nil)
	var items []json.RawMessage
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 {
		t.Fatalf("expected 1 item in listing, got %d", len(items))
	}

	// Viewing the detail counts a view.
	detailURL := fmt.Sprintf("%s/api/items/%d", server.URL, itemID)
	var detail struct {
		Status      string `json:"status"`
		IsAvailable bool   `json:"is_available"`
		Views       int    `json:"views"`
		LockMessage string `json:"lock_message"`
	}
	resp = doJSON(t, http.MethodGet, detailURL, "", nil)
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.Views != 1 || !detail.IsAvailable {
		t.Errorf("expected 1 view on an available item, got %d/%v", detail.Views, detail.IsAvailable)
	}

	// User one files a claim.
	claimFields := map[string]string{
		"item_id":              fmt.Sprintf("%d", itemID),
		"proof_detail_address": "3층 열람실 창가 자리",
		"proof_description":    "지갑 안에 학생증이 있습니다",
	}
	resp = doMultipart(t, http.MethodPost, server.URL+"/api/requests", oneToken, claimFields)
	var claim struct {
		RequestID int64  `json:"request_id"`
		Status    string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&claim)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("filing claim returned %d", resp.StatusCode)
	}
	if claim.Status != model.ClaimStatusPending {
		t.Errorf("expected pending claim, got %q", claim.Status)
	}

	// User two is blocked while the claim holds the item.
	resp = doMultipart(t, http.MethodPost, server.URL+"/api/requests", twoToken, claimFields)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for a second claim, got %d", resp.StatusCode)
	}

	// The detail carries the lock message.
	resp = doJSON(t, http.MethodGet, detailURL, "", nil)
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.IsAvailable || detail.LockMessage == "" {
		t.Errorf("expected locked detail, got available=%v message=%q", detail.IsAvailable, detail.LockMessage)
	}

	// The admin sees the claim in the queue.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/admin/requests", adminToken, nil)
	var queue []struct {
		RequestID int64  `json:"request_id"`
		ItemName  string `json:"item_name"`
	}
	json.NewDecoder(resp.Body).Decode(&queue)
	resp.Body.Close()
	if len(queue) != 1 || queue[0].RequestID != claim.RequestID {
		t.Fatalf("unexpected adjudication queue: %+v", queue)
	}
	if queue[0].ItemName != "검정색 지갑" {
		t.Errorf("expected joined item name, got %q", queue[0].ItemName)
	}

	// Approval resolves the item.
	processURL := fmt.Sprintf("%s/api/admin/requests/%d/process", server.URL, claim.RequestID)
	resp = doJSON(t, http.MethodPost, processURL, adminToken, map[string]string{"action": "APPROVE"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("processing claim returned %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, detailURL, "", nil)
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.Status != model.ItemStatusResolved {
		t.Errorf("expected resolved item, got %q", detail.Status)
	}

	// The decision is final.
	resp = doJSON(t, http.MethodPost, processURL, adminToken, map[string]string{"action": "REJECT"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 on double process, got %d", resp.StatusCode)
	}

	// The requester sees the outcome.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/requests/mine", oneToken, nil)
	var mine []struct {
		Status string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&mine)
	resp.Body.Close()
	if len(mine) != 1 || mine[0].Status != model.ClaimStatusApproved {
		t.Errorf("unexpected requester view: %+v", mine)
	}
}

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	server, database, _ := setupTestServer(t)
	createTestUser(t, database, "Plain User", "plain@example.com", "password123", model.RoleUser)
	userToken := loginUser(t, server, "plain@example.com", "password123")

	resp := doJSON(t, http.MethodGet, server.URL+"/api/admin/requests", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/admin/requests", userToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", resp.StatusCode)
	}
}

func TestClaimRequiresAuth(t *testing.T) {
	server, database, _ := setupTestServer(t)
	itemID := registerTestItem(t, server, database)

	resp := doMultipart(t, http.MethodPost, server.URL+"/api/requests", "", map[string]string{
		"item_id":              fmt.Sprintf("%d", itemID),
		"proof_detail_address": "어딘가",
		"proof_description":    "설명",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestChangePassword(t *testing.T) {
	server, database, _ := setupTestServer(t)
	createTestUser(t, database, "Pw User", "pw@example.com", "oldpassword1", model.RoleUser)
	token := loginUser(t, server, "pw@example.com", "oldpassword1")

	resp := doJSON(t, http.MethodPut, server.URL+"/api/auth/password", token,
		map[string]string{"current_password": "wrong", "new_password": "newpassword1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, server.URL+"/api/auth/password", token,
		map[string]string{"current_password": "oldpassword1", "new_password": "newpassword1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change password returned %d", resp.StatusCode)
	}

	loginUser(t, server, "pw@example.com", "newpassword1")
}
