package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stock-portfolio/internal/types"
)

func doRequest(server *Server, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

// TestSignup tests account registration
func TestSignup(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/users", map[string]string{
		"username": "alice",
		"password": "hunter2",
	}, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["username"] != "alice" {
		t.Errorf("Expected username alice, got %v", resp["username"])
	}
}

// TestSignup_InvalidJSON tests that malformed bodies get a 400
func TestSignup_InvalidJSON(t *testing.T) {
	server := createTestServer()

	req := httptest.NewRequest("POST", "/api/users", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestSignup_Conflict tests the duplicate-username path
func TestSignup_Conflict(t *testing.T) {
	server := createTestServer()
	server.accounts = &mockAccountService{signupErr: types.NewConflict("username is taken")}

	w := doRequest(server, "POST", "/api/users", map[string]string{
		"username": "alice",
		"password": "hunter2",
	}, "")

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

// TestSignin tests credential checks
func TestSignin(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/users/signin", map[string]string{
		"username": "alice",
		"password": "hunter2",
	}, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

// TestSignin_BadCredentials tests that rejected credentials get a 403
func TestSignin_BadCredentials(t *testing.T) {
	server := createTestServer()
	server.accounts = &mockAccountService{authErr: types.NewForbidden("incorrect username or password")}

	w := doRequest(server, "POST", "/api/users/signin", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, "")

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

// TestAuthRequired tests that protected routes reject anonymous requests
func TestAuthRequired(t *testing.T) {
	server := createTestServer()

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/api/users/me"},
		{"GET", "/api/portfolios"},
		{"POST", "/api/portfolios"},
		{"GET", "/api/portfolios/1/balance"},
		{"GET", "/api/stock-lists"},
		{"GET", "/api/friends"},
		{"GET", "/api/requests"},
	}

	for _, route := range routes {
		w := doRequest(server, route.method, route.path, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401, got %d", route.method, route.path, w.Code)
		}
	}
}

// TestAuthRejectsBadUserIDHeader tests non-numeric and non-positive ids
func TestAuthRejectsBadUserIDHeader(t *testing.T) {
	server := createTestServer()

	for _, id := range []string{"abc", "0", "-3"} {
		w := doRequest(server, "GET", "/api/portfolios", nil, id)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("X-User-ID %q: expected status 401, got %d", id, w.Code)
		}
	}
}

// TestCreatePortfolio tests portfolio creation
func TestCreatePortfolio(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/portfolios", map[string]interface{}{
		"name":    "Growth",
		"balance": "500.00",
	}, "1")

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

// TestTrade tests a successful buy
func TestTrade(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/portfolios/1/holdings", map[string]interface{}{
		"symbol": "AAPL",
		"shares": 5,
	}, "1")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["outcome"] != string(types.OutcomeAdded) {
		t.Errorf("Expected outcome %q, got %v", types.OutcomeAdded, resp["outcome"])
	}
}

// TestTrade_ErrorMapping tests service error codes mapping to HTTP statuses
func TestTrade_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *types.ServiceError
		wantStatus int
	}{
		{"insufficient funds", &types.ServiceError{Code: types.CodeInsufficientFunds, Message: "insufficient funds"}, http.StatusUnprocessableEntity},
		{"insufficient shares", &types.ServiceError{Code: types.CodeInsufficientShares, Message: "insufficient shares"}, http.StatusUnprocessableEntity},
		{"not found", types.NewNotFound("collection not found"), http.StatusNotFound},
		{"forbidden", types.NewForbidden("not the owner"), http.StatusForbidden},
		{"invalid argument", types.NewInvalidArgument("symbol is required"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := createTestServer()
			server.ledger = &mockLedgerService{tradeErr: tt.err}

			w := doRequest(server, "POST", "/api/portfolios/1/holdings", map[string]interface{}{
				"symbol": "AAPL",
				"shares": 5,
			}, "1")

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error.Code != tt.err.Code {
				t.Errorf("Expected error code %q, got %q", tt.err.Code, resp.Error.Code)
			}
			if resp.Error.Message != tt.err.Message {
				t.Errorf("Expected message %q, got %q", tt.err.Message, resp.Error.Message)
			}
		})
	}
}

// TestStorageErrorMasked tests that internal errors do not leak details
func TestStorageErrorMasked(t *testing.T) {
	server := createTestServer()
	cause := types.NewStorageFailure("apply trade", errDatabaseDown{})
	server.ledger = &mockLedgerService{tradeErr: cause}

	w := doRequest(server, "POST", "/api/portfolios/1/holdings", map[string]interface{}{
		"symbol": "AAPL",
		"shares": 5,
	}, "1")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Message != "An internal error occurred" {
		t.Errorf("Expected masked message, got %q", resp.Error.Message)
	}
	if resp.Error.Details != nil {
		t.Errorf("Expected masked details, got %v", resp.Error.Details)
	}
}

type errDatabaseDown struct{}

func (errDatabaseDown) Error() string { return "connection refused" }

// TestInvalidPathID tests a non-numeric path id
func TestInvalidPathID(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/portfolios/abc/balance", nil, "1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestGetBalance tests reading a portfolio balance
func TestGetBalance(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/portfolios/1/balance", nil, "1")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["balance"] != "100" {
		t.Errorf("Expected balance 100, got %v", resp["balance"])
	}
}

// TestSymbolStats tests the single-symbol statistics endpoint
func TestSymbolStats(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/stats/stat1?sym=AAPL", nil, "1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	// Missing symbol is a client error
	w = doRequest(server, "GET", "/api/stats/stat1", nil, "1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without sym, got %d", w.Code)
	}
}

// TestPairStats tests the two-symbol statistics endpoint
func TestPairStats(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/stats/stat2?sym1=AAPL&sym2=MSFT", nil, "1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	w = doRequest(server, "GET", "/api/stats/stat2?sym1=AAPL", nil, "1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without sym2, got %d", w.Code)
	}

	server.statistics = &mockStatisticsService{
		err: &types.ServiceError{Code: types.CodeInsufficientData, Message: "the two symbols share no trading dates"},
	}
	w = doRequest(server, "GET", "/api/stats/stat2?sym1=AAPL&sym2=TSLA", nil, "1")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for insufficient data, got %d", w.Code)
	}
}

// TestPublicStockListsNoAuth tests that the public listing is open
func TestPublicStockListsNoAuth(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "GET", "/api/stock-lists/public", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 without auth, got %d", w.Code)
	}
}

// TestReviewErrorMapping tests the review moderation endpoints
func TestReviewErrorMapping(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/stock-lists/2/reviews", map[string]string{
		"text": "solid picks",
	}, "1")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	server.reviews = &mockReviewService{err: types.NewForbidden("cannot review your own stock list")}
	w = doRequest(server, "POST", "/api/stock-lists/2/reviews", map[string]string{
		"text": "solid picks",
	}, "1")
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}

	server.reviews = &mockReviewService{err: types.NewConflict("review already exists")}
	w = doRequest(server, "POST", "/api/stock-lists/2/reviews", map[string]string{
		"text": "solid picks",
	}, "1")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

// TestSendFriendRequest tests the friend request endpoint
func TestSendFriendRequest(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/requests/2", nil, "1")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	server.social = &mockSocialService{err: types.NewConflict("a request is already pending")}
	w = doRequest(server, "POST", "/api/requests/2", nil, "1")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

// TestRespondToRequest tests accepting a friend request
func TestRespondToRequest(t *testing.T) {
	server := createTestServer()

	w := doRequest(server, "POST", "/api/requests/2/respond", map[string]bool{
		"accept": true,
	}, "1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "accepted" {
		t.Errorf("Expected status accepted, got %v", resp["status"])
	}
}
