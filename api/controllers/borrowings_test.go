package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/localloop/localloop-backend/internal/state"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler(resp, req)
	return resp
}

func TestBorrowingLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, seedSnapshot())

	resp := postJSON(t, RequestBorrowing(env.borrowings, env.logg), "/api/borrowings",
		`{"user_id":"anna","item_id":"drill-1","suggested_start":"2026-09-01","suggested_due":"2026-09-08"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("request status %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		Data struct {
			Borrowing state.Borrowing `json:"borrowing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if created.Data.Borrowing.Status != "waiting_for_confirm" {
		t.Fatalf("unexpected borrowing status %q", created.Data.Borrowing.Status)
	}
	if created.Data.Borrowing.LenderID != "peter" {
		t.Fatalf("lender should default to item owner, got %q", created.Data.Borrowing.LenderID)
	}

	resp = postJSON(t, ConfirmBorrowing(env.borrowings, env.logg), "/api/borrowings/confirm",
		`{"user_id":"peter","borrowing_id":"`+created.Data.Borrowing.ID+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("confirm status %d: %s", resp.Code, resp.Body.String())
	}

	snap := env.store.Snapshot()
	if snap.Items[0].Status != "borrowed" {
		t.Fatalf("item should be borrowed, got %q", snap.Items[0].Status)
	}

	resp = postJSON(t, ReturnBorrowing(env.borrowings, env.logg), "/api/borrowings/return",
		`{"borrowing_id":"`+created.Data.Borrowing.ID+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("return status %d: %s", resp.Code, resp.Body.String())
	}

	var returned struct {
		Data struct {
			AlreadyReturned bool `json:"already_returned"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &returned); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if returned.Data.AlreadyReturned {
		t.Fatal("first return should not be flagged already_returned")
	}

	snap = env.store.Snapshot()
	if snap.Items[0].Status != "available" {
		t.Fatalf("item should be available after return, got %q", snap.Items[0].Status)
	}
}

func TestConfirmBorrowingWrongCaller(t *testing.T) {
	env := newTestEnv(t, seedSnapshot())

	resp := postJSON(t, RequestBorrowing(env.borrowings, env.logg), "/api/borrowings",
		`{"user_id":"anna","item_id":"drill-1"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("request status %d", resp.Code)
	}
	var created struct {
		Data struct {
			Borrowing state.Borrowing `json:"borrowing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	resp = postJSON(t, ConfirmBorrowing(env.borrowings, env.logg), "/api/borrowings/confirm",
		`{"user_id":"anna","borrowing_id":"`+created.Data.Borrowing.ID+`"}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestReturnBorrowingValidation(t *testing.T) {
	env := newTestEnv(t, seedSnapshot())

	resp := postJSON(t, ReturnBorrowing(env.borrowings, env.logg), "/api/borrowings/return", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = postJSON(t, ReturnBorrowing(env.borrowings, env.logg), "/api/borrowings/return",
		`{"borrowing_id":"no-such"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListBorrowingsSplit(t *testing.T) {
	snap := seedSnapshot()
	snap.Borrowings = []state.Borrowing{
		{ID: "b1", ItemID: "drill-1", LenderID: "peter", BorrowerID: "anna", Status: "active"},
	}
	env := newTestEnv(t, snap)

	req := httptest.NewRequest(http.MethodGet, "/api/borrowings?user_id=peter", nil)
	resp := httptest.NewRecorder()
	ListBorrowings(env.store, env.logg)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Borrowed []state.Borrowing `json:"borrowed"`
			Lent     []state.Borrowing `json:"lent"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Borrowed) != 0 {
		t.Fatalf("peter borrowed nothing, got %d", len(envelope.Data.Borrowed))
	}
	if len(envelope.Data.Lent) != 1 {
		t.Fatalf("peter lent one item, got %d", len(envelope.Data.Lent))
	}
}

func TestListBorrowingsGuards(t *testing.T) {
	env := newTestEnv(t, seedSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/api/borrowings", nil)
	resp := httptest.NewRecorder()
	ListBorrowings(env.store, env.logg)(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing user_id should 400, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/borrowings?user_id=ghost", nil)
	resp = httptest.NewRecorder()
	ListBorrowings(env.store, env.logg)(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown resident should 404, got %d", resp.Code)
	}
}
