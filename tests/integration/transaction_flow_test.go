package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestTransactionFlow_CRUD(t *testing.T) {
	app := setupApp(t)
	token := app.registerVerifiedUser(t, "tx@test.com", "password123")

	// Step 1: Create a category
	rec := app.request("POST", "/api/v1/categories",
		`{"name":"Groceries","type":"expense"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	category := parseJSON(t, rec)["category"].(map[string]interface{})
	categoryID := category["id"].(string)

	// Step 2: Create a transaction in that category
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%q,"type":"expense","amount":4250,"description":"Weekly groceries","date":"2024-03-10"}`, categoryID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating transaction, got %d: %s", rec.Code, rec.Body.String())
	}
	transaction := parseJSON(t, rec)["transaction"].(map[string]interface{})
	transactionID := transaction["id"].(string)
	if transaction["amount"].(float64) != 4250 {
		t.Errorf("expected amount 4250, got %v", transaction["amount"])
	}

	// Step 3: Fetch it by ID
	rec = app.request("GET", "/api/v1/transactions/"+transactionID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 4: Partial update changes only the description
	rec = app.request("PUT", "/api/v1/transactions/"+transactionID,
		`{"description":"Groceries and snacks"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating transaction, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := parseJSON(t, rec)["transaction"].(map[string]interface{})
	if updated["description"] != "Groceries and snacks" {
		t.Errorf("expected updated description, got %v", updated["description"])
	}
	if updated["amount"].(float64) != 4250 {
		t.Errorf("amount changed by partial update: %v", updated["amount"])
	}
	if updated["type"] != "expense" {
		t.Errorf("type changed by partial update: %v", updated["type"])
	}

	// Step 5: Delete it
	rec = app.request("DELETE", "/api/v1/transactions/"+transactionID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting transaction, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/transactions/"+transactionID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTransactionFlow_ListFilteringAndPagination(t *testing.T) {
	app := setupApp(t)
	token := app.registerVerifiedUser(t, "list@test.com", "password123")

	// Seed three expenses and one income across March 2024
	seed := []string{
		`{"type":"expense","amount":1000,"date":"2024-03-05"}`,
		`{"type":"expense","amount":2000,"date":"2024-03-12"}`,
		`{"type":"expense","amount":3000,"date":"2024-03-20"}`,
		`{"type":"income","amount":500000,"date":"2024-03-01"}`,
	}
	for _, body := range seed {
		rec := app.request("POST", "/api/v1/transactions", body, token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed transaction failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	// Unfiltered list returns everything, newest first
	rec := app.request("GET", "/api/v1/transactions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 4 {
		t.Errorf("expected 4 total items, got %v", result["total_items"])
	}
	data := result["data"].([]interface{})
	first := data[0].(map[string]interface{})
	if first["amount"].(float64) != 3000 {
		t.Errorf("expected newest transaction first, got amount %v", first["amount"])
	}

	// Filter by type
	rec = app.request("GET", "/api/v1/transactions?type=income", "", token)
	result = parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Errorf("expected 1 income transaction, got %v", result["total_items"])
	}

	// Inclusive date range
	rec = app.request("GET", "/api/v1/transactions?from_date=2024-03-05&to_date=2024-03-12", "", token)
	result = parseJSON(t, rec)
	if result["total_items"].(float64) != 2 {
		t.Errorf("expected 2 transactions in range, got %v", result["total_items"])
	}

	// Pagination
	rec = app.request("GET", "/api/v1/transactions?page=2&page_size=3", "", token)
	result = parseJSON(t, rec)
	data = result["data"].([]interface{})
	if len(data) != 1 {
		t.Errorf("expected 1 item on page 2, got %d", len(data))
	}
	if result["total_pages"].(float64) != 2 {
		t.Errorf("expected 2 total pages, got %v", result["total_pages"])
	}
}

func TestTransactionFlow_MonthlySummary(t *testing.T) {
	app := setupApp(t)
	token := app.registerVerifiedUser(t, "summary@test.com", "password123")

	// March 2024: $100 income, $40 expense
	seed := []string{
		`{"type":"income","amount":10000,"date":"2024-03-01"}`,
		`{"type":"expense","amount":4000,"date":"2024-03-15"}`,
		// April 2024: $25 expense only
		`{"type":"expense","amount":2500,"date":"2024-04-02"}`,
	}
	for _, body := range seed {
		rec := app.request("POST", "/api/v1/transactions", body, token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed transaction failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := app.request("GET", "/api/v1/transactions/summary/monthly", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)["summary"].([]interface{})
	if len(summary) != 2 {
		t.Fatalf("expected 2 summary records, got %d", len(summary))
	}

	// Newest month first
	april := summary[0].(map[string]interface{})
	if april["year"].(float64) != 2024 || april["month"].(float64) != 4 {
		t.Fatalf("expected 2024-04 first, got %v-%v", april["year"], april["month"])
	}
	if april["net_savings"].(float64) != -2500 {
		t.Errorf("expected April net savings -2500, got %v", april["net_savings"])
	}

	march := summary[1].(map[string]interface{})
	if march["income"].(float64) != 10000 {
		t.Errorf("expected March income 10000, got %v", march["income"])
	}
	if march["expense"].(float64) != 4000 {
		t.Errorf("expected March expense 4000, got %v", march["expense"])
	}
	if march["net_savings"].(float64) != 6000 {
		t.Errorf("expected March net savings 6000, got %v", march["net_savings"])
	}
}

func TestTransactionFlow_CrossUserAccess(t *testing.T) {
	app := setupApp(t)
	ownerToken := app.registerVerifiedUser(t, "txowner@test.com", "password123")
	intruderToken := app.registerVerifiedUser(t, "txintruder@test.com", "password123")

	rec := app.request("POST", "/api/v1/transactions",
		`{"type":"expense","amount":9900,"description":"secret purchase"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	transaction := parseJSON(t, rec)["transaction"].(map[string]interface{})
	transactionID := transaction["id"].(string)

	rec = app.request("GET", "/api/v1/transactions/"+transactionID, "", intruderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on read, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("PUT", "/api/v1/transactions/"+transactionID,
		`{"description":"hijacked"}`, intruderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("DELETE", "/api/v1/transactions/"+transactionID, "", intruderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on delete, got %d: %s", rec.Code, rec.Body.String())
	}

	// The owner still sees it untouched
	rec = app.request("GET", "/api/v1/transactions/"+transactionID, "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := parseJSON(t, rec)["transaction"].(map[string]interface{})
	if got["description"] != "secret purchase" {
		t.Errorf("transaction was modified by a non-owner: %v", got["description"])
	}

	// And the intruder cannot use the owner's category when creating
	rec = app.request("POST", "/api/v1/categories",
		`{"name":"Bills","type":"expense"}`, ownerToken)
	category := parseJSON(t, rec)["category"].(map[string]interface{})
	categoryID := category["id"].(string)

	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%q,"type":"expense","amount":100}`, categoryID), intruderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 using another user's category, got %d: %s", rec.Code, rec.Body.String())
	}
}
