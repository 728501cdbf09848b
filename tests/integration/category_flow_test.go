package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCategoryFlow_CRUD(t *testing.T) {
	app := setupApp(t)
	token := app.registerVerifiedUser(t, "cat@test.com", "password123")

	// Step 1: Create an expense category
	rec := app.request("POST", "/api/v1/categories",
		`{"name":"Groceries","type":"expense"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating category, got %d: %s", rec.Code, rec.Body.String())
	}
	catResult := parseJSON(t, rec)
	category := catResult["category"].(map[string]interface{})
	categoryID := category["id"].(string)

	// Step 2: List categories
	rec = app.request("GET", "/api/v1/categories", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	listResult := parseJSON(t, rec)
	categories := listResult["categories"].([]interface{})
	if len(categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(categories))
	}

	// Step 3: Fetch it by ID
	rec = app.request("GET", "/api/v1/categories/"+categoryID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 4: Update name and type
	rec = app.request("PUT", "/api/v1/categories/"+categoryID,
		`{"name":"Food","type":"expense"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating category, got %d: %s", rec.Code, rec.Body.String())
	}
	updResult := parseJSON(t, rec)
	updated := updResult["category"].(map[string]interface{})
	if updated["name"] != "Food" {
		t.Errorf("expected name Food after update, got %v", updated["name"])
	}

	// Step 5: Delete it
	rec = app.request("DELETE", "/api/v1/categories/"+categoryID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting category, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 6: It is gone
	rec = app.request("GET", "/api/v1/categories/"+categoryID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCategoryFlow_DeleteInUse(t *testing.T) {
	app := setupApp(t)
	token := app.registerVerifiedUser(t, "inuse@test.com", "password123")

	// Create a category and a transaction that references it
	rec := app.request("POST", "/api/v1/categories",
		`{"name":"Rent","type":"expense"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	category := parseJSON(t, rec)["category"].(map[string]interface{})
	categoryID := category["id"].(string)

	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%q,"type":"expense","amount":120000,"description":"March rent"}`, categoryID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating transaction, got %d: %s", rec.Code, rec.Body.String())
	}
	transaction := parseJSON(t, rec)["transaction"].(map[string]interface{})
	transactionID := transaction["id"].(string)

	// Delete is refused while referenced
	rec = app.request("DELETE", "/api/v1/categories/"+categoryID, "", token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "CATEGORY_IN_USE" {
		t.Errorf("expected CATEGORY_IN_USE, got %v", errObj["code"])
	}

	// After removing the transaction, delete succeeds
	rec = app.request("DELETE", "/api/v1/transactions/"+transactionID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting transaction, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("DELETE", "/api/v1/categories/"+categoryID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting category, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCategoryFlow_CrossUserAccess(t *testing.T) {
	app := setupApp(t)
	ownerToken := app.registerVerifiedUser(t, "owner@test.com", "password123")
	intruderToken := app.registerVerifiedUser(t, "intruder@test.com", "password123")

	rec := app.request("POST", "/api/v1/categories",
		`{"name":"Private","type":"expense"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	category := parseJSON(t, rec)["category"].(map[string]interface{})
	categoryID := category["id"].(string)

	// The other user cannot read, update, or delete it
	rec = app.request("GET", "/api/v1/categories/"+categoryID, "", intruderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on read, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("PUT", "/api/v1/categories/"+categoryID,
		`{"name":"Hijacked","type":"income"}`, intruderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("DELETE", "/api/v1/categories/"+categoryID, "", intruderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on delete, got %d: %s", rec.Code, rec.Body.String())
	}

	// And it does not appear in their listing
	rec = app.request("GET", "/api/v1/categories", "", intruderToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	categories := parseJSON(t, rec)["categories"].([]interface{})
	if len(categories) != 0 {
		t.Errorf("expected empty listing for the other user, got %d", len(categories))
	}
}
