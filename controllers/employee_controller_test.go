package controller_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEmployeeDefaults(t *testing.T) {
	app, db := setupApp(t)

	owner := registerOwner(t, app, db, "acme")

	resp := doRequest(t, app, "POST", "/api/v1/employees", owner.Token, fiber.Map{
		"first_name":       "Grace",
		"last_name":        "Hopper",
		"email":            "grace@example.com",
		"job_title":        "Compiler Engineer",
		"experience_years": 10,
		"skills":           "Go, COBOL",
		"company_id":       owner.CompanyID,
		"bench_start_date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	data := dataOf(t, decodeBody(t, resp))
	assert.Equal(t, "available", data["status"])
	assert.Equal(t, "mid", data["experience_level"])
	assert.Equal(t, "Grace Hopper", data["full_name"])
	assert.Equal(t, "acme Co", data["company_name"])
}

func TestCreateEmployeeForOtherCompanyDenied(t *testing.T) {
	app, db := setupApp(t)

	owner := registerOwner(t, app, db, "acme")
	other := registerOwner(t, app, db, "globex")

	resp := doRequest(t, app, "POST", "/api/v1/employees", other.Token, fiber.Map{
		"first_name":       "Grace",
		"last_name":        "Hopper",
		"email":            "grace@example.com",
		"job_title":        "Engineer",
		"company_id":       owner.CompanyID,
		"bench_start_date": time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestEmployeeEmailUniqueAcrossCompanies(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	globex := registerOwner(t, app, db, "globex")

	createEmployee(t, app, acme, "dev@example.com", "Go")

	resp := doRequest(t, app, "POST", "/api/v1/employees", globex.Token, fiber.Map{
		"first_name":       "Other",
		"last_name":        "Dev",
		"email":            "dev@example.com",
		"job_title":        "Engineer",
		"company_id":       globex.CompanyID,
		"bench_start_date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "email")
}

func TestEmployeesScopedToOwnCompanies(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	globex := registerOwner(t, app, db, "globex")

	acmeEmployee := createEmployee(t, app, acme, "acme-dev@example.com", "Go")
	createEmployee(t, app, globex, "globex-dev@example.com", "Rust")

	resp := doRequest(t, app, "GET", "/api/v1/employees", acme.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := listOf(t, decodeBody(t, resp))
	require.Len(t, list, 1)
	assert.Equal(t, "acme-dev@example.com", list[0].(map[string]interface{})["email"])

	// Cross-tenant detail read resolves as not found, not forbidden.
	resp = doRequest(t, app, "GET", fmt.Sprintf("/api/v1/employees/%d", acmeEmployee), globex.Token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetAvailableEmployeesFiltersStatus(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")

	availableID := createEmployee(t, app, acme, "free@example.com", "Go")
	allocatedID := createEmployee(t, app, acme, "busy@example.com", "Go")

	resp := doRequest(t, app, "PUT", fmt.Sprintf("/api/v1/employees/%d", allocatedID), acme.Token, fiber.Map{
		"status": "allocated",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/employees/available", acme.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := listOf(t, decodeBody(t, resp))
	require.Len(t, list, 1)
	assert.Equal(t, float64(availableID), list[0].(map[string]interface{})["ID"])
}

func TestEmployeeSearchFilter(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	createEmployee(t, app, acme, "gopher@example.com", "Go, Kubernetes")
	createEmployee(t, app, acme, "rustacean@example.com", "Rust")

	resp := doRequest(t, app, "GET", "/api/v1/employees?search=Kubernetes", acme.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := listOf(t, decodeBody(t, resp))
	require.Len(t, list, 1)
	assert.Equal(t, "gopher@example.com", list[0].(map[string]interface{})["email"])
}

func TestEmployeeEmailStaysReservedAfterDelete(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	employeeID := createEmployee(t, app, acme, "dev@example.com", "Go")

	resp := doRequest(t, app, "DELETE", fmt.Sprintf("/api/v1/employees/%d", employeeID), acme.Token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// The soft-deleted row still holds the email at the unique index, which
	// the count pre-check cannot see; the create must still surface a
	// field-keyed validation error, not a storage failure.
	resp = doRequest(t, app, "POST", "/api/v1/employees", acme.Token, fiber.Map{
		"first_name":       "Re",
		"last_name":        "Hire",
		"email":            "dev@example.com",
		"job_title":        "Engineer",
		"company_id":       acme.CompanyID,
		"bench_start_date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "email")
}

func TestDeleteEmployee(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	employeeID := createEmployee(t, app, acme, "dev@example.com", "Go")

	resp := doRequest(t, app, "DELETE", fmt.Sprintf("/api/v1/employees/%d", employeeID), acme.Token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, "GET", fmt.Sprintf("/api/v1/employees/%d", employeeID), acme.Token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
