package controller_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchlist/models"
)

func createListing(t *testing.T, app *fiber.App, owner testAccount, title string, employeeIDs []uint) uint {
	t.Helper()

	resp := doRequest(t, app, "POST", "/api/v1/resource-listings", owner.Token, fiber.Map{
		"company_id":   owner.CompanyID,
		"employee_ids": employeeIDs,
		"title":        title,
		"start_date":   time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return idOf(t, dataOf(t, decodeBody(t, resp)))
}

func TestCreateListingDerivesAggregates(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	first := createEmployee(t, app, acme, "one@example.com", "Go, Kubernetes")
	second := createEmployee(t, app, acme, "two@example.com", "Go, Terraform")

	listingID := createListing(t, app, acme, "Platform squad", []uint{first, second})

	var listing models.ResourceListing
	require.NoError(t, db.Preload("Employees").First(&listing, listingID).Error)
	assert.Equal(t, 2, listing.TotalResources)
	assert.Equal(t, "Go, Kubernetes, Terraform", listing.SkillsSummary)
	assert.Equal(t, models.ListingActive, listing.Status)
	assert.Len(t, listing.Employees, 2)
}

func TestCreateListingRejectsEmptyMemberSet(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")

	resp := doRequest(t, app, "POST", "/api/v1/resource-listings", acme.Token, fiber.Map{
		"company_id":   acme.CompanyID,
		"employee_ids": []uint{},
		"title":        "Empty",
		"start_date":   time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateListingRejectsForeignEmployees(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	globex := registerOwner(t, app, db, "globex")
	foreign := createEmployee(t, app, globex, "dev@example.com", "Go")

	resp := doRequest(t, app, "POST", "/api/v1/resource-listings", acme.Token, fiber.Map{
		"company_id":   acme.CompanyID,
		"employee_ids": []uint{foreign},
		"title":        "Borrowed squad",
		"start_date":   time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "employee_ids")
}

func TestCreateListingRejectsUnavailableEmployees(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	employeeID := createEmployee(t, app, acme, "dev@example.com", "Go")

	resp := doRequest(t, app, "PUT", fmt.Sprintf("/api/v1/employees/%d", employeeID), acme.Token, fiber.Map{
		"status": "allocated",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "POST", "/api/v1/resource-listings", acme.Token, fiber.Map{
		"company_id":   acme.CompanyID,
		"employee_ids": []uint{employeeID},
		"title":        "Busy squad",
		"start_date":   time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateListingMembershipRecomputesAggregates(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	first := createEmployee(t, app, acme, "one@example.com", "Go, Kubernetes")
	second := createEmployee(t, app, acme, "two@example.com", "Rust")

	listingID := createListing(t, app, acme, "Platform squad", []uint{first, second})

	resp := doRequest(t, app, "PUT", fmt.Sprintf("/api/v1/resource-listings/%d", listingID), acme.Token, fiber.Map{
		"employee_ids": []uint{first},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listing models.ResourceListing
	require.NoError(t, db.First(&listing, listingID).Error)
	assert.Equal(t, 1, listing.TotalResources)
	assert.Equal(t, "Go, Kubernetes", listing.SkillsSummary)
}

func TestListingsMarketplaceFlags(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	globex := registerOwner(t, app, db, "globex")
	mine := createEmployee(t, app, acme, "one@example.com", "Go")
	theirs := createEmployee(t, app, globex, "two@example.com", "Rust")

	ownID := createListing(t, app, acme, "Own squad", []uint{mine})
	otherID := createListing(t, app, globex, "Their squad", []uint{theirs})

	// Active listings are visible marketplace-wide.
	resp := doRequest(t, app, "GET", "/api/v1/resource-listings", acme.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, listOf(t, decodeBody(t, resp)), 2)

	// exclude_own drops the actor's own listings.
	resp = doRequest(t, app, "GET", "/api/v1/resource-listings?exclude_own=true", acme.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := listOf(t, decodeBody(t, resp))
	require.Len(t, list, 1)
	assert.Equal(t, float64(otherID), list[0].(map[string]interface{})["ID"])

	// Inactive-status listings fall out of the marketplace view.
	resp = doRequest(t, app, "POST", fmt.Sprintf("/api/v1/resource-listings/%d/update-status", ownID), acme.Token, fiber.Map{
		"status": "inactive",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/resource-listings", globex.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, listOf(t, decodeBody(t, resp)), 1)

	// include_inactive widens the read again.
	resp = doRequest(t, app, "GET", "/api/v1/resource-listings?include_inactive=true", globex.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, listOf(t, decodeBody(t, resp)), 2)
}

func TestMyListings(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	globex := registerOwner(t, app, db, "globex")
	mine := createEmployee(t, app, acme, "one@example.com", "Go")
	theirs := createEmployee(t, app, globex, "two@example.com", "Rust")

	ownID := createListing(t, app, acme, "Own squad", []uint{mine})
	createListing(t, app, globex, "Their squad", []uint{theirs})

	resp := doRequest(t, app, "GET", "/api/v1/resource-listings/my-listings", acme.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := listOf(t, decodeBody(t, resp))
	require.Len(t, list, 1)
	assert.Equal(t, float64(ownID), list[0].(map[string]interface{})["ID"])
}

func TestUpdateListingStatusValidation(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	employeeID := createEmployee(t, app, acme, "one@example.com", "Go")
	listingID := createListing(t, app, acme, "Squad", []uint{employeeID})

	resp := doRequest(t, app, "POST", fmt.Sprintf("/api/v1/resource-listings/%d/update-status", listingID), acme.Token, fiber.Map{
		"status": "archived",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "status")
}

func TestUpdateListingInvisibleToNonOwners(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	globex := registerOwner(t, app, db, "globex")
	employeeID := createEmployee(t, app, acme, "one@example.com", "Go")
	listingID := createListing(t, app, acme, "Squad", []uint{employeeID})

	resp := doRequest(t, app, "PUT", fmt.Sprintf("/api/v1/resource-listings/%d", listingID), globex.Token, fiber.Map{
		"title": "Hijacked",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteListing(t *testing.T) {
	app, db := setupApp(t)

	acme := registerOwner(t, app, db, "acme")
	employeeID := createEmployee(t, app, acme, "one@example.com", "Go")
	listingID := createListing(t, app, acme, "Squad", []uint{employeeID})

	resp := doRequest(t, app, "DELETE", fmt.Sprintf("/api/v1/resource-listings/%d", listingID), acme.Token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, "GET", fmt.Sprintf("/api/v1/resource-listings/%d", listingID), acme.Token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
