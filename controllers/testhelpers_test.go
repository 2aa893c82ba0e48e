package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"benchlist/config"
	"benchlist/models"
	"benchlist/routes"
)

var dbCounter int64

const testPassword = "sup3r-secret-pw"

// setupApp wires a full application against a private in-memory database.
// config.DB is swapped so the auth handlers and JWT middleware hit the same
// store the request handlers do.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.RateLimitAuth = 1000

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))
	config.DB = db

	app := fiber.New()
	routes.SetupRoutes(app, db)
	return app, db
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "expected data object, got %v", body)
	return data
}

func listOf(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()

	data, ok := body["data"].([]interface{})
	require.True(t, ok, "expected data array, got %v", body)
	return data
}

func idOf(t *testing.T, data map[string]interface{}) uint {
	t.Helper()

	raw, ok := data["ID"].(float64)
	require.True(t, ok, "expected numeric ID, got %v", data)
	return uint(raw)
}

type testAccount struct {
	Token     string
	UserID    uint
	CompanyID uint
	Email     string
}

// registerOwner provisions a company owner through the public registration
// endpoint and logs them in.
func registerOwner(t *testing.T, app *fiber.App, db *gorm.DB, slug string) testAccount {
	t.Helper()

	email := slug + "-owner@example.com"
	resp := doRequest(t, app, "POST", "/api/auth/register/company-user", "", fiber.Map{
		"email":         email,
		"password":      testPassword,
		"password2":     testPassword,
		"first_name":    "Owner",
		"last_name":     slug,
		"company_name":  slug + " Co",
		"company_email": slug + "-co@example.com",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	var company models.Company
	require.NoError(t, db.Where("admin_user_id = ?", user.ID).First(&company).Error)

	return testAccount{
		Token:     login(t, app, email, testPassword),
		UserID:    user.ID,
		CompanyID: company.ID,
		Email:     email,
	}
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	resp := doRequest(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"email":    email,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	token, ok := body["access_token"].(string)
	require.True(t, ok, "expected access_token in %v", body)
	return token
}

// createEmployee adds an available employee to the account's roster through
// the API.
func createEmployee(t *testing.T, app *fiber.App, account testAccount, email, skills string) uint {
	t.Helper()

	resp := doRequest(t, app, "POST", "/api/v1/employees", account.Token, fiber.Map{
		"first_name":       "Dev",
		"last_name":        "Eloper",
		"email":            email,
		"job_title":        "Software Engineer",
		"experience_years": 4,
		"skills":           skills,
		"company_id":       account.CompanyID,
		"bench_start_date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return idOf(t, dataOf(t, decodeBody(t, resp)))
}
