package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"toolsnest/internal/handlers"
	"toolsnest/internal/models"
	"toolsnest/internal/repositories"
	"toolsnest/internal/server"
	"toolsnest/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmail = "a@b.c"

var errStoreDown = errors.New("store unavailable")

// faultyStore wraps a real store and fails selected operations.
type faultyStore struct {
	repositories.DocumentStore
	failUpsertIn string
	failFindMany bool
}

func (s *faultyStore) UpsertOne(ctx context.Context, collection string, filter models.Filter, patch models.Document) (*models.UpdateResult, error) {
	if collection == s.failUpsertIn {
		return nil, errStoreDown
	}
	return s.DocumentStore.UpsertOne(ctx, collection, filter, patch)
}

func (s *faultyStore) FindMany(ctx context.Context, collection string, filter models.Filter) ([]models.Document, error) {
	if s.failFindMany {
		return nil, errStoreDown
	}
	return s.DocumentStore.FindMany(ctx, collection, filter)
}

type fakeGateway struct {
	amounts []int64
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string) (string, error) {
	g.amounts = append(g.amounts, amount)
	return "pi_secret_" + currency, nil
}

type testEnv struct {
	app     *fiber.App
	mem     *repositories.MemoryDocumentStore
	faults  *faultyStore
	gateway *fakeGateway
	token   string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := repositories.NewMemoryDocumentStore()
	faults := &faultyStore{DocumentStore: mem}
	gw := &fakeGateway{}
	tokens := services.NewTokenService("test-secret", time.Hour)

	app := server.NewApp(server.Deps{
		Store:    faults,
		Tokens:   tokens,
		Gateway:  gw,
		Currency: "usd",
	})

	token, err := tokens.Issue(testEmail)
	require.NoError(t, err)

	return &testEnv{app: app, mem: mem, faults: faults, gateway: gw, token: token}
}

// call performs a request and decodes a JSON response into out when given.
func (e *testEnv) call(t *testing.T, method, path string, body interface{}, authed bool, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if authed {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+e.token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, server.LivenessMessage, string(raw))
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	env.call(t, fiber.MethodGet, "/products", nil, false, nil)

	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestGuardedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	routes := []struct{ method, path string }{
		{fiber.MethodGet, "/users"},
		{fiber.MethodGet, "/user/" + testEmail},
		{fiber.MethodPost, "/products"},
		{fiber.MethodPost, "/reviews"},
		{fiber.MethodGet, "/orders"},
		{fiber.MethodPost, "/payment-intent"},
	}
	for _, r := range routes {
		var body map[string]string
		status := env.call(t, r.method, r.path, nil, false, &body)
		assert.Equal(t, fiber.StatusUnauthorized, status, r.method+" "+r.path)
		assert.Equal(t, "UnAuthorized access", body["message"])
	}

	// Public routes stay open.
	assert.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/products", nil, false, nil))
	assert.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/reviews", nil, false, nil))
}

func TestLoginIssuesTokenAndStripsPrivilegedFields(t *testing.T) {
	env := setupTestEnv(t)

	var login services.LoginResult
	status := env.call(t, fiber.MethodPut, "/user/"+testEmail, map[string]interface{}{
		"name":  "Ada",
		"admin": true,
	}, false, &login)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, int64(1), login.Result.UpsertedCount)

	env.token = login.Token
	var user map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/user/"+testEmail, nil, true, &user))
	assert.Equal(t, "Ada", user["name"])
	assert.Equal(t, testEmail, user["email"])
	assert.NotContains(t, user, "admin")
}

func TestEncodedEmailPathIsDecoded(t *testing.T) {
	env := setupTestEnv(t)

	var login services.LoginResult
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodPut, "/user/ada%40x.com", map[string]string{"name": "Ada"}, false, &login))

	tokens := services.NewTokenService("test-secret", time.Hour)
	subject, err := tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", subject)

	env.token = login.Token
	var user map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/user/ada@x.com", nil, true, &user))
	assert.Equal(t, "ada@x.com", user["email"])

	user = nil
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/user/ada%40x.com", nil, true, &user))
	assert.Equal(t, "ada@x.com", user["email"])

	var users []map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/users", nil, true, &users))
	require.Len(t, users, 1)
}

func TestAdminToggleRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodPut, "/user/"+testEmail, map[string]string{"name": "Ada"}, false, nil))

	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodPut, "/user/"+testEmail+"/admin", nil, true, nil))
	var user map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/user/"+testEmail, nil, true, &user))
	assert.Equal(t, true, user["admin"])

	for _, path := range []string{"/admin/revoke", "/revoke-admin"} {
		require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodPut, "/user/"+testEmail+path, nil, true, nil))
		user = nil
		require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/user/"+testEmail, nil, true, &user))
		assert.Equal(t, false, user["admin"], path)
	}
}

func TestProductLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	var created models.InsertResult
	status := env.call(t, fiber.MethodPost, "/products", map[string]interface{}{
		"name":  "Hammer",
		"price": 12.5,
	}, true, &created)
	require.Equal(t, fiber.StatusCreated, status)
	id, ok := created.InsertedID.(string)
	require.True(t, ok)

	var product map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/products/"+id, nil, false, &product))
	assert.Equal(t, "Hammer", product["name"])
	assert.Equal(t, 12.5, product["price"])

	var updated models.UpdateResult
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodPut, "/products/"+id, map[string]interface{}{"price": 10}, true, &updated))
	assert.Equal(t, int64(1), updated.MatchedCount)

	var deleted models.DeleteResult
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodDelete, "/products/"+id, nil, true, &deleted))
	assert.Equal(t, int64(1), deleted.DeletedCount)

	deleted = models.DeleteResult{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodDelete, "/products/"+id, nil, true, &deleted))
	assert.Zero(t, deleted.DeletedCount)
}

func TestProductValidation(t *testing.T) {
	env := setupTestEnv(t)

	var failure handlers.ErrorResponse
	status := env.call(t, fiber.MethodPost, "/products", map[string]interface{}{"price": 3}, true, &failure)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, handlers.KindBadRequest, failure.Error)
	assert.Contains(t, failure.Fields, "Name")
}

func TestLookupErrors(t *testing.T) {
	env := setupTestEnv(t)

	var failure handlers.ErrorResponse
	assert.Equal(t, fiber.StatusBadRequest, env.call(t, fiber.MethodGet, "/products/not-an-id", nil, false, &failure))
	assert.Equal(t, handlers.KindInvalidID, failure.Error)

	failure = handlers.ErrorResponse{}
	missing := "7b0d3f5e-8f41-4d8e-9a57-6f1c2b3d4e5f"
	assert.Equal(t, fiber.StatusNotFound, env.call(t, fiber.MethodGet, "/products/"+missing, nil, false, &failure))
	assert.Equal(t, handlers.KindNotFound, failure.Error)

	failure = handlers.ErrorResponse{}
	assert.Equal(t, fiber.StatusNotFound, env.call(t, fiber.MethodPut, "/orders/"+missing+"/pay", map[string]string{"transactionId": "tx"}, true, &failure))
	assert.Equal(t, handlers.KindNotFound, failure.Error)
}

func TestStoreFailure(t *testing.T) {
	env := setupTestEnv(t)
	env.faults.failFindMany = true

	var failure handlers.ErrorResponse
	status := env.call(t, fiber.MethodGet, "/products", nil, false, &failure)

	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, handlers.KindStoreError, failure.Error)
}

func TestReviews(t *testing.T) {
	env := setupTestEnv(t)

	require.Equal(t, fiber.StatusCreated, env.call(t, fiber.MethodPost, "/reviews", map[string]interface{}{
		"name":    "Ada",
		"rating":  5,
		"comment": "solid",
	}, true, nil))

	var reviews []map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/reviews", nil, false, &reviews))
	require.Len(t, reviews, 1)
	assert.Equal(t, "solid", reviews[0]["comment"])
}

func createOrder(t *testing.T, env *testEnv) string {
	t.Helper()
	var created models.InsertResult
	status := env.call(t, fiber.MethodPost, "/orders", map[string]interface{}{
		"productName": "Hammer",
		"quantity":    2,
	}, true, &created)
	require.Equal(t, fiber.StatusCreated, status)
	id, ok := created.InsertedID.(string)
	require.True(t, ok)
	return id
}

func TestOrdersDefaultToTokenSubject(t *testing.T) {
	env := setupTestEnv(t)
	createOrder(t, env)

	var orders []map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/orders/email/"+testEmail, nil, true, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, testEmail, orders[0]["email"])
}

func TestPayOrder(t *testing.T) {
	env := setupTestEnv(t)
	id := createOrder(t, env)

	var res models.PayResult
	status := env.call(t, fiber.MethodPut, "/orders/"+id+"/pay", map[string]string{"transactionId": "tx_1"}, true, &res)
	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, res.Payment)
	require.NotNil(t, res.Order)
	assert.Equal(t, int64(1), res.Order.MatchedCount)

	var order map[string]interface{}
	require.Equal(t, fiber.StatusOK, env.call(t, fiber.MethodGet, "/orders/"+id, nil, true, &order))
	assert.Equal(t, true, order["paid"])
	assert.Equal(t, "tx_1", order["transactionId"])

	payments, err := env.mem.FindMany(context.Background(), models.PaymentCollection, models.Filter{"orderId": id})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "tx_1", payments[0]["transactionId"])
}

func TestPayOrderRequiresTransactionID(t *testing.T) {
	env := setupTestEnv(t)
	id := createOrder(t, env)

	var failure handlers.ErrorResponse
	assert.Equal(t, fiber.StatusBadRequest, env.call(t, fiber.MethodPut, "/orders/"+id+"/pay", map[string]string{}, true, &failure))
	assert.Contains(t, failure.Fields, "TransactionID")
}

func TestPayOrderCompensatesFailedOrderWrite(t *testing.T) {
	env := setupTestEnv(t)
	id := createOrder(t, env)
	env.faults.failUpsertIn = models.OrderCollection

	var failure handlers.ErrorResponse
	status := env.call(t, fiber.MethodPut, "/orders/"+id+"/pay", map[string]string{"transactionId": "tx_1"}, true, &failure)

	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, handlers.KindOrderUpdateFailed, failure.Error)

	payments, err := env.mem.FindMany(context.Background(), models.PaymentCollection, models.Filter{})
	require.NoError(t, err)
	assert.Empty(t, payments)

	order, err := env.mem.FindOne(context.Background(), models.OrderCollection, models.ByID(id))
	require.NoError(t, err)
	assert.NotContains(t, order, "paid")
}

func TestPaymentIntent(t *testing.T) {
	env := setupTestEnv(t)

	var res models.PaymentIntentResponse
	status := env.call(t, fiber.MethodPost, "/payment-intent", map[string]float64{"price": 19.99}, true, &res)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pi_secret_usd", res.ClientSecret)
	assert.Equal(t, []int64{1999}, env.gateway.amounts)
}

func TestPaymentIntentRejectsBadPrices(t *testing.T) {
	env := setupTestEnv(t)

	var failure handlers.ErrorResponse
	assert.Equal(t, fiber.StatusBadRequest, env.call(t, fiber.MethodPost, "/payment-intent", map[string]float64{"price": 0}, true, &failure))
	assert.Equal(t, handlers.KindInvalidAmount, failure.Error)

	failure = handlers.ErrorResponse{}
	assert.Equal(t, fiber.StatusBadRequest, env.call(t, fiber.MethodPost, "/payment-intent", map[string]string{}, true, &failure))
	assert.Equal(t, handlers.KindBadRequest, failure.Error)

	assert.Empty(t, env.gateway.amounts)
}
