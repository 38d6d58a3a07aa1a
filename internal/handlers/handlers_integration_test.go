package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"galeri/internal/handlers"
	"galeri/internal/middleware"
	"galeri/internal/models"
	"galeri/internal/repositories"
	"galeri/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubGateway stands in for the payment provider. It records pushes and
// hands out sequential checkout request IDs.
type stubGateway struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGateway) InitiateSTKPush(ctx context.Context, phone string, amount float64, accountRef, description string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.calls++
	return fmt.Sprintf("ws_CO_%03d", g.calls), nil
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	gateway  *stubGateway
	artworks repositories.ArtworkRepository
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services. Each call gets its own database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Artwork{},
		&models.DeliveryOption{},
		&models.Order{},
		&models.OrderItem{},
		&models.PendingPayment{},
		&models.Notification{},
	)
	require.NoError(t, err)

	artworkRepo := repositories.NewGORMArtworkRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	paymentRepo := repositories.NewGORMPaymentRepository(db)
	deliveryRepo := repositories.NewGORMDeliveryRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)

	gateway := &stubGateway{}

	notifier := services.NewNotificationService(notificationRepo, nil)
	orderService := services.NewOrderService(orderRepo, deliveryRepo, notifier)
	paymentService := services.NewPaymentService(paymentRepo, orderService, gateway, 5*time.Minute)
	checkoutService := services.NewCheckoutService(orderRepo, deliveryRepo, paymentService, notifier)
	artworkService := services.NewArtworkService(artworkRepo, notifier)
	deliveryService := services.NewDeliveryService(deliveryRepo, notifier)
	authService := services.NewAuthService(userRepo, jwtSecret)

	authHandler := handlers.NewAuthHandler(authService)
	artworkHandler := handlers.NewArtworkHandler(artworkService)
	deliveryHandler := handlers.NewDeliveryHandler(deliveryService)
	orderHandler := handlers.NewOrderHandler(orderService, checkoutService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	notificationHandler := handlers.NewNotificationHandler(notifier)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	// Public routes: auth, catalog reads, provider callback
	authHandler.RegisterRoutes(apiV1)
	paymentHandler.RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	artworkHandler.RegisterRoutes(apiV1, protectedRoutes)
	deliveryHandler.RegisterRoutes(apiV1, protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)
	notificationHandler.RegisterRoutes(protectedRoutes)

	return &testEnv{app: app, db: db, gateway: gateway, artworks: artworkRepo}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func (e *testEnv) seedArtwork(t *testing.T, name string, price float64, stock int) *models.Artwork {
	t.Helper()
	a := &models.Artwork{Name: name, Price: price, StockQuantity: stock}
	require.NoError(t, e.artworks.Create(a))
	return a
}

func (e *testEnv) seedDeliveryOption(t *testing.T, name string, fee float64, isPickup bool) *models.DeliveryOption {
	t.Helper()
	o := &models.DeliveryOption{ID: uuid.New().String(), Name: name, Fee: fee, IsPickup: isPickup, Active: true}
	require.NoError(t, e.db.Create(o).Error)
	return o
}

// seedUser inserts a user directly, bypassing the register endpoint, so
// tests can mint admin accounts.
func (e *testEnv) seedUser(t *testing.T, email string, isAdmin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:       uuid.New().String(),
		Name:     "Seeded User",
		Email:    email,
		Password: string(hash),
		IsAdmin:  isAdmin,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	resp := e.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	resp.Body.Close()
}

func successCallback(checkoutRequestID, receipt string) map[string]interface{} {
	return map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": checkoutRequestID,
				"ResultCode":        0,
				"ResultDesc":        "The service request is processed successfully.",
				"CallbackMetadata": map[string]interface{}{
					"Item": []map[string]interface{}{
						{"Name": "Amount", "Value": 4800.0},
						{"Name": "MpesaReceiptNumber", "Value": receipt},
						{"Name": "PhoneNumber", "Value": 254712345678},
					},
				},
			},
		},
	}
}

func failureCallback(checkoutRequestID string) map[string]interface{} {
	return map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": checkoutRequestID,
				"ResultCode":        1032,
				"ResultDesc":        "Request cancelled by user",
			},
		},
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	userToRegister := map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := env.request(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]interface{}
	decodeJSON(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])

	// Duplicate registration conflicts
	resp = env.request(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login with the new credentials
	token := env.login(t, "test@example.com")
	assert.NotEmpty(t, token)
}

func TestCheckoutToPaidFlow(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Sunset Over Nairobi", 4500, 3)
	option := env.seedDeliveryOption(t, "Courier", 300, false)
	env.seedUser(t, "buyer@example.com", false)
	token := env.login(t, "buyer@example.com")

	// Place the order
	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"shipping_address":   "14 Riverside Drive",
		"payer_phone":        "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkoutResp struct {
		Data struct {
			OrderID           string  `json:"order_id"`
			CheckoutRequestID string  `json:"checkout_request_id"`
			TotalPrice        float64 `json:"total_price"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &checkoutResp)
	assert.Equal(t, 4800.0, checkoutResp.Data.TotalPrice)
	require.NotEmpty(t, checkoutResp.Data.CheckoutRequestID)

	// Stock was reserved
	a, err := env.artworks.GetByID(artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.StockQuantity)

	// Provider posts the success callback; the endpoint is unauthenticated
	// and always acks
	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		successCallback(checkoutResp.Data.CheckoutRequestID, "QGH7SK61SU"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ack map[string]interface{}
	decodeJSON(t, resp, &ack)
	assert.Equal(t, float64(0), ack["ResultCode"])
	assert.Equal(t, "Accepted", ack["ResultDesc"])

	// The buyer polls the order and sees it paid
	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+checkoutResp.Data.OrderID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var order models.Order
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, "QGH7SK61SU", order.PaymentGatewayRef)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Sunset Over Nairobi", order.Items[0].ArtworkName)

	// A duplicate delivery of the same callback is still acked and changes
	// nothing
	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		successCallback(checkoutResp.Data.CheckoutRequestID, "QGH7SK61SU"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+checkoutResp.Data.OrderID, token, nil)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderPaid, order.Status)

	// The notification feed has the placement and the payment confirmation
	resp = env.request(t, http.MethodGet, "/api/v1/notifications/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed repositories.NotificationPage
	decodeJSON(t, resp, &feed)
	assert.Equal(t, int64(2), feed.Total)
	assert.Equal(t, int64(2), feed.UnreadCount)
}

func TestCheckoutCancelledByPayer(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Tidal Forms", 2000, 2)
	option := env.seedDeliveryOption(t, "Gallery Pickup", 0, true)
	env.seedUser(t, "buyer@example.com", false)
	token := env.login(t, "buyer@example.com")

	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 2}},
		"delivery_option_id": option.ID,
		"payer_phone":        "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkoutResp struct {
		Data struct {
			OrderID           string `json:"order_id"`
			CheckoutRequestID string `json:"checkout_request_id"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &checkoutResp)

	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		failureCallback(checkoutResp.Data.CheckoutRequestID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Cancelled, and the stock reservation was released
	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+checkoutResp.Data.OrderID, token, nil)
	var order models.Order
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderCancelled, order.Status)

	a, err := env.artworks.GetByID(artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.StockQuantity)
}

func TestCallbackSuccessWithoutReceipt(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Harbor Light", 1500, 1)
	option := env.seedDeliveryOption(t, "Courier", 300, false)
	env.seedUser(t, "buyer@example.com", false)
	token := env.login(t, "buyer@example.com")

	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"shipping_address":   "14 Riverside Drive",
		"payer_phone":        "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkoutResp struct {
		Data struct {
			OrderID           string `json:"order_id"`
			CheckoutRequestID string `json:"checkout_request_id"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &checkoutResp)

	// ResultCode 0 but no CallbackMetadata, so no receipt number
	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "", map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": checkoutResp.Data.CheckoutRequestID,
				"ResultCode":        0,
				"ResultDesc":        "The service request is processed successfully.",
			},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The order never becomes paid without a provider reference
	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+checkoutResp.Data.OrderID, token, nil)
	var order models.Order
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Empty(t, order.PaymentGatewayRef)

	a, err := env.artworks.GetByID(artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.StockQuantity)
}

func TestGatewayRefsAreDistinctPerOrder(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Tidal Forms", 2000, 4)
	option := env.seedDeliveryOption(t, "Courier", 300, false)
	env.seedUser(t, "alice@example.com", false)
	env.seedUser(t, "bob@example.com", false)

	checkout := func(token string) (orderID, crid string) {
		resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
			"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
			"delivery_option_id": option.ID,
			"shipping_address":   "14 Riverside Drive",
			"payer_phone":        "254712345678",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var checkoutResp struct {
			Data struct {
				OrderID           string `json:"order_id"`
				CheckoutRequestID string `json:"checkout_request_id"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &checkoutResp)
		return checkoutResp.Data.OrderID, checkoutResp.Data.CheckoutRequestID
	}

	// Two unsettled orders coexist; neither carries a gateway reference yet
	aliceToken := env.login(t, "alice@example.com")
	bobToken := env.login(t, "bob@example.com")
	aliceOrderID, aliceCRID := checkout(aliceToken)
	bobOrderID, bobCRID := checkout(bobToken)

	resp := env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		successCallback(aliceCRID, "QGH7SK61SU"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		successCallback(bobCRID, "QGH7SK62TV"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var order models.Order
	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+aliceOrderID, aliceToken, nil)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, "QGH7SK61SU", order.PaymentGatewayRef)

	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+bobOrderID, bobToken, nil)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, "QGH7SK62TV", order.PaymentGatewayRef)
}

func TestCheckoutValidationAndStock(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Limited Print", 800, 1)
	option := env.seedDeliveryOption(t, "Courier", 300, false)
	env.seedUser(t, "buyer@example.com", false)
	token := env.login(t, "buyer@example.com")

	// Requesting more than available is a 400 with the stock field named
	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 5}},
		"delivery_option_id": option.ID,
		"shipping_address":   "14 Riverside Drive",
		"payer_phone":        "254712345678",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp map[string]interface{}
	decodeJSON(t, resp, &errResp)
	assert.Equal(t, "stock", errResp["field"])

	// Nothing was held
	a, err := env.artworks.GetByID(artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.StockQuantity)

	// Delivery order without an address
	resp = env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"payer_phone":        "254712345678",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Gateway outage surfaces as 502 and rolls the order back
	env.gateway.err = fmt.Errorf("connection refused")
	resp = env.request(t, http.MethodPost, "/api/v1/orders/checkout", token, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"shipping_address":   "14 Riverside Drive",
		"payer_phone":        "254712345678",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	a, err = env.artworks.GetByID(artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.StockQuantity)
}

func TestAdminStatusTransitions(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Sunset Over Nairobi", 4500, 3)
	option := env.seedDeliveryOption(t, "Courier", 300, false)
	env.seedUser(t, "buyer@example.com", false)
	env.seedUser(t, "admin@example.com", true)
	buyerToken := env.login(t, "buyer@example.com")
	adminToken := env.login(t, "admin@example.com")

	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", buyerToken, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"shipping_address":   "14 Riverside Drive",
		"payer_phone":        "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkoutResp struct {
		Data struct {
			OrderID           string `json:"order_id"`
			CheckoutRequestID string `json:"checkout_request_id"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &checkoutResp)
	orderID := checkoutResp.Data.OrderID

	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		successCallback(checkoutResp.Data.CheckoutRequestID, "QGH7SK61SU"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Buyers cannot move orders through fulfillment
	resp = env.request(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", buyerToken, map[string]string{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Admin ships it
	resp = env.request(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{
		"status": "shipped",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var order models.Order
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderShipped, order.Status)

	// Skipping backwards is a conflict
	resp = env.request(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{
		"status": "paid",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Unknown status is a bad request
	resp = env.request(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]string{
		"status": "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestPickupFlow(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Sisal Weave II", 1200, 4)
	option := env.seedDeliveryOption(t, "Gallery Pickup", 0, true)
	env.seedUser(t, "buyer@example.com", false)
	env.seedUser(t, "admin@example.com", true)
	buyerToken := env.login(t, "buyer@example.com")
	adminToken := env.login(t, "admin@example.com")

	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", buyerToken, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"payer_phone":        "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkoutResp struct {
		Data struct {
			OrderID           string `json:"order_id"`
			CheckoutRequestID string `json:"checkout_request_id"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &checkoutResp)

	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		successCallback(checkoutResp.Data.CheckoutRequestID, "QGH7SK61SU"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Pickup without collector identity is rejected
	resp = env.request(t, http.MethodPatch, "/api/v1/orders/"+checkoutResp.Data.OrderID+"/status", adminToken, map[string]string{
		"status": "picked_up",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodPatch, "/api/v1/orders/"+checkoutResp.Data.OrderID+"/status", adminToken, map[string]string{
		"status":             "picked_up",
		"picked_up_by_name":  "Jane Wanjiku",
		"picked_up_by_id_no": "12345678",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var order models.Order
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.OrderPickedUp, order.Status)
	assert.Equal(t, "Jane Wanjiku", order.PickedUpByName)
	assert.NotNil(t, order.PickedUpAt)
}

func TestOrderOwnershipAndListing(t *testing.T) {
	env := setupApp(t)
	artwork := env.seedArtwork(t, "Sunset Over Nairobi", 4500, 3)
	option := env.seedDeliveryOption(t, "Courier", 300, false)
	env.seedUser(t, "alice@example.com", false)
	env.seedUser(t, "bob@example.com", false)
	env.seedUser(t, "admin@example.com", true)
	aliceToken := env.login(t, "alice@example.com")
	bobToken := env.login(t, "bob@example.com")
	adminToken := env.login(t, "admin@example.com")

	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", aliceToken, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"shipping_address":   "14 Riverside Drive",
		"payer_phone":        "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkoutResp struct {
		Data struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &checkoutResp)

	// Bob cannot see Alice's order
	resp = env.request(t, http.MethodGet, "/api/v1/orders/"+checkoutResp.Data.OrderID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Bob's listing is empty, Alice's has the order, the admin sees all
	resp = env.request(t, http.MethodGet, "/api/v1/orders/", bobToken, nil)
	var bobOrders []models.Order
	decodeJSON(t, resp, &bobOrders)
	assert.Empty(t, bobOrders)

	resp = env.request(t, http.MethodGet, "/api/v1/orders/", aliceToken, nil)
	var aliceOrders []models.Order
	decodeJSON(t, resp, &aliceOrders)
	assert.Len(t, aliceOrders, 1)

	resp = env.request(t, http.MethodGet, "/api/v1/orders/", adminToken, nil)
	var allOrders []models.Order
	decodeJSON(t, resp, &allOrders)
	assert.Len(t, allOrders, 1)
}

func TestNotificationEndpoints(t *testing.T) {
	env := setupApp(t)
	env.seedUser(t, "buyer@example.com", false)
	env.seedUser(t, "admin@example.com", true)
	buyerToken := env.login(t, "buyer@example.com")
	adminToken := env.login(t, "admin@example.com")
	artwork := env.seedArtwork(t, "Sunset Over Nairobi", 4500, 3)
	option := env.seedDeliveryOption(t, "Courier", 300, false)

	resp := env.request(t, http.MethodPost, "/api/v1/orders/checkout", buyerToken, map[string]interface{}{
		"items":              []map[string]interface{}{{"artwork_id": artwork.ID, "quantity": 1}},
		"delivery_option_id": option.ID,
		"shipping_address":   "14 Riverside Drive",
		"payer_phone":        "254712345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkoutResp struct {
		Data struct {
			CheckoutRequestID string `json:"checkout_request_id"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &checkoutResp)

	resp = env.request(t, http.MethodPost, "/api/v1/payments/callback", "",
		successCallback(checkoutResp.Data.CheckoutRequestID, "QGH7SK61SU"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Admin feed has the new paid order broadcast
	resp = env.request(t, http.MethodGet, "/api/v1/notifications/", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var adminFeed repositories.NotificationPage
	decodeJSON(t, resp, &adminFeed)
	require.Equal(t, int64(1), adminFeed.Total)
	assert.Equal(t, models.NotifNewOrder, adminFeed.Items[0].Type)

	// The buyer cannot mark the admin broadcast read
	resp = env.request(t, http.MethodPost, "/api/v1/notifications/"+adminFeed.Items[0].ID+"/read", buyerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The buyer marks one of their own read
	resp = env.request(t, http.MethodGet, "/api/v1/notifications/", buyerToken, nil)
	var buyerFeed repositories.NotificationPage
	decodeJSON(t, resp, &buyerFeed)
	require.Equal(t, int64(2), buyerFeed.Total)

	resp = env.request(t, http.MethodPost, "/api/v1/notifications/"+buyerFeed.Items[0].ID+"/read", buyerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var read models.Notification
	decodeJSON(t, resp, &read)
	assert.NotNil(t, read.ReadAt)

	// read-all clears the rest
	resp = env.request(t, http.MethodPost, "/api/v1/notifications/read-all", buyerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var readAll map[string]interface{}
	decodeJSON(t, resp, &readAll)
	assert.Equal(t, float64(1), readAll["marked_read"])

	resp = env.request(t, http.MethodGet, "/api/v1/notifications/?unread_only=true", buyerToken, nil)
	var unread repositories.NotificationPage
	decodeJSON(t, resp, &unread)
	assert.Equal(t, int64(0), unread.Total)
}

func TestCatalogEndpoints(t *testing.T) {
	env := setupApp(t)
	env.seedUser(t, "buyer@example.com", false)
	env.seedUser(t, "admin@example.com", true)
	buyerToken := env.login(t, "buyer@example.com")
	adminToken := env.login(t, "admin@example.com")

	// Catalog reads are public
	resp := env.request(t, http.MethodGet, "/api/v1/artworks/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Writes require an admin token
	newArtwork := map[string]interface{}{
		"name":           "Sunset Over Nairobi",
		"price":          4500.0,
		"stock_quantity": 3,
	}
	resp = env.request(t, http.MethodPost, "/api/v1/artworks/", buyerToken, newArtwork)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodPost, "/api/v1/artworks/", adminToken, newArtwork)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Artwork
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created.ID)

	resp = env.request(t, http.MethodGet, "/api/v1/artworks/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Artwork
	decodeJSON(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)

	// The catalog write landed in the admin notification feed
	resp = env.request(t, http.MethodGet, "/api/v1/notifications/", adminToken, nil)
	var adminFeed repositories.NotificationPage
	decodeJSON(t, resp, &adminFeed)
	require.Equal(t, int64(1), adminFeed.Total)
	assert.Equal(t, models.NotifArtworkUpdate, adminFeed.Items[0].Type)

	// Delivery options list is public too
	resp = env.request(t, http.MethodGet, "/api/v1/delivery-options", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	env := setupApp(t)

	resp := env.request(t, http.MethodGet, "/api/v1/orders/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/v1/notifications/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
