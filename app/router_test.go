package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/service"
	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/internal/store/memstore"
	"bitwise74/rental-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (f *fakeMailer) SendOTP(_ context.Context, to, _, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[to] = code
	return nil
}

func (f *fakeMailer) last(to string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[to]
}

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeImages) Upload(_ context.Context, ownerID string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://cdn.example.com/items/" + ownerID + "/pic.png", nil
}

func (f *fakeImages) Delete(_ context.Context, urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, urls...)
}

type env struct {
	t      *testing.T
	router *gin.Engine
	deps   *internal.Deps
	store  *memstore.Store
	mailer *fakeMailer
	images *fakeImages
}

func newEnv(t *testing.T) *env {
	t.Helper()

	hasher := security.New()
	hasher.Memory = 1024
	hasher.Iterations = 1

	e := &env{
		t:      t,
		store:  memstore.New(),
		mailer: &fakeMailer{codes: map[string]string{}},
		images: &fakeImages{},
	}

	e.deps = &internal.Deps{
		Store:    e.store,
		Argon:    hasher,
		Tokens:   service.NewTokenService("test-secret", time.Hour),
		Images:   e.images,
		MaxItems: 10,
	}
	e.deps.Verifier = service.NewVerifier(e.store, e.mailer, nil, hasher, service.OTPConfig{
		Length: 6,
		TTL:    2 * time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	e.router = NewRouter(ctx, e.deps, Options{UploadMaxSize: 1 << 20})
	return e
}

func (e *env) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// user creates a verified account directly in the store
func (e *env) user(name string, admin bool) (*model.User, string) {
	e.t.Helper()

	hash, err := e.deps.Argon.Hash(testPassword)
	require.NoError(e.t, err)

	u := &model.User{
		Name:            name,
		Email:           strings.ToLower(name) + "@example.com",
		PasswordHash:    hash,
		Phone:           "0123456789",
		IsActive:        true,
		IsAdmin:         admin,
		IsEmailVerified: true,
	}
	require.NoError(e.t, e.store.CreateUser(context.Background(), u))

	tok, err := e.deps.Tokens.Issue(u)
	require.NoError(e.t, err)
	return u, tok
}

func (e *env) item(ownerID, title, category string, price float64) *model.Item {
	e.t.Helper()

	i := &model.Item{
		Title:       title,
		Description: "a perfectly fine thing to rent",
		Category:    category,
		Images:      []string{"https://cdn.example.com/items/" + ownerID + "/" + title + ".png"},
		Price:       price,
		PriceUnit:   model.DefaultPriceUnit,
		Condition:   "Good",
		OwnerID:     ownerID,
		Location:    model.NewPoint(13.405, 52.52),
		Available:   true,
	}
	require.NoError(e.t, e.store.CreateItem(context.Background(), i))
	return i
}

func itemBody(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "a perfectly fine thing to rent",
		"category":    "Electronics",
		"image":       []string{"https://cdn.example.com/items/x.png"},
		"price":       12.5,
		"condition":   "Like New",
		"location":    map[string]any{"coordinates": []float64{13.405, 52.52}},
	}
}

func TestRegisterVerifyLogin(t *testing.T) {
	e := newEnv(t)

	creds := map[string]any{"email": "Ann@Example.com ", "password": "secret123"}

	code, body := e.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Ann",
		"email":    creds["email"],
		"password": creds["password"],
		"phone":    "0123456789",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotEmpty(t, body["token"])

	u, err := e.store.UserByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
	assert.False(t, u.IsEmailVerified)

	code, body = e.do(http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Email not verified. Please verify your email before logging in.", body["message"])

	// a wrong password never reveals the verification state
	code, body = e.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ann@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["message"])

	code, _ = e.do(http.MethodPost, "/api/auth/send-otp", "", map[string]any{"email": "ann@example.com"})
	require.Equal(t, http.StatusOK, code)

	otp := e.mailer.last("ann@example.com")
	require.Len(t, otp, 6)

	code, body = e.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]any{"email": "ann@example.com", "otp": otp})
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["resetToken"], 64)

	// the code is gone after the first use
	code, _ = e.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]any{"email": "ann@example.com", "otp": otp})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	e.user("Bob", false)

	tests := []struct {
		name string
		body map[string]any
		msg  string
	}{
		{
			"missing phone",
			map[string]any{"name": "Ann", "email": "ann@example.com", "password": "secret123"},
			"Please provide all required fields: name, email, password, phone",
		},
		{
			"short password",
			map[string]any{"name": "Ann", "email": "ann@example.com", "password": "abc", "phone": "0123456789"},
			"password must be at least 6 characters long",
		},
		{
			"duplicate email",
			map[string]any{"name": "Bobby", "email": "BOB@example.com", "password": "secret123", "phone": "0123456789"},
			"User already exists with this email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := e.do(http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.msg, body["message"])
		})
	}

	code, body := e.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "An", "email": "an@example.com", "password": "secret123", "phone": "0123456789",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, strings.HasPrefix(body["message"].(string), "Validation Error: name"))
}

func TestWrongOTPKeepsUserUnverified(t *testing.T) {
	e := newEnv(t)

	u := &model.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "x"}
	require.NoError(t, e.store.CreateUser(context.Background(), u))

	code, _ := e.do(http.MethodPost, "/api/auth/send-otp", "", map[string]any{"email": u.Email})
	require.Equal(t, http.StatusOK, code)

	wrong := "000000"
	if e.mailer.last(u.Email) == wrong {
		wrong = "111111"
	}

	code, body := e.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]any{"email": u.Email, "otp": wrong})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired OTP", body["message"])

	got, err := e.store.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsEmailVerified)

	code, body = e.do(http.MethodPost, "/api/auth/send-otp", "", map[string]any{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found with this email", body["message"])
}

func TestResetPassword(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user("Ann", false)

	code, _ := e.do(http.MethodPost, "/api/auth/send-otp", "", map[string]any{"email": u.Email})
	require.Equal(t, http.StatusOK, code)

	_, body := e.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]any{"email": u.Email, "otp": e.mailer.last(u.Email)})
	token := body["resetToken"].(string)

	code, body = e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]any{"email": u.Email, "newPassword": "newsecret", "token": "bogus"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invalid token or user not found", body["message"])

	code, _ = e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]any{"email": u.Email, "newPassword": "abc", "token": token})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]any{"email": u.Email, "newPassword": "newsecret", "token": token})
	require.Equal(t, http.StatusOK, code)

	code, _ = e.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = e.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": "newsecret"})
	assert.Equal(t, http.StatusOK, code)

	// the token is single use
	code, _ = e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]any{"email": u.Email, "newPassword": "another1", "token": token})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	e := newEnv(t)
	u, tok := e.user("Ann", false)
	other, otherTok := e.user("Bob", false)
	i := e.item(u.ID, "Drill", "Electronics", 10)

	expired, err := service.NewTokenService("test-secret", -time.Minute).Issue(u)
	require.NoError(t, err)

	// Bob's identity under Ann's signature
	parts := strings.Split(tok, ".")
	parts[1] = strings.Split(otherTok, ".")[1]
	forged := strings.Join(parts, ".")

	wrongKey, err := service.NewTokenService("another-secret", time.Hour).Issue(other)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/validate"},
		{http.MethodPut, "/api/users/update-user/" + u.ID},
		{http.MethodGet, "/api/users"},
		{http.MethodDelete, "/api/users/delete-user/" + other.ID},
		{http.MethodGet, "/api/items/get-my-items"},
		{http.MethodGet, "/api/items/get-my-stats"},
		{http.MethodPost, "/api/items/create-item"},
		{http.MethodPut, "/api/items/update-item/" + i.ID},
		{http.MethodDelete, "/api/items/delete-item/" + i.ID},
		{http.MethodPatch, "/api/items/toggle-availability/" + i.ID},
		{http.MethodPost, "/api/items/upload-image"},
	}

	for _, r := range routes {
		for name, bad := range map[string]string{"missing": "", "expired": expired, "forged": forged, "wrong key": wrongKey} {
			t.Run(r.method+" "+r.path+" "+name, func(t *testing.T) {
				code, body := e.do(r.method, r.path, bad, nil)
				assert.Equal(t, http.StatusUnauthorized, code)
				assert.Equal(t, false, body["success"])
			})
		}
	}

	code, body := e.do(http.MethodGet, "/api/validate", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, u.ID, body["user"].(map[string]any)["id"])
}

func TestItemOwnership(t *testing.T) {
	e := newEnv(t)
	owner, ownerTok := e.user("Ann", false)
	_, otherTok := e.user("Bob", false)
	_, adminTok := e.user("Root", true)

	i := e.item(owner.ID, "Drill", "Electronics", 10)
	update := map[string]any{"title": "Hammer drill"}

	code, body := e.do(http.MethodPut, "/api/items/update-item/"+i.ID, otherTok, update)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You can only perform this action on your own items", body["message"])

	code, _ = e.do(http.MethodPatch, "/api/items/toggle-availability/"+i.ID, otherTok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = e.do(http.MethodDelete, "/api/items/delete-item/"+i.ID, otherTok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = e.do(http.MethodPut, "/api/items/update-item/"+i.ID, ownerTok, update)
	require.Equal(t, http.StatusOK, code, body)
	got := body["item"].(map[string]any)
	assert.Equal(t, "Hammer drill", got["title"])
	assert.Equal(t, owner.ID, got["owner"].(map[string]any)["id"])

	code, body = e.do(http.MethodPatch, "/api/items/toggle-availability/"+i.ID, adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["available"])
	assert.Equal(t, "Item is now unavailable", body["message"])

	code, _ = e.do(http.MethodPut, "/api/items/update-item/"+i.ID, adminTok, map[string]any{"price": 99})
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(http.MethodDelete, "/api/items/delete-item/"+i.ID, ownerTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, i.Images, e.images.deleted)

	code, body = e.do(http.MethodDelete, "/api/items/delete-item/"+i.ID, ownerTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Item not found", body["message"])

	code, body = e.do(http.MethodDelete, "/api/items/delete-item/not-an-id", ownerTok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid item ID", body["message"])
}

func TestUpdateItemCannotTransferOwnership(t *testing.T) {
	e := newEnv(t)
	owner, tok := e.user("Ann", false)
	other, _ := e.user("Bob", false)
	i := e.item(owner.ID, "Drill", "Electronics", 10)

	code, _ := e.do(http.MethodPut, "/api/items/update-item/"+i.ID, tok, map[string]any{"owner": other.ID, "category": "Books"})
	require.Equal(t, http.StatusOK, code)

	got, err := e.store.ItemByID(context.Background(), i.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "Books", got.Category)

	code, body := e.do(http.MethodPut, "/api/items/update-item/"+i.ID, tok, map[string]any{"category": "Cars"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, strings.HasPrefix(body["message"].(string), "Validation Error: category"))
}

func TestItemQuota(t *testing.T) {
	e := newEnv(t)
	u, tok := e.user("Ann", false)

	for n := range 9 {
		e.item(u.ID, fmt.Sprintf("Item %d", n), "Other", 1)
	}

	// the 10th one still fits
	code, body := e.do(http.MethodPost, "/api/items/create-item", tok, itemBody("Camera"))
	require.Equal(t, http.StatusCreated, code, body)

	limit := body["itemLimitInfo"].(map[string]any)
	assert.EqualValues(t, 9, limit["currentItems"])
	assert.EqualValues(t, 10, limit["maxItems"])
	assert.EqualValues(t, 1, limit["remaining"])

	created := body["item"].(map[string]any)
	assert.Equal(t, "day", created["priceUnit"])
	assert.Equal(t, true, created["available"])

	code, body = e.do(http.MethodPost, "/api/items/create-item", tok, itemBody("Speaker"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "You can only post maximum 10 items")

	n, err := e.store.CountByOwner(context.Background(), u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)

	code, body = e.do(http.MethodGet, "/api/items/get-my-stats", tok, nil)
	require.Equal(t, http.StatusOK, code)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 10, stats["totalItems"])
	assert.EqualValues(t, 0, stats["remaining"])
	assert.Equal(t, false, stats["canAddMore"])
}

func TestCreateItemValidation(t *testing.T) {
	e := newEnv(t)
	_, tok := e.user("Ann", false)

	tests := map[string]func(b map[string]any){
		"no images":     func(b map[string]any) { b["image"] = []string{} },
		"bad category":  func(b map[string]any) { b["category"] = "Cars" },
		"bad condition": func(b map[string]any) { b["condition"] = "Broken" },
		"bad unit":      func(b map[string]any) { b["priceUnit"] = "hour" },
		"negative":      func(b map[string]any) { b["price"] = -1 },
		"no price":      func(b map[string]any) { delete(b, "price") },
		"bad location":  func(b map[string]any) { b["location"] = map[string]any{"coordinates": []float64{200, 10}} },
		"no location":   func(b map[string]any) { delete(b, "location") },
		"short title":   func(b map[string]any) { b["title"] = "ab" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			b := itemBody("Camera")
			mutate(b)

			code, body := e.do(http.MethodPost, "/api/items/create-item", tok, b)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.True(t, strings.HasPrefix(body["message"].(string), "Validation Error:"), body["message"])
		})
	}

	code, body := e.do(http.MethodPost, "/api/items/create-item", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestListFilterAndPagination(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user("Ann", false)

	e.item(u.ID, "Camera", "Electronics", 5)
	e.item(u.ID, "Speaker", "Electronics", 20)
	e.item(u.ID, "Headphones", "Electronics", 50)
	e.item(u.ID, "Laptop", "Electronics", 60)
	e.item(u.ID, "Sofa", "Furniture", 30)

	hidden := e.item(u.ID, "Console", "Electronics", 30)
	require.NoError(t, e.store.SetAvailability(context.Background(), hidden.ID, false))

	code, body := e.do(http.MethodGet, "/api/items?category=Electronics&minPrice=10&maxPrice=50", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 2, body["totalItems"])

	titles := []string{}
	for _, it := range body["items"].([]any) {
		m := it.(map[string]any)
		titles = append(titles, m["title"].(string))
		assert.Equal(t, "Ann", m["owner"].(map[string]any)["name"])
	}
	assert.ElementsMatch(t, []string{"Speaker", "Headphones"}, titles)

	_, body = e.do(http.MethodGet, "/api/items?category=all&condition=all&priceUnit=all", "", nil)
	assert.EqualValues(t, 5, body["totalItems"])

	_, body = e.do(http.MethodGet, "/api/items?search=SOF", "", nil)
	assert.EqualValues(t, 1, body["totalItems"])

	_, body = e.do(http.MethodGet, "/api/items?limit=2", "", nil)
	assert.EqualValues(t, 5, body["totalItems"])
	assert.EqualValues(t, 3, body["totalPages"])
	assert.EqualValues(t, 1, body["currentPage"])
	assert.EqualValues(t, 2, body["count"])
	// newest first
	assert.Equal(t, "Sofa", body["items"].([]any)[0].(map[string]any)["title"])

	_, body = e.do(http.MethodGet, "/api/items?limit=50", "", nil)
	assert.EqualValues(t, 1, body["totalPages"])
	assert.EqualValues(t, 5, body["count"])

	code, body = e.do(http.MethodGet, "/api/items?page=4&limit=2", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 5, body["totalItems"])
	assert.EqualValues(t, 4, body["currentPage"])
	assert.Empty(t, body["items"])

	code, body = e.do(http.MethodGet, "/api/items?page=100000000000000000&limit=100", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 5, body["totalItems"])
	assert.EqualValues(t, 100000000000000000, body["currentPage"])
	assert.Empty(t, body["items"])

	_, body = e.do(http.MethodGet, "/api/items", "", nil)
	assert.EqualValues(t, 1, body["totalPages"])

	code, body = e.do(http.MethodGet, "/api/items?minPrice=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestListNearLocation(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user("Ann", false)

	e.item(u.ID, "Berlin", "Other", 1)
	far := &model.Item{
		Title:     "Hamburg",
		Category:  "Other",
		Images:    []string{"x"},
		PriceUnit: "day",
		Condition: "Good",
		OwnerID:   u.ID,
		Location:  model.NewPoint(9.9937, 53.5511),
		Available: true,
	}
	require.NoError(t, e.store.CreateItem(context.Background(), far))

	_, body := e.do(http.MethodGet, "/api/items?lat=52.52&lng=13.405", "", nil)
	assert.EqualValues(t, 1, body["totalItems"])

	_, body = e.do(http.MethodGet, "/api/items?lat=52.52&lng=13.405&distance=300", "", nil)
	assert.EqualValues(t, 2, body["totalItems"])

	// the body wins over the query string
	code, body := e.do(http.MethodGet, "/api/items/get-nearby-items?lat=0&lng=0", "", map[string]any{"lat": 53.55, "lng": 9.99})
	require.Equal(t, http.StatusOK, code, body)
	require.EqualValues(t, 1, body["count"])
	assert.Equal(t, "Hamburg", body["items"].([]any)[0].(map[string]any)["title"])

	code, body = e.do(http.MethodGet, "/api/items/get-nearby-items", "", map[string]any{"lat": "53.55", "lng": "9.99", "distance": "10"})
	require.Equal(t, http.StatusOK, code, body)
	require.EqualValues(t, 1, body["count"])
	assert.Equal(t, "Hamburg", body["items"].([]any)[0].(map[string]any)["title"])

	code, body = e.do(http.MethodGet, "/api/items/get-nearby-items", "", map[string]any{"lat": "north", "lng": "9.99"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please provide valid latitude and longitude", body["message"])

	_, body = e.do(http.MethodGet, "/api/items/get-nearby-items?lat=53.55&lng=9.99&distance=300", "", nil)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Hamburg", items[0].(map[string]any)["title"])

	code, body = e.do(http.MethodGet, "/api/items/get-nearby-items", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please provide latitude and longitude", body["message"])
}

func TestGetItem(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user("Ann", false)
	i := e.item(u.ID, "Drill", "Electronics", 10)

	code, body := e.do(http.MethodGet, "/api/items/get-item/"+i.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Drill", body["item"].(map[string]any)["title"])

	code, body = e.do(http.MethodGet, "/api/items/get-item/123", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid item ID", body["message"])

	code, body = e.do(http.MethodGet, "/api/items/get-item/"+store.NewID(), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Item not found", body["message"])

	code, body = e.do(http.MethodGet, "/api/items/get-items-by-owner/"+u.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
}

func TestUserEndpoints(t *testing.T) {
	e := newEnv(t)
	u, tok := e.user("Ann", false)
	other, _ := e.user("Bob", false)
	_, adminTok := e.user("Root", true)

	code, body := e.do(http.MethodGet, "/api/users/get-user/"+u.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	got := body["user"].(map[string]any)
	assert.Equal(t, "Ann", got["name"])
	assert.NotContains(t, got, "password")
	assert.NotContains(t, got, "PasswordHash")
	assert.NotContains(t, got, "otp")

	code, _ = e.do(http.MethodGet, "/api/users/get-user/garbage", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(http.MethodGet, "/api/users/get-user/"+store.NewID(), "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = e.do(http.MethodGet, "/api/users", tok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied. Admin privileges required.", body["message"])

	code, body = e.do(http.MethodGet, "/api/users", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["count"])

	code, _ = e.do(http.MethodPut, "/api/users/update-user/"+other.ID, tok, map[string]any{"name": "Hacked"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestPrivilegedFieldsNeedAdmin(t *testing.T) {
	e := newEnv(t)
	u, tok := e.user("Ann", false)
	_, adminTok := e.user("Root", true)

	code, body := e.do(http.MethodPut, "/api/users/update-user/"+u.ID, tok, map[string]any{
		"name":            "Annie",
		"isAdmin":         true,
		"isEmailVerified": false,
		"password":        "changed1",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Annie", body["user"].(map[string]any)["name"])

	got, err := e.store.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)
	assert.True(t, got.IsEmailVerified)

	ok, err := e.deps.Argon.Verify("changed1", got.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	code, _ = e.do(http.MethodPut, "/api/users/update-user/"+u.ID, adminTok, map[string]any{"isAdmin": true})
	require.Equal(t, http.StatusOK, code)

	got, err = e.store.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	// the old token still says non-admin, the fresh record wins
	code, _ = e.do(http.MethodGet, "/api/users", tok, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDeleteUserCascades(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user("Ann", false)
	_, adminTok := e.user("Root", true)

	a := e.item(u.ID, "Drill", "Electronics", 10)
	b := e.item(u.ID, "Saw", "Other", 5)

	code, body := e.do(http.MethodDelete, "/api/users/delete-user/"+u.ID, adminTok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 2, body["deletedItems"])

	_, err := e.store.UserByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := e.store.CountByOwner(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ElementsMatch(t, append(a.Images, b.Images...), e.images.deleted)
}

func TestUploadImage(t *testing.T) {
	e := newEnv(t)
	u, tok := e.user("Ann", false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	fw.Write([]byte("not really a png"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/items/upload-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["url"], u.ID)

	code, body := e.do(http.MethodPost, "/api/items/upload-image", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please upload an image", body["message"])
}

func TestNoRouteAndHeartbeat(t *testing.T) {
	e := newEnv(t)

	code, body := e.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found - /api/nope", body["message"])
	assert.NotEmpty(t, body["requestID"])

	code, _ = e.do(http.MethodHead, "/api/heartbeat", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCachedListing(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user("Ann", false)
	e.item(u.ID, "Drill", "Electronics", 10)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	e.router = NewRouter(ctx, e.deps, Options{CacheTTL: time.Minute})

	_, body := e.do(http.MethodGet, "/api/items", "", nil)
	assert.EqualValues(t, 1, body["totalItems"])

	e.item(u.ID, "Saw", "Other", 5)

	_, body = e.do(http.MethodGet, "/api/items", "", nil)
	assert.EqualValues(t, 1, body["totalItems"])

	_, body = e.do(http.MethodGet, "/api/items?page=1", "", nil)
	assert.EqualValues(t, 2, body["totalItems"])
}
