package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"subscription-checkout/internal/domain"
	checkoutsvc "subscription-checkout/internal/service/checkout"
)

type stubCatalogService struct {
	list         *domain.ProductsList
	err          error
	lastCustomer string
}

func (s *stubCatalogService) Load(_ context.Context, customerID string) (*domain.ProductsList, error) {
	s.lastCustomer = customerID
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(_ context.Context) error {
	return s.err
}

func testCatalog(t *testing.T) *domain.ProductsList {
	t.Helper()
	mk := func(id, m, y string, sups ...*domain.CatalogEntry) *domain.CatalogEntry {
		return &domain.CatalogEntry{UUID: id, Content: domain.EntryContent{
			Name: "Item " + id, MonthlyPrice: m, AnnuallyPrice: y,
			StripeMonthlyPriceID: "m_" + id, StripeAnnuallyPriceID: "y_" + id,
			Supplements: sups,
		}}
	}
	list, err := domain.FromEntries([]*domain.CatalogEntry{
		mk("plan-a", "10.00", "100.00", mk("sup-a", "2.00", "20.00")),
		mk("plan-b", "25.50", "250.00"),
	}, nil)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return list
}

func newTestRouter(t *testing.T, catalog *stubCatalogService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(zap.NewNop(), stubPinger{}, Deps{
		CatalogSvc:  catalog,
		CheckoutSvc: checkoutsvc.New(catalog, nil, 0),
	}, nil)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type sessionResponse struct {
	ID                        string   `json:"id"`
	CustomerID                string   `json:"customerId"`
	Items                     []string `json:"items"`
	TotalPerMonth             string   `json:"totalPerMonth"`
	TotalPerAnnum             string   `json:"totalPerAnnum"`
	OperatingPaymentFrequency *string  `json:"operatingPaymentFrequency"`
	Catalog                   []struct {
		UUID        string `json:"uuid"`
		AddedToCart bool   `json:"addedToCart"`
		Supplements []struct {
			UUID        string `json:"uuid"`
			AddedToCart bool   `json:"addedToCart"`
		} `json:"supplements"`
	} `json:"catalog"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(zap.NewNop(), nil, Deps{}, nil); err == nil {
		t.Fatalf("expected error for missing services")
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, &stubCatalogService{list: testCatalog(t)})

	if rec := do(router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from readyz, got %d", rec.Code)
	}
}

func TestReady_DBDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/readyz", readyHandler(stubPinger{err: errors.New("down")}))
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	router = gin.New()
	router.GET("/readyz", readyHandler(nil))
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}
}

func TestGetCatalog(t *testing.T) {
	catalog := &stubCatalogService{list: testCatalog(t)}
	router := newTestRouter(t, catalog)

	rec := do(router, http.MethodGet, "/catalog?customerId=cust-9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if catalog.lastCustomer != "cust-9" {
		t.Fatalf("expected customer to be forwarded, got %q", catalog.lastCustomer)
	}
	var resp struct {
		Products []struct {
			UUID      string `json:"uuid"`
			PriceInfo struct {
				Monthly struct {
					Price string `json:"price"`
				} `json:"monthly"`
			} `json:"priceInfo"`
			Supplements []struct {
				UUID string `json:"uuid"`
			} `json:"supplements"`
		} `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Products) != 2 || resp.Products[0].UUID != "plan-a" || resp.Products[0].PriceInfo.Monthly.Price != "10" {
		t.Fatalf("unexpected catalog %+v", resp.Products)
	}
	if len(resp.Products[0].Supplements) != 1 || resp.Products[0].Supplements[0].UUID != "sup-a" {
		t.Fatalf("expected nested supplement, got %+v", resp.Products[0].Supplements)
	}
}

func TestGetCatalog_LoadError(t *testing.T) {
	router := newTestRouter(t, &stubCatalogService{err: errors.New("boom")})
	if rec := do(router, http.MethodGet, "/catalog", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCheckoutFlow(t *testing.T) {
	router := newTestRouter(t, &stubCatalogService{list: testCatalog(t)})

	rec := do(router, http.MethodPost, "/checkout/sessions", `{"customerId":"cust-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	sess := decodeSession(t, rec)
	if sess.ID == "" || sess.CustomerID != "cust-1" || len(sess.Items) != 0 || sess.TotalPerMonth != "0" {
		t.Fatalf("unexpected new session %+v", sess)
	}

	base := "/checkout/sessions/" + sess.ID
	do(router, http.MethodPost, base+"/items/plan-a/toggle", "")
	do(router, http.MethodPost, base+"/items/sup-a/toggle", "")
	rec = do(router, http.MethodPost, base+"/items/plan-b/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	sess = decodeSession(t, rec)
	if strings.Join(sess.Items, ",") != "plan-a,sup-a,plan-b" {
		t.Fatalf("unexpected items %v", sess.Items)
	}
	if sess.TotalPerMonth != "37.5" || sess.TotalPerAnnum != "370" {
		t.Fatalf("unexpected totals %s / %s", sess.TotalPerMonth, sess.TotalPerAnnum)
	}
	if !sess.Catalog[0].AddedToCart || !sess.Catalog[0].Supplements[0].AddedToCart {
		t.Fatalf("expected plan-a and sup-a flagged as added: %+v", sess.Catalog)
	}

	rec = do(router, http.MethodPost, base+"/items/plan-a/toggle", "")
	sess = decodeSession(t, rec)
	if strings.Join(sess.Items, ",") != "plan-b" {
		t.Fatalf("expected cascade removal, got %v", sess.Items)
	}

	rec = do(router, http.MethodPost, base+"/items/nope/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected unknown item toggle to be a silent no-op, got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, base, "")
	if rec.Code != http.StatusOK || strings.Join(decodeSession(t, rec).Items, ",") != "plan-b" {
		t.Fatalf("unexpected session read %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(router, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestStartSession_EmptyBody(t *testing.T) {
	router := newTestRouter(t, &stubCatalogService{list: testCatalog(t)})
	rec := do(router, http.MethodPost, "/checkout/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStartSession_Validation(t *testing.T) {
	router := newTestRouter(t, &stubCatalogService{list: testCatalog(t)})

	rec := do(router, http.MethodPost, "/checkout/sessions", `{"customerId":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}

	long := strings.Repeat("x", 129)
	rec = do(router, http.MethodPost, "/checkout/sessions", `{"customerId":"`+long+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized customer id, got %d", rec.Code)
	}
}

func TestToggle_UnknownSession(t *testing.T) {
	router := newTestRouter(t, &stubCatalogService{list: testCatalog(t)})
	rec := do(router, http.MethodPost, "/checkout/sessions/missing/items/plan-a/toggle", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
