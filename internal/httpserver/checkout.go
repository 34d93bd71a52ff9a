package httpserver

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"subscription-checkout/internal/domain"
	checkoutsvc "subscription-checkout/internal/service/checkout"
)

type handlers struct {
	catalog  catalogService
	checkout checkoutService
	logger   *zap.Logger
}

type startSessionRequest struct {
	CustomerID string `json:"customerId" binding:"omitempty,max=128"`
}

type priceView struct {
	Price                   decimal.Decimal `json:"price"`
	PaymentProcessorPriceID string          `json:"paymentProcessorPriceId"`
}

type productView struct {
	UUID                  string                `json:"uuid"`
	Name                  string                `json:"name"`
	Type                  domain.ProductKind    `json:"type"`
	Content               domain.ProductContent `json:"content"`
	Monthly               priceView             `json:"monthly"`
	Annually              priceView             `json:"annually"`
	Subscribed            bool                  `json:"subscribed"`
	SubscriptionFrequency *domain.Interval      `json:"subscriptionFrequency,omitempty"`
	AddedToCart           bool                  `json:"addedToCart"`
	Supplements           []productView         `json:"supplements,omitempty"`
}

type sessionView struct {
	ID                        string           `json:"id"`
	CustomerID                string           `json:"customerId,omitempty"`
	CreatedAt                 time.Time        `json:"createdAt"`
	Items                     []string         `json:"items"`
	TotalPerMonth             decimal.Decimal  `json:"totalPerMonth"`
	TotalPerAnnum             decimal.Decimal  `json:"totalPerAnnum"`
	OperatingPaymentFrequency *domain.Interval `json:"operatingPaymentFrequency,omitempty"`
	Catalog                   []productView    `json:"catalog"`
}

func toProductView(p *domain.Product, added func(string) bool) productView {
	v := productView{
		UUID:                  p.UUID(),
		Name:                  p.Name,
		Type:                  p.Type,
		Content:               p.Content,
		Monthly:               priceView(p.PriceInfo.Monthly),
		Annually:              priceView(p.PriceInfo.Annually),
		Subscribed:            p.Subscribed,
		SubscriptionFrequency: p.SubscriptionFrequency,
		AddedToCart:           added(p.UUID()),
	}
	for _, s := range p.Supplements {
		v.Supplements = append(v.Supplements, toProductView(s, added))
	}
	return v
}

func toProductViews(products []*domain.Product, added func(string) bool) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p, added))
	}
	return out
}

func toSessionView(s *checkoutsvc.Session) sessionView {
	snap := s.Cart.Snapshot()
	return sessionView{
		ID:                        s.ID,
		CustomerID:                s.CustomerID,
		CreatedAt:                 s.CreatedAt,
		Items:                     snap.Items,
		TotalPerMonth:             snap.TotalPerMonth,
		TotalPerAnnum:             snap.TotalPerAnnum,
		OperatingPaymentFrequency: snap.OperatingPaymentFrequency,
		Catalog:                   toProductViews(s.Catalog.Products, snap.IsAddedToCart),
	}
}

func (h *handlers) getCatalog(c *gin.Context) {
	list, err := h.catalog.Load(c.Request.Context(), c.Query("customerId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list.Products})
}

func (h *handlers) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.checkout.Start(c.Request.Context(), req.CustomerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionView(sess))
}

func (h *handlers) getSession(c *gin.Context) {
	sess, err := h.checkout.Get(c.Param("sessionID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionView(sess))
}

func (h *handlers) toggleItem(c *gin.Context) {
	sess, err := h.checkout.Toggle(c.Param("sessionID"), c.Param("itemUUID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionView(sess))
}

func (h *handlers) endSession(c *gin.Context) {
	if err := h.checkout.End(c.Param("sessionID")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) fail(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
