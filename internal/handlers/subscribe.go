package handlers

import (
	"net/http"

	"dailydog/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// SubscriptionHandler serves the newsletter API.
type SubscriptionHandler struct {
	subs *services.SubscriptionService
	log  *zap.Logger
}

func NewSubscriptionHandler(subs *services.SubscriptionService, log *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, log: log}
}

// Subscribe handles POST /api/subscribe.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email address is required"})
		return
	}

	// Consent details are stored with the subscription; the welcome
	// email goes out asynchronously
	res, err := h.subs.Subscribe(c.Request.Context(), req.Email, services.Consent{
		IPAddress: clientIP(c),
		UserAgent: userAgent(c),
		Source:    req.Source,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to process subscription. Please try again.")
		return
	}

	// a returning subscriber gets a different greeting
	message := "Successfully subscribed to our newsletter!"
	if res.Reactivated {
		message = "Welcome back! Your subscription has been reactivated."
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Unsubscribe handles DELETE /api/subscribe.
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email address is required"})
		return
	}

	// unknown emails answer 404, repeated requests 409
	if _, err := h.subs.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err, "Failed to process unsubscribe request. Please try again.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully unsubscribed from our newsletter."})
}
