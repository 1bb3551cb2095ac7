package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-api/sender"
)

type NotificationController struct {
	SMS    sender.SMSSender
	Logger *zap.Logger
}

func NewNotificationController(sms sender.SMSSender, logger *zap.Logger) *NotificationController {
	return &NotificationController{SMS: sms, Logger: logger}
}

type sendSMSRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

// SendSMS relays a message through the configured SMS provider.
func (nc *NotificationController) SendSMS(c *gin.Context) {
	var req sendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.PhoneNumber == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number and message are required"})
		return
	}

	if nc.SMS == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SMS service is not configured"})
		return
	}

	result, err := nc.SMS.SendSMS(c.Request.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, sender.ErrInvalidPhoneNumber):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number format"})
		case errors.Is(err, sender.ErrUnverifiedPhoneNumber):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is not verified for this account"})
		default:
			nc.Logger.Error("sms send failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send SMS"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sid":     result.SID,
		"message": "SMS sent successfully",
	})
}
