package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	service "github.com/mamadbah2/stockbook/internal/service/whatsapp"
)

const whatsappObject = "whatsapp_business_account"

// ChatHandler exposes the shop assistant over the WhatsApp Cloud API webhook.
type ChatHandler struct {
	chat   service.MessagingService
	logger *zap.Logger
}

// NewChatHandler builds the webhook adapter around the messaging service.
func NewChatHandler(chat service.MessagingService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{chat: chat, logger: logger}
}

type subscription struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

// Subscribe echoes Meta's challenge once the verify token matches.
func (h *ChatHandler) Subscribe(c *gin.Context) {
	var sub subscription
	_ = c.ShouldBindQuery(&sub)

	challenge, err := h.chat.VerifyWebhookToken(sub.Mode, sub.Token, sub.Challenge)
	if err != nil {
		h.logger.Warn("webhook subscription refused", zap.String("mode", sub.Mode), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Commands runs every text message in the delivery as a shop command (stock,
// low, summary, buy, sell, help) and answers the sender on WhatsApp. Meta
// retries anything but a 2xx, so a command that fails is logged and the
// delivery is still acknowledged; the sender already got the error as a reply.
func (h *ChatHandler) Commands(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Object != "" && payload.Object != whatsappObject {
		h.logger.Debug("ignoring webhook for another product", zap.String("object", payload.Object))
		c.Status(http.StatusOK)
		return
	}

	commands := textMessages(payload)
	if err := h.chat.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("shop commands failed", zap.Int("commands", commands), zap.Error(err))
	} else if commands > 0 {
		h.logger.Info("shop commands answered", zap.Int("commands", commands))
	}
	c.Status(http.StatusOK)
}

// Send pushes a free-form message, for example a restock request to a supplier.
func (h *ChatHandler) Send(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to and message are required"})
		return
	}

	if err := h.chat.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("outbound message failed", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"to": req.To})
}

func textMessages(payload models.WebhookPayload) int {
	n := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Text != nil {
					n++
				}
			}
		}
	}
	return n
}
