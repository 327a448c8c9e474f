package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/app/repositories"
	"github.com/yigit/acadtrack/internal/middleware"
	"github.com/yigit/acadtrack/internal/pkg/helpers"
	"github.com/yigit/acadtrack/internal/pkg/websocket"
)

// StreamServer attaches an upgraded connection to a recipient
type StreamServer interface {
	Serve(w http.ResponseWriter, r *http.Request, recipient websocket.Recipient) error
}

// NotificationController serves the caller's notifications
type NotificationController struct {
	notificationService NotificationService
	stream              StreamServer
	logger              zerolog.Logger
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService NotificationService, stream StreamServer, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		stream:              stream,
		logger:              logger,
	}
}

// List returns a page of the caller's notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Param unreadOnly query bool false "Only unread"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationListResponse}
// @Router /notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var query dto.NotificationListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}
	limit, offset := helpers.NormalizeLimitOffset(query.Limit, query.Offset)

	items, total, err := c.notificationService.ListFor(ctx.Request.Context(), p, repositories.NotificationListOptions{
		Limit:      limit,
		Offset:     offset,
		UnreadOnly: query.UnreadOnly,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NotificationListResponse{
		Notifications: items,
		Pagination:    helpers.NewPaginationInfo(total, limit, offset),
	}, ""))
}

// UnreadCount returns the number of unread notifications
// @Router /notifications/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	count, err := c.notificationService.UnreadCountFor(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.UnreadCountResponse{Count: count}, ""))
}

// MarkRead marks one notification as read
// @Router /notifications/{id}/read [patch]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.notificationService.MarkReadFor(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Notification marked as read"))
}

// MarkAllRead marks every notification of the caller as read
// @Router /notifications/read-all [patch]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	updated, err := c.notificationService.MarkAllReadFor(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MarkAllReadResponse{Updated: updated}, ""))
}

// Delete removes one notification
// @Router /notifications/{id} [delete]
func (c *NotificationController) Delete(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.notificationService.DeleteFor(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Notification deleted"))
}

// Stream upgrades to a websocket that receives notification.created events
// @Router /notifications/ws [get]
func (c *NotificationController) Stream(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	recipient, err := c.notificationService.RecipientFor(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	// a failed upgrade has already written its response
	if err := c.stream.Serve(ctx.Writer, ctx.Request, recipient); err != nil {
		c.logger.Warn().Err(err).Str("recipient", recipient.String()).Msg("Notification stream not opened")
	}
}
