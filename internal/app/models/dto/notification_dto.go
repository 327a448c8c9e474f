package dto

import "github.com/yigit/acadtrack/internal/app/models"

// NotificationListQuery binds the query string of GET /notifications
type NotificationListQuery struct {
	Limit      int  `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int  `form:"offset" binding:"omitempty,min=0"`
	UnreadOnly bool `form:"unreadOnly"`
}

// NotificationListResponse is a page of notifications
type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Pagination    PaginationInfo         `json:"pagination"`
}

// UnreadCountResponse carries the number of unread notifications
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse reports how many notifications were updated
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
