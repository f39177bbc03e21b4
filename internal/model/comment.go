package model

import "time"

// Comment is a note left by Author on the image ImageID.
//
// Content is stored HTML-escaped. Date is whatever timestamp string the
// client sent along (optional); ordering always uses CreatedAt.
type Comment struct {
	ID        string    `json:"_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Date      string    `json:"date,omitempty"`
	ImageID   string    `json:"imageId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
