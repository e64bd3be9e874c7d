// Package model defines database models
package model

import "time"

// Asset is a record owning one "image" attachment. The Image* columns are
// the attachment's persisted fields; everything else is regular model
// state.
type Asset struct {
	ID    uint   `gorm:"primaryKey;autoIncrement;index" json:"id"`
	Title string `json:"title"`

	ImageFileName    *string    `json:"image_file_name,omitempty"`
	ImageFileSize    *int64     `json:"image_file_size,omitempty"`
	ImageContentType *string    `json:"image_content_type,omitempty"`
	ImageUpdatedAt   *time.Time `json:"-"`

	// Deferred processing bookkeeping, only written when queueing is
	// enabled.
	ImageQueueState int        `json:"image_queue_state"`
	ImageQueuedFile *string    `json:"-"`
	ImageQueuedAt   *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImageStyles is the variant set rendered for every asset image.
func ImageStyles() map[string]string {
	return map[string]string{
		"thumb":  "100x100#",
		"medium": "400x400",
		"large":  "1024x1024?",
	}
}
