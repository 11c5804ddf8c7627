package entity

import "time"

// GeneratedDocument records a stored artifact of a quote (PDF or DOCX).
type GeneratedDocument struct {
	ID            string    `json:"id"`
	QuoteID       string    `json:"quoteId"`
	Kind          string    `json:"kind"`
	LayoutID      string    `json:"layoutId,omitempty"`
	FilePath      string    `json:"filePath"`
	ThumbnailPath string    `json:"thumbnailPath,omitempty"`
	SizeBytes     int64     `json:"sizeBytes"`
	CreatedAt     time.Time `json:"createdAt"`
}
