package models

import "time"

// ConversionRecord is the archived summary of one conversion.
type ConversionRecord struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	CreatedAt    time.Time `json:"createdAt"`
	PageCount    int       `json:"pageCount"`
	ElementCount int       `json:"elementCount"`
	SkippedRows  int       `json:"skippedRows"`
}

// ArchivedElement is an element stored with its page and context position.
type ArchivedElement struct {
	PageIndex      int    `json:"pageIndex"`
	BackgroundName string `json:"backgroundName"`
	ContextKey     string `json:"contextKey"`
	Seq            int    `json:"seq"`
	Element
}
