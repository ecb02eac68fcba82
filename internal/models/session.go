package models

// SessionStatus represents the status of a conversion session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusConverting SessionStatus = "converting"
	SessionStatusComplete   SessionStatus = "complete"
	SessionStatusError      SessionStatus = "error"
)

// ConversionSession represents the conversion of one uploaded sheet.
type ConversionSession struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId"`
	FileName         string        `json:"fileName"`
	Status           SessionStatus `json:"status"`
	ParserName       string        `json:"parserName,omitempty"`
	RowCount         int           `json:"rowCount"`
	SkippedRows      int           `json:"skippedRows"`
	PageCount        int           `json:"pageCount"`
	ElementCount     int           `json:"elementCount"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	StartTime        int64         `json:"startTime,omitempty"` // Unix ms
	EndTime          int64         `json:"endTime,omitempty"`   // Unix ms
	Archived         bool          `json:"archived"`
	Error            string        `json:"error,omitempty"`
	Errors           []ParseError  `json:"errors,omitempty"`
}

// ParseError represents a row-level problem found while reading a sheet.
type ParseError struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// NewConversionSession creates a new ConversionSession in pending status.
func NewConversionSession(id, fileID, fileName string) *ConversionSession {
	return &ConversionSession{
		ID:       id,
		FileID:   fileID,
		FileName: fileName,
		Status:   SessionStatusPending,
		Errors:   make([]ParseError, 0),
	}
}
