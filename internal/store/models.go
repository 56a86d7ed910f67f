package store

import "time"

type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Workspace struct {
	ID          string
	Name        string
	Slug        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Document struct {
	ID           string
	WorkspaceID  string
	Title        string
	Description  string
	DocumentType string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentVersion rows are created pending by upload/init and flipped to
// completed by upload/complete. Listings only ever surface completed rows;
// an interrupted handshake leaves its pending row behind where it can be
// observed and cleaned up.
const (
	VersionPending   = "pending"
	VersionCompleted = "completed"
)

type DocumentVersion struct {
	ID          string
	DocumentID  string
	FileName    string
	FileType    string
	MimeType    string
	SizeInBytes int64
	ObjectKey   string
	Checksum    string
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type ChatRoom struct {
	ID          string
	WorkspaceID string
	Name        string
	CreatedAt   time.Time
}

type Insight struct {
	ID          string
	WorkspaceID string
	Title       string
	CreatedAt   time.Time
}
