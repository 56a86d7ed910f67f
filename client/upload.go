package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
)

type DocumentService struct {
	client *Client
}

type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type DocumentSummary struct {
	ID           string            `json:"id"`
	WorkspaceID  string            `json:"workspaceId"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	DocumentType string            `json:"documentType"`
	Versions     []DocumentVersion `json:"versions"`
}

type DocumentVersion struct {
	VersionID   string `json:"versionId"`
	ObjectKey   string `json:"objectKey"`
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
	SizeInBytes int64  `json:"sizeInBytes"`
	Checksum    string `json:"checksum"`
}

func (s *DocumentService) Create(ctx context.Context, workspaceID, title, documentType, description string) (Document, error) {
	var document Document
	err := s.client.do(ctx, "POST", "/api/v1/documents", map[string]string{
		"workspaceId":  workspaceID,
		"title":        title,
		"documentType": documentType,
		"description":  description,
	}, &document, false)
	return document, err
}

func (s *DocumentService) Get(ctx context.Context, documentID string) (DocumentSummary, error) {
	var summary DocumentSummary
	err := s.client.do(ctx, "GET", "/api/v1/documents/"+url.PathEscape(documentID), nil, &summary, false)
	return summary, err
}

// UploadState tracks the handshake. An upload only ever moves forward:
// Created -> Initialized -> Uploaded -> Completed. A failed storage PUT
// leaves the upload in Initialized, so Complete cannot run after a transport
// failure.
type UploadState string

const (
	UploadCreated     UploadState = "CREATED"
	UploadInitialized UploadState = "INITIALIZED"
	UploadUploaded    UploadState = "UPLOADED"
	UploadCompleted   UploadState = "COMPLETED"
)

// Upload drives the four-step presigned handshake for one file against one
// document. Not safe for concurrent use; concurrent uploads on the same
// document get independent Upload values (and independent versions).
type Upload struct {
	client *Client

	documentID string
	fileName   string
	fileType   string
	mimeType   string
	data       []byte

	state     UploadState
	versionID string
	objectKey string
	uploadURL string
}

// NewUpload starts a handshake for data already read into memory. The
// document must already exist (step 1 of the flow).
func (s *DocumentService) NewUpload(documentID, fileName, fileType, mimeType string, data []byte) *Upload {
	return &Upload{
		client:     s.client,
		documentID: documentID,
		fileName:   fileName,
		fileType:   fileType,
		mimeType:   mimeType,
		data:       data,
		state:      UploadCreated,
	}
}

func (u *Upload) State() UploadState { return u.state }
func (u *Upload) VersionID() string  { return u.versionID }
func (u *Upload) ObjectKey() string  { return u.objectKey }

// Init registers a pending version with the API and receives the presigned
// PUT URL.
func (u *Upload) Init(ctx context.Context) error {
	if u.state != UploadCreated {
		return fmt.Errorf("upload init: state is %s, want %s", u.state, UploadCreated)
	}

	var payload struct {
		DocumentID string `json:"documentId"`
		VersionID  string `json:"versionId"`
		ObjectKey  string `json:"objectKey"`
		UploadURL  string `json:"uploadUrl"`
	}
	err := u.client.do(ctx, "POST", "/api/v1/documents/"+url.PathEscape(u.documentID)+"/upload/init", map[string]any{
		"fileName":    u.fileName,
		"fileType":    u.fileType,
		"mimeType":    u.mimeType,
		"sizeInBytes": len(u.data),
	}, &payload, false)
	if err != nil {
		return err
	}

	u.versionID = payload.VersionID
	u.objectKey = payload.ObjectKey
	u.uploadURL = payload.UploadURL
	u.state = UploadInitialized
	return nil
}

// Put sends the bytes straight to storage with the presigned URL. The API is
// not involved in this step. Any failure, transport or non-2xx, surfaces as
// UploadTransportFailure and the state stays Initialized.
func (u *Upload) Put(ctx context.Context) error {
	if u.state != UploadInitialized {
		return fmt.Errorf("upload put: state is %s, want %s", u.state, UploadInitialized)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.uploadURL, bytes.NewReader(u.data))
	if err != nil {
		return apiError(KindUploadTransportFailure, 0, err.Error())
	}
	req.Header.Set("Content-Type", u.mimeType)
	req.ContentLength = int64(len(u.data))

	resp, err := u.client.http.Do(req)
	if err != nil {
		return apiError(KindUploadTransportFailure, 0, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(KindUploadTransportFailure, resp.StatusCode, "storage rejected the upload")
	}

	u.state = UploadUploaded
	return nil
}

// Complete confirms the upload with the API, sending the client-side SHA-256
// of the bytes. Only runs after a successful Put.
func (u *Upload) Complete(ctx context.Context) error {
	if u.state != UploadUploaded {
		return fmt.Errorf("upload complete: state is %s, want %s", u.state, UploadUploaded)
	}

	sum := sha256.Sum256(u.data)
	err := u.client.do(ctx, "POST", "/api/v1/documents/"+url.PathEscape(u.documentID)+"/upload/complete", map[string]string{
		"versionId": u.versionID,
		"objectKey": u.objectKey,
		"checksum":  hex.EncodeToString(sum[:]),
	}, nil, false)
	if err != nil {
		return err
	}

	u.state = UploadCompleted
	return nil
}

// Run drives the whole handshake in order.
func (u *Upload) Run(ctx context.Context) error {
	if err := u.Init(ctx); err != nil {
		return err
	}
	if err := u.Put(ctx); err != nil {
		return err
	}
	return u.Complete(ctx)
}
