package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"axora/api/internal/auth"
	"axora/api/internal/authpw"
	"axora/api/internal/config"
	"axora/api/internal/objstore"
	"axora/api/internal/store"
	"axora/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Username     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	CreateUser(context.Context, store.User) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)

	InsertWorkspace(context.Context, store.Workspace) (store.Workspace, error)
	ListWorkspaces(context.Context) ([]store.Workspace, error)
	GetWorkspace(context.Context, string) (store.Workspace, error)
	DeleteWorkspace(context.Context, string) error

	InsertDocument(context.Context, store.Document) (store.Document, error)
	GetDocument(context.Context, string) (store.Document, error)
	ListWorkspaceDocuments(context.Context, string) ([]store.Document, error)

	InsertDocumentVersion(context.Context, store.DocumentVersion) (store.DocumentVersion, error)
	GetDocumentVersion(context.Context, string, string) (store.DocumentVersion, error)
	CompleteDocumentVersion(context.Context, string, string) error
	ListCompletedVersions(context.Context, string) ([]store.DocumentVersion, error)

	InsertChatRoom(context.Context, store.ChatRoom) error
	ListChatRooms(context.Context, string) ([]store.ChatRoom, error)
	InsertInsight(context.Context, store.Insight) error
	ListInsights(context.Context, string) ([]store.Insight, error)

	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)

	Ping(ctx context.Context) error
}

// sessionStore holds refresh sessions; Redis-backed in production, the
// Postgres table otherwise.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// blobStore is the presigned-upload surface of the object storage layer.
type blobStore interface {
	PresignPut(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
	StatObject(ctx context.Context, objectKey string) (objstore.ObjectInfo, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	blobs    blobStore
	authpw   *authpw.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, blobs *objstore.Store) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		blobs:    blobs,
		authpw:   authpw.NewService(dataStore),
	}
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, blobs *objstore.Store) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		blobs:    blobs,
		authpw:   authpw.NewService(dataStore),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ── Auth ──

func (s *Service) SignUp(ctx context.Context, username, email, password string) (Session, error) {
	user, err := s.authpw.SignUp(ctx, authpw.SignUpRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, authpw.SignInRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates the refresh token: the presented token is revoked before a
// new pair is issued, so a replayed token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	if user.Username == "" {
		// Redis keeps only the user ID; fill in the rest.
		if full, err := s.store.GetUserByID(ctx, user.ID); err == nil {
			user = full
		}
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	jti := util.NewID("")
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, user.Username, jti, expiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := newOpaqueToken()
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	refreshExpiry := time.Now().Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, refreshExpiry); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout is best-effort on the server side: revocation failures are ignored
// because the client clears its cookies regardless.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// ── Workspaces ──

func (s *Service) CreateWorkspace(ctx context.Context, name, description, userID string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	workspace, err := s.store.InsertWorkspace(ctx, store.Workspace{
		ID:          util.NewID("ws"),
		Name:        name,
		Slug:        util.Slugify(name),
		Description: strings.TrimSpace(description),
		CreatedBy:   userID,
	})
	if err != nil {
		return nil, err
	}

	// Every workspace starts with a general chat room; the front end lists
	// rooms read-only.
	_ = s.store.InsertChatRoom(ctx, store.ChatRoom{
		ID:          util.NewID("room"),
		WorkspaceID: workspace.ID,
		Name:        "General",
	})

	return workspacePayload(workspace), nil
}

func (s *Service) ListWorkspaces(ctx context.Context) ([]map[string]any, error) {
	items, err := s.store.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, workspace := range items {
		payload = append(payload, workspacePayload(workspace))
	}
	return payload, nil
}

func (s *Service) GetWorkspaceDetails(ctx context.Context, workspaceID string) (map[string]any, error) {
	workspace, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return workspacePayload(workspace), nil
}

// DeleteWorkspace removes the workspace row; documents, chat rooms, and
// insights go with it via cascade.
func (s *Service) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	if _, err := s.store.GetWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	return s.store.DeleteWorkspace(ctx, workspaceID)
}

func (s *Service) ListWorkspaceDocuments(ctx context.Context, workspaceID string) ([]map[string]any, error) {
	items, err := s.store.ListWorkspaceDocuments(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, document := range items {
		payload = append(payload, map[string]any{
			"id":   document.ID,
			"name": document.Title,
		})
	}
	return payload, nil
}

func (s *Service) ListChatRooms(ctx context.Context, workspaceID string) ([]map[string]any, error) {
	items, err := s.store.ListChatRooms(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, room := range items {
		payload = append(payload, map[string]any{
			"id":   room.ID,
			"name": room.Name,
		})
	}
	return payload, nil
}

func (s *Service) ListInsights(ctx context.Context, workspaceID string) ([]map[string]any, error) {
	items, err := s.store.ListInsights(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, insight := range items {
		payload = append(payload, map[string]any{
			"id":    insight.ID,
			"title": insight.Title,
		})
	}
	return payload, nil
}

// ── Documents / upload handshake ──

func (s *Service) CreateDocument(ctx context.Context, workspaceID, title, documentType, description, userID string) (map[string]any, error) {
	if strings.TrimSpace(workspaceID) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "workspaceId is required", nil)
	}
	if strings.TrimSpace(title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if strings.TrimSpace(documentType) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "documentType is required", nil)
	}

	if _, err := s.store.GetWorkspace(ctx, workspaceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "workspaceId is not a valid workspace", nil)
		}
		return nil, err
	}

	document, err := s.store.InsertDocument(ctx, store.Document{
		ID:           util.NewID("doc"),
		WorkspaceID:  workspaceID,
		Title:        strings.TrimSpace(title),
		Description:  strings.TrimSpace(description),
		DocumentType: documentType,
		CreatedBy:    userID,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":    document.ID,
		"title": document.Title,
	}, nil
}

type InitUploadInput struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	MimeType    string `json:"mimeType"`
	SizeInBytes int64  `json:"sizeInBytes"`
}

// InitUpload records a pending version and hands back a presigned PUT URL.
// The version stays pending until CompleteUpload confirms the bytes landed.
func (s *Service) InitUpload(ctx context.Context, documentID string, input InitUploadInput) (map[string]any, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "fileName is required", nil)
	}
	if input.SizeInBytes <= 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "sizeInBytes must be positive", nil)
	}
	mimeType := input.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	document, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	versionID := uuid.NewString()
	objectKey := objstore.BuildKey(document.WorkspaceID, document.ID, versionID, input.FileName)

	uploadURL, err := s.blobs.PresignPut(ctx, objectKey, s.cfg.UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	if _, err := s.store.InsertDocumentVersion(ctx, store.DocumentVersion{
		ID:          versionID,
		DocumentID:  document.ID,
		FileName:    input.FileName,
		FileType:    input.FileType,
		MimeType:    mimeType,
		SizeInBytes: input.SizeInBytes,
		ObjectKey:   objectKey,
		Status:      store.VersionPending,
	}); err != nil {
		return nil, err
	}

	return map[string]any{
		"documentId":       document.ID,
		"versionId":        versionID,
		"objectKey":        objectKey,
		"uploadUrl":        uploadURL,
		"expiresInMinutes": int(s.cfg.UploadURLTTL.Minutes()),
	}, nil
}

// CompleteUpload flips a pending version to completed after confirming the
// object actually exists in storage with the announced size. Only then does
// the version become visible in listings.
func (s *Service) CompleteUpload(ctx context.Context, documentID, versionID, objectKey, checksum string) error {
	version, err := s.store.GetDocumentVersion(ctx, documentID, versionID)
	if err != nil {
		return err
	}
	if version.ObjectKey != objectKey {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "objectKey does not match this version", nil)
	}
	if version.Status != store.VersionPending {
		return domainError(http.StatusConflict, "VERSION_NOT_PENDING", "version was already completed", nil)
	}

	info, err := s.blobs.StatObject(ctx, objectKey)
	if err != nil {
		return domainError(http.StatusConflict, "UPLOAD_INCOMPLETE", "uploaded object not found in storage", nil)
	}
	if info.SizeInBytes != version.SizeInBytes {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("object size %d does not match announced size %d", info.SizeInBytes, version.SizeInBytes), nil)
	}

	if err := s.store.CompleteDocumentVersion(ctx, versionID, checksum); err != nil {
		if errors.Is(err, store.ErrVersionNotPending) {
			return domainError(http.StatusConflict, "VERSION_NOT_PENDING", "version was already completed", nil)
		}
		return err
	}
	return nil
}

func (s *Service) GetDocumentSummary(ctx context.Context, documentID string) (map[string]any, error) {
	document, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	versions, err := s.store.ListCompletedVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}

	versionPayload := make([]map[string]any, 0, len(versions))
	for _, version := range versions {
		versionPayload = append(versionPayload, map[string]any{
			"versionId":   version.ID,
			"objectKey":   version.ObjectKey,
			"fileName":    version.FileName,
			"mimeType":    version.MimeType,
			"sizeInBytes": version.SizeInBytes,
			"checksum":    version.Checksum,
		})
	}

	return map[string]any{
		"id":           document.ID,
		"workspaceId":  document.WorkspaceID,
		"title":        document.Title,
		"description":  document.Description,
		"documentType": document.DocumentType,
		"versions":     versionPayload,
	}, nil
}

func workspacePayload(workspace store.Workspace) map[string]any {
	return map[string]any{
		"id":          workspace.ID,
		"name":        workspace.Name,
		"slug":        workspace.Slug,
		"description": workspace.Description,
		"createdAt":   workspace.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":   workspace.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
