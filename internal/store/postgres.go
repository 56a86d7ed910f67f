package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrVersionNotPending = errors.New("document version is not pending")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT id, username, email, password_hash, deactivated_at, created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const query = `
		SELECT id, username, email, password_hash, deactivated_at, created_at, updated_at
		FROM users WHERE id = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ── Workspaces ──

func (s *PostgresStore) InsertWorkspace(ctx context.Context, workspace Workspace) (Workspace, error) {
	const query = `
		INSERT INTO workspaces (id, name, slug, description, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		workspace.ID, workspace.Name, workspace.Slug, workspace.Description, workspace.CreatedBy,
	).Scan(&workspace.CreatedAt, &workspace.UpdatedAt)
	if err != nil {
		return Workspace{}, fmt.Errorf("insert workspace: %w", err)
	}
	return workspace, nil
}

func (s *PostgresStore) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	const query = `
		SELECT id, name, slug, description, created_by, created_at, updated_at
		FROM workspaces ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var items []Workspace
	for rows.Next() {
		var w Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.Slug, &w.Description, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetWorkspace(ctx context.Context, workspaceID string) (Workspace, error) {
	const query = `
		SELECT id, name, slug, description, created_by, created_at, updated_at
		FROM workspaces WHERE id = $1
	`
	var w Workspace
	err := s.db.QueryRowContext(ctx, query, workspaceID).Scan(
		&w.ID, &w.Name, &w.Slug, &w.Description, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return Workspace{}, err
	}
	return w, nil
}

func (s *PostgresStore) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, workspaceID); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}

// ── Documents ──

func (s *PostgresStore) InsertDocument(ctx context.Context, document Document) (Document, error) {
	const query = `
		INSERT INTO documents (id, workspace_id, title, description, document_type, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		document.ID, document.WorkspaceID, document.Title, document.Description,
		document.DocumentType, document.CreatedBy,
	).Scan(&document.CreatedAt, &document.UpdatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return document, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	const query = `
		SELECT id, workspace_id, title, description, document_type, created_by, created_at, updated_at
		FROM documents WHERE id = $1
	`
	var d Document
	err := s.db.QueryRowContext(ctx, query, documentID).Scan(
		&d.ID, &d.WorkspaceID, &d.Title, &d.Description, &d.DocumentType,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *PostgresStore) ListWorkspaceDocuments(ctx context.Context, workspaceID string) ([]Document, error) {
	const query = `
		SELECT id, workspace_id, title, description, document_type, created_by, created_at, updated_at
		FROM documents WHERE workspace_id = $1 ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var items []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Title, &d.Description, &d.DocumentType, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// ── Document versions ──

func (s *PostgresStore) InsertDocumentVersion(ctx context.Context, version DocumentVersion) (DocumentVersion, error) {
	const query = `
		INSERT INTO document_versions (id, document_id, file_name, file_type, mime_type, size_in_bytes, object_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		version.ID, version.DocumentID, version.FileName, version.FileType,
		version.MimeType, version.SizeInBytes, version.ObjectKey, version.Status,
	).Scan(&version.CreatedAt)
	if err != nil {
		return DocumentVersion{}, fmt.Errorf("insert document version: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) GetDocumentVersion(ctx context.Context, documentID, versionID string) (DocumentVersion, error) {
	const query = `
		SELECT id, document_id, file_name, file_type, mime_type, size_in_bytes,
		       object_key, COALESCE(checksum, ''), status, created_at, completed_at
		FROM document_versions WHERE document_id = $1 AND id = $2
	`
	var v DocumentVersion
	err := s.db.QueryRowContext(ctx, query, documentID, versionID).Scan(
		&v.ID, &v.DocumentID, &v.FileName, &v.FileType, &v.MimeType, &v.SizeInBytes,
		&v.ObjectKey, &v.Checksum, &v.Status, &v.CreatedAt, &v.CompletedAt,
	)
	if err != nil {
		return DocumentVersion{}, err
	}
	return v, nil
}

// CompleteDocumentVersion flips a pending version to completed. Completing a
// version that is not pending returns ErrVersionNotPending so a replayed
// complete call is surfaced rather than silently absorbed.
func (s *PostgresStore) CompleteDocumentVersion(ctx context.Context, versionID, checksum string) error {
	const query = `
		UPDATE document_versions
		SET status = $2, checksum = NULLIF($3, ''), completed_at = NOW()
		WHERE id = $1 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query, versionID, VersionCompleted, checksum, VersionPending)
	if err != nil {
		return fmt.Errorf("complete document version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete document version: %w", err)
	}
	if affected == 0 {
		return ErrVersionNotPending
	}
	return nil
}

func (s *PostgresStore) ListCompletedVersions(ctx context.Context, documentID string) ([]DocumentVersion, error) {
	const query = `
		SELECT id, document_id, file_name, file_type, mime_type, size_in_bytes,
		       object_key, COALESCE(checksum, ''), status, created_at, completed_at
		FROM document_versions
		WHERE document_id = $1 AND status = $2
		ORDER BY completed_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, documentID, VersionCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed versions: %w", err)
	}
	defer rows.Close()

	var items []DocumentVersion
	for rows.Next() {
		var v DocumentVersion
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.FileName, &v.FileType, &v.MimeType, &v.SizeInBytes, &v.ObjectKey, &v.Checksum, &v.Status, &v.CreatedAt, &v.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// ListStalePendingVersions reports pending versions older than cutoff:
// handshakes that were interrupted between init and complete.
func (s *PostgresStore) ListStalePendingVersions(ctx context.Context, cutoff time.Time) ([]DocumentVersion, error) {
	const query = `
		SELECT id, document_id, file_name, file_type, mime_type, size_in_bytes,
		       object_key, COALESCE(checksum, ''), status, created_at, completed_at
		FROM document_versions
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, VersionPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale pending versions: %w", err)
	}
	defer rows.Close()

	var items []DocumentVersion
	for rows.Next() {
		var v DocumentVersion
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.FileName, &v.FileType, &v.MimeType, &v.SizeInBytes, &v.ObjectKey, &v.Checksum, &v.Status, &v.CreatedAt, &v.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// ── Chat rooms / insights ──

func (s *PostgresStore) InsertChatRoom(ctx context.Context, room ChatRoom) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_rooms (id, workspace_id, name) VALUES ($1, $2, $3)
	`, room.ID, room.WorkspaceID, room.Name)
	if err != nil {
		return fmt.Errorf("insert chat room: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChatRooms(ctx context.Context, workspaceID string) ([]ChatRoom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, name, created_at
		FROM chat_rooms WHERE workspace_id = $1 ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	defer rows.Close()

	var items []ChatRoom
	for rows.Next() {
		var room ChatRoom
		if err := rows.Scan(&room.ID, &room.WorkspaceID, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat room: %w", err)
		}
		items = append(items, room)
	}
	return items, rows.Err()
}

func (s *PostgresStore) InsertInsight(ctx context.Context, insight Insight) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insights (id, workspace_id, title) VALUES ($1, $2, $3)
	`, insight.ID, insight.WorkspaceID, insight.Title)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListInsights(ctx context.Context, workspaceID string) ([]Insight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, title, created_at
		FROM insights WHERE workspace_id = $1 ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var items []Insight
	for rows.Next() {
		var insight Insight
		if err := rows.Scan(&insight.ID, &insight.WorkspaceID, &insight.Title, &insight.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		items = append(items, insight)
	}
	return items, rows.Err()
}

// ── Refresh sessions (Postgres fallback when Redis is not configured) ──

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id = $2, expires_at = $3
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.username, u.email, u.password_hash, u.deactivated_at, u.created_at, u.updated_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1 AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("refresh session not found or expired")
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// ── Access token revocation ──

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti = $1 AND expires_at > NOW())
	`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check access token revocation: %w", err)
	}
	return revoked, nil
}
