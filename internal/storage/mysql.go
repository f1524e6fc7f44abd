package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/maverick-lab/filebox/internal/common"
	"github.com/maverick-lab/filebox/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MySQLClient wraps the metadata store (users and files tables) with tracing
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient initializes a new MySQL client
func NewMySQLClient(dsn string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (mc *MySQLClient) Close() error {
	return mc.db.Close()
}

// Ping reports whether the database connection is alive
func (mc *MySQLClient) Ping(ctx context.Context) error {
	return mc.db.PingContext(ctx)
}

// EnsureSchema creates the users and files tables if they do not exist
func (mc *MySQLClient) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id CHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_digest VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(16) NOT NULL,
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			parent_id VARCHAR(36) NOT NULL DEFAULT '0',
			local_path VARCHAR(512),
			thumb_status VARCHAR(16) NOT NULL DEFAULT 'none',
			created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
			INDEX idx_owner_parent (user_id, parent_id)
		)`,
	}

	for _, query := range queries {
		if _, err := mc.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// CreateUser inserts a new user with tracing
func (mc *MySQLClient) CreateUser(ctx context.Context, user *models.User) error {
	ctx, span := tracer.Start(ctx, "mysql.create_user",
		trace.WithAttributes(
			attribute.String("user_id", user.ID),
		),
	)
	defer span.End()

	query := `INSERT INTO users (id, email, password_digest) VALUES (?, ?, ?)`

	_, err := mc.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordDigest)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert user: %w", err)
	}

	span.SetAttributes(attribute.Bool("insert_success", true))
	return nil
}

// GetUserByEmail retrieves a user by email with tracing
func (mc *MySQLClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_user_by_email")
	defer span.End()

	query := `SELECT id, email, password_digest FROM users WHERE email = ?`

	var user models.User
	err := mc.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordDigest)

	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, common.ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return &user, nil
}

// GetUserByID retrieves a user by ID with tracing
func (mc *MySQLClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_user_by_id",
		trace.WithAttributes(
			attribute.String("user_id", id),
		),
	)
	defer span.End()

	query := `SELECT id, email, password_digest FROM users WHERE id = ?`

	var user models.User
	err := mc.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Email, &user.PasswordDigest)

	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, common.ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return &user, nil
}

// CountUsers returns the number of users
func (mc *MySQLClient) CountUsers(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.count_users")
	defer span.End()

	var count int64
	if err := mc.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountFiles returns the number of file records
func (mc *MySQLClient) CountFiles(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.count_files")
	defer span.End()

	var count int64
	if err := mc.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

const fileColumns = `id, user_id, name, type, is_public, parent_id, local_path, thumb_status, created_at`

func scanFile(row interface{ Scan(dest ...any) error }) (*models.FileRecord, error) {
	var file models.FileRecord
	var localPath sql.NullString
	err := row.Scan(
		&file.ID,
		&file.OwnerID,
		&file.Name,
		&file.Kind,
		&file.IsPublic,
		&file.ParentID,
		&localPath,
		&file.ThumbStatus,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	file.LocalPath = localPath.String
	return &file, nil
}

// CreateFile inserts file metadata with tracing
func (mc *MySQLClient) CreateFile(ctx context.Context, file *models.FileRecord) error {
	ctx, span := tracer.Start(ctx, "mysql.create_file",
		trace.WithAttributes(
			attribute.String("file_id", file.ID),
			attribute.String("file_type", file.Kind),
		),
	)
	defer span.End()

	query := `INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path, thumb_status)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var localPath any
	if file.LocalPath != "" {
		localPath = file.LocalPath
	}

	_, err := mc.db.ExecContext(ctx, query,
		file.ID, file.OwnerID, file.Name, file.Kind, file.IsPublic, file.ParentID, localPath, file.ThumbStatus)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert file: %w", err)
	}

	span.SetAttributes(attribute.Bool("insert_success", true))
	return nil
}

// GetFile retrieves file metadata by ID with tracing. No ownership filter;
// callers that need owner scoping use GetFileForOwner.
func (mc *MySQLClient) GetFile(ctx context.Context, fileID string) (*models.FileRecord, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_file",
		trace.WithAttributes(
			attribute.String("file_id", fileID),
		),
	)
	defer span.End()

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`

	file, err := scanFile(mc.db.QueryRowContext(ctx, query, fileID))
	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, common.ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query file: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return file, nil
}

// GetFileForOwner retrieves file metadata scoped to id AND owner with tracing
func (mc *MySQLClient) GetFileForOwner(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_file_for_owner",
		trace.WithAttributes(
			attribute.String("file_id", fileID),
		),
	)
	defer span.End()

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ? AND user_id = ?`

	file, err := scanFile(mc.db.QueryRowContext(ctx, query, fileID, ownerID))
	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, common.ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query file: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return file, nil
}

// ListFiles retrieves a page of records owned by ownerID under parentID,
// in insertion order, with tracing
func (mc *MySQLClient) ListFiles(ctx context.Context, ownerID, parentID string, page, pageSize int) ([]*models.FileRecord, error) {
	ctx, span := tracer.Start(ctx, "mysql.list_files",
		trace.WithAttributes(
			attribute.String("parent_id", parentID),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	query := `SELECT ` + fileColumns + ` FROM files
			  WHERE user_id = ? AND parent_id = ?
			  ORDER BY created_at, id
			  LIMIT ? OFFSET ?`

	rows, err := mc.db.QueryContext(ctx, query, ownerID, parentID, pageSize, page*pageSize)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	span.SetAttributes(
		attribute.Int("file_count", len(files)),
		attribute.Bool("query_success", true),
	)
	return files, nil
}

// UpdateVisibility sets the is_public flag on a single record, scoped to its
// owner, with tracing
func (mc *MySQLClient) UpdateVisibility(ctx context.Context, fileID, ownerID string, isPublic bool) error {
	ctx, span := tracer.Start(ctx, "mysql.update_visibility",
		trace.WithAttributes(
			attribute.String("file_id", fileID),
			attribute.Bool("is_public", isPublic),
		),
	)
	defer span.End()

	query := `UPDATE files SET is_public = ? WHERE id = ? AND user_id = ?`

	_, err := mc.db.ExecContext(ctx, query, isPublic, fileID, ownerID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update visibility: %w", err)
	}

	span.SetAttributes(attribute.Bool("update_success", true))
	return nil
}

// UpdateThumbStatus sets the thumbnail state on a single record with tracing
func (mc *MySQLClient) UpdateThumbStatus(ctx context.Context, fileID, status string) error {
	ctx, span := tracer.Start(ctx, "mysql.update_thumb_status",
		trace.WithAttributes(
			attribute.String("file_id", fileID),
			attribute.String("thumb_status", status),
		),
	)
	defer span.End()

	query := `UPDATE files SET thumb_status = ? WHERE id = ?`

	_, err := mc.db.ExecContext(ctx, query, status, fileID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update thumbnail status: %w", err)
	}

	span.SetAttributes(attribute.Bool("update_success", true))
	return nil
}
