package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteDirectory is a Directory backed by a local SQLite database.
type SQLiteDirectory struct {
	db *sql.DB
}

var _ Directory = (*SQLiteDirectory)(nil)

// OpenSQLite opens (or creates) the user database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	d := &SQLiteDirectory{db: db}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

func (d *SQLiteDirectory) initSchema() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		auth_subject_id TEXT NOT NULL,
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		UNIQUE (tenant_id, auth_subject_id)
	)`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`CREATE INDEX IF NOT EXISTS idx_users_tenant_subject
		ON users (tenant_id, auth_subject_id)`)
	return err
}

// FindBySubject implements Directory.
func (d *SQLiteDirectory) FindBySubject(ctx context.Context, tenantID, subjectID string) (*User, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, auth_subject_id, email, name, role, tenant_id, active
		 FROM users WHERE tenant_id = ? AND auth_subject_id = ?`,
		tenantID, subjectID,
	)

	var u User
	if err := row.Scan(&u.ID, &u.AuthSubjectID, &u.Email, &u.Name, &u.Role, &u.TenantID, &u.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return &u, nil
}

// Upsert inserts or replaces a user record. Used by provisioning and tests.
func (d *SQLiteDirectory) Upsert(ctx context.Context, u *User) error {
	active := 0
	if u.Active {
		active = 1
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, auth_subject_id, email, name, role, tenant_id, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			auth_subject_id = excluded.auth_subject_id,
			email = excluded.email,
			name = excluded.name,
			role = excluded.role,
			tenant_id = excluded.tenant_id,
			active = excluded.active`,
		u.ID, u.AuthSubjectID, u.Email, u.Name, u.Role, u.TenantID, active,
	)
	if err != nil {
		return fmt.Errorf("user upsert failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}
