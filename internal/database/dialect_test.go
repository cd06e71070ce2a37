package database

import (
	"strings"
	"testing"
)

func TestDialects(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		driver        string
		lastInsertID  bool
		migrationsDir string
	}{
		{"SQLite", NewSQLiteDialect(), "sqlite3", true, "sqlite"},
		{"PostgreSQL", NewPostgresDialect(), "postgres", false, "postgres"},
		{"MySQL", NewMySQLDialect(), "mysql", true, "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsDir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.migrationsDir)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dbType  string
		want    string
		wantErr bool
	}{
		{"", "sqlite3", false},
		{"SQLite", "sqlite3", false},
		{"postgresql", "postgres", false},
		{"mysql", "mysql", false},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			d, err := DialectFor(tt.dbType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DialectFor(%q) error = %v, wantErr %v", tt.dbType, err, tt.wantErr)
			}
			if err == nil && d.DriverName() != tt.want {
				t.Errorf("DialectFor(%q) driver = %v, want %v", tt.dbType, d.DriverName(), tt.want)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM children WHERE id = ?",
			expected: "SELECT * FROM children WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM children WHERE id = ?",
			expected: "SELECT * FROM children WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO children (user_id, name) VALUES (?, ?)",
			expected: "INSERT INTO children (user_id, name) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE checklist_items SET title = ? WHERE id = ?",
			expected: "UPDATE checklist_items SET title = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUpsertClause(t *testing.T) {
	conflict := []string{"slug"}
	update := []string{"title", "tags"}

	want := " ON CONFLICT (slug) DO UPDATE SET title = excluded.title, tags = excluded.tags"
	if got := NewSQLiteDialect().UpsertClause(conflict, update); got != want {
		t.Errorf("SQLite UpsertClause() = %q, want %q", got, want)
	}
	if got := NewPostgresDialect().UpsertClause(conflict, update); got != want {
		t.Errorf("Postgres UpsertClause() = %q, want %q", got, want)
	}

	wantMySQL := " ON DUPLICATE KEY UPDATE title = VALUES(title), tags = VALUES(tags)"
	if got := NewMySQLDialect().UpsertClause(conflict, update); got != wantMySQL {
		t.Errorf("MySQL UpsertClause() = %q, want %q", got, wantMySQL)
	}
}

func TestDSN(t *testing.T) {
	sqliteDSN := NewSQLiteDialect().DSN(DialectConfig{Path: "app.db"})
	if !strings.HasPrefix(sqliteDSN, "app.db?") || !strings.Contains(sqliteDSN, "_foreign_keys=on") {
		t.Errorf("SQLite DSN = %q", sqliteDSN)
	}
	withParams := NewSQLiteDialect().DSN(DialectConfig{Path: "app.db?cache=shared"})
	if !strings.Contains(withParams, "cache=shared&_foreign_keys=on") {
		t.Errorf("SQLite DSN with params = %q", withParams)
	}

	mysqlDSN := NewMySQLDialect().DSN(DialectConfig{URL: "user:pass@tcp(localhost:3306)/littlesteps"})
	if !strings.Contains(mysqlDSN, "parseTime=true") {
		t.Errorf("MySQL DSN = %q, want parseTime=true", mysqlDSN)
	}
}

func TestSplitStatements(t *testing.T) {
	content := `
-- header comment
CREATE TABLE a (id INTEGER);

CREATE INDEX idx_a ON a(id);
  -- trailing comment
`
	got := splitStatements(content)
	if len(got) != 2 {
		t.Fatalf("splitStatements() returned %d statements: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INTEGER)" {
		t.Errorf("first statement = %q", got[0])
	}
	if got[1] != "CREATE INDEX idx_a ON a(id)" {
		t.Errorf("second statement = %q", got[1])
	}
}
