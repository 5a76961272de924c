//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package database

import (
	"testing"

	"github.com/pgEdge/pgedge-nl2sql-server/internal/config"
)

func TestBuildConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		expected string
	}{
		{
			name: "basic",
			cfg: config.DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "students",
				Username: "postgres",
				Password: "secret",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 dbname=students user=postgres password=secret sslmode=disable",
		},
		{
			name: "password with spaces and quotes",
			cfg: config.DatabaseConfig{
				Host:     "db",
				Port:     5433,
				Database: "students",
				Username: "app",
				Password: `it's a secret`,
			},
			expected: `host=db port=5433 dbname=students user=app password='it\'s a secret'`,
		},
		{
			name: "certificates",
			cfg: config.DatabaseConfig{
				Host:      "db",
				Port:      5432,
				Database:  "students",
				Username:  "app",
				SSLMode:   "verify-full",
				SSLCert:   "/certs/client.crt",
				SSLKey:    "/certs/client.key",
				SSLRootCA: "/certs/ca.crt",
			},
			expected: "host=db port=5432 dbname=students user=app sslmode=verify-full " +
				"sslcert=/certs/client.crt sslkey=/certs/client.key sslrootcert=/certs/ca.crt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildConnectionString(tt.cfg)
			if got != tt.expected {
				t.Errorf("BuildConnectionString() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildConnectionString_UserFromEnvironment(t *testing.T) {
	t.Setenv("PGUSER", "envuser")

	got := BuildConnectionString(config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "students",
	})
	want := "host=localhost port=5432 dbname=students user=envuser"
	if got != want {
		t.Errorf("BuildConnectionString() = %q, want %q", got, want)
	}
}

func TestOpen_SingleConnection(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Host: "localhost", Port: 5432, Database: "students"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("expected max open connections 1, got %d", got)
	}
}
