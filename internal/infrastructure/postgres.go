package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Users Table
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'subuser',
			parent_id INT REFERENCES users(id),
			section_no INT,
			allocated INT DEFAULT 0,
			users INT DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT FALSE,
			full_name VARCHAR(100),
			symbol VARCHAR(50),
			serial_no VARCHAR(50),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_login_at TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// Sessions Table: one row per user, deleted on logout/expiry
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			user_id INT PRIMARY KEY REFERENCES users(id),
			session_id VARCHAR(64) NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			last_activity_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	// Voter List Table (bulk-loaded out of band; shared across tenants)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS voter_list (
			voter_id INT PRIMARY KEY,
			part_no INT,
			section_no INT,
			ename VARCHAR(255),
			ve_name VARCHAR(255),
			surname VARCHAR(255),
			sex VARCHAR(10),
			age INT,
			id_card_no VARCHAR(50),
			vps_name VARCHAR(255),
			vr_name VARCHAR(255),
			address TEXT,
			v_address TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_voter_list_section ON voter_list(section_no);
		CREATE INDEX IF NOT EXISTS idx_voter_list_surname ON voter_list(surname);
	`)
	if err != nil {
		return fmt.Errorf("create voter_list table: %w", err)
	}

	// Per-tenant canvassing status. Absent row = not visited.
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS voter_visits (
			voter_id INT NOT NULL REFERENCES voter_list(voter_id),
			tenant_id INT NOT NULL,
			visited BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (voter_id, tenant_id)
		);
		CREATE INDEX IF NOT EXISTS idx_voter_visits_tenant ON voter_visits(tenant_id);
	`)
	if err != nil {
		return fmt.Errorf("create voter_visits table: %w", err)
	}

	// Survey Data Table (append-only canvassing log)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS survey_data (
			survey_no SERIAL PRIMARY KEY,
			voter_id INT NOT NULL,
			ve_name VARCHAR(512),
			house_no VARCHAR(100),
			landmark VARCHAR(255),
			v_address TEXT,
			mobile VARCHAR(20),
			section_no INT,
			voters_count INT DEFAULT 0,
			male INT DEFAULT 0,
			female INT DEFAULT 0,
			caste VARCHAR(100),
			sex VARCHAR(10),
			part_no VARCHAR(20),
			age INT,
			user_id INT NOT NULL,
			submission_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_survey_data_user ON survey_data(user_id);
		CREATE INDEX IF NOT EXISTS idx_survey_data_voter ON survey_data(voter_id);
	`)
	if err != nil {
		return fmt.Errorf("create survey_data table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
