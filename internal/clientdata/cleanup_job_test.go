package clientdata

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCleanupJob(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, zerolog.Nop())

	assert.NotNil(t, job)
}

func TestCleanupJobName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, zerolog.Nop())

	assert.Equal(t, "client_data_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, zerolog.Nop())

	now := time.Now()
	expiredAt := now.Add(-time.Hour).Unix()
	freshAt := now.Add(time.Hour).Unix()

	// Insert expired and fresh entries across all tables
	insertExpiredAndFresh(t, db, "quotes", "symbol", expiredAt, freshAt)
	insertExpiredAndFresh(t, db, "fx_rates", "pair", expiredAt, freshAt)
	insertExpiredAndFresh(t, db, "company_names", "symbol", expiredAt, freshAt)

	var countBefore int
	db.QueryRow("SELECT (SELECT COUNT(*) FROM quotes) + (SELECT COUNT(*) FROM fx_rates) + (SELECT COUNT(*) FROM company_names)").Scan(&countBefore)
	assert.Equal(t, 6, countBefore) // 2 per table (1 expired + 1 fresh)

	err := job.Run()
	require.NoError(t, err)

	var countAfter int
	db.QueryRow("SELECT (SELECT COUNT(*) FROM quotes) + (SELECT COUNT(*) FROM fx_rates) + (SELECT COUNT(*) FROM company_names)").Scan(&countAfter)
	assert.Equal(t, 3, countAfter) // 1 fresh per table
}

func TestCleanupJobRunEmptyTables(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, zerolog.Nop())

	err := job.Run()
	require.NoError(t, err)
}

func TestCleanupJobRunAllExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, zerolog.Nop())

	expiredAt := time.Now().Add(-time.Hour).Unix()
	blob := mustMarshal(t, 1.0)

	_, err := db.Exec("INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)", "usAAPL", blob, expiredAt)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)", "hk00700", blob, expiredAt)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO fx_rates (pair, data, expires_at) VALUES (?, ?, ?)", "USDHKD", blob, expiredAt)
	require.NoError(t, err)

	err = job.Run()
	require.NoError(t, err)

	var count int
	db.QueryRow("SELECT COUNT(*) FROM quotes").Scan(&count)
	assert.Equal(t, 0, count)
	db.QueryRow("SELECT COUNT(*) FROM fx_rates").Scan(&count)
	assert.Equal(t, 0, count)
}

func TestCleanupJobRunAllFresh(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, zerolog.Nop())

	freshAt := time.Now().Add(time.Hour).Unix()
	blob := mustMarshal(t, 1.0)

	_, err := db.Exec("INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)", "usAAPL", blob, freshAt)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)", "hk00700", blob, freshAt)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO fx_rates (pair, data, expires_at) VALUES (?, ?, ?)", "USDHKD", blob, freshAt)
	require.NoError(t, err)

	err = job.Run()
	require.NoError(t, err)

	var count int
	db.QueryRow("SELECT COUNT(*) FROM quotes").Scan(&count)
	assert.Equal(t, 2, count)
	db.QueryRow("SELECT COUNT(*) FROM fx_rates").Scan(&count)
	assert.Equal(t, 1, count)
}

// Helper function to insert one expired and one fresh entry per table
func insertExpiredAndFresh(t *testing.T, db *sql.DB, table, keyCol string, expiredAt, freshAt int64) {
	t.Helper()

	var key1, key2 string
	if keyCol == "pair" {
		key1 = "USDHKD"
		key2 = "USDCNY"
	} else {
		key1 = "EXPIRED_" + table
		key2 = "FRESH_" + table
	}

	blob := mustMarshal(t, "x")

	_, err := db.Exec(
		"INSERT INTO "+table+" ("+keyCol+", data, expires_at) VALUES (?, ?, ?)",
		key1, blob, expiredAt,
	)
	require.NoError(t, err)

	_, err = db.Exec(
		"INSERT INTO "+table+" ("+keyCol+", data, expires_at) VALUES (?, ?, ?)",
		key2, blob, freshAt,
	)
	require.NoError(t, err)
}
