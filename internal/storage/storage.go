// Package storage provides SQLite-backed persistence for price history, alerts, the watchlist, and the ledger.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/mandipulse/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// MemoryPath keeps the database in memory for the lifetime of the process.
const MemoryPath = ":memory:"

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db               *sql.DB
	maxHistoryPoints int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to an in-memory database.
func New(maxHistoryPoints int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = MemoryPath
	}
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; also pins the in-memory database to one connection
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxHistoryPoints: maxHistoryPoints}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id   TEXT NOT NULL,
			price       REAL NOT NULL,
			volume      INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_record ON price_history(record_id, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id           TEXT PRIMARY KEY,
			commodity_id TEXT NOT NULL,
			type         TEXT NOT NULL,
			target_price REAL NOT NULL,
			is_active    INTEGER NOT NULL DEFAULT 1,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS triggered_alerts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_id     TEXT NOT NULL,
			commodity_id TEXT NOT NULL,
			commodity    TEXT NOT NULL,
			region       TEXT NOT NULL,
			type         TEXT NOT NULL,
			target_price REAL NOT NULL,
			price        REAL NOT NULL,
			unit         TEXT,
			triggered_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_triggered_at ON triggered_alerts(triggered_at)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			record_id TEXT PRIMARY KEY,
			added_at  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id          TEXT PRIMARY KEY,
			date        INTEGER NOT NULL,
			type        TEXT NOT NULL,
			category    TEXT NOT NULL,
			description TEXT NOT NULL,
			amount      REAL NOT NULL,
			quantity    REAL,
			unit        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_date ON ledger_entries(date DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordPrices appends one history point per record and prunes each record's
// history to the configured cap.
func (s *Storage) RecordPrices(d models.Dataset, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT INTO price_history (record_id, price, volume, recorded_at) VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range d {
		if _, err := stmt.Exec(r.ID, r.CurrentPrice, r.Volume, at.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert price point: %w", err)
		}
	}
	if err := rotateHistory(tx, s.maxHistoryPoints); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func rotateHistory(db execer, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := db.Exec(`
		DELETE FROM price_history WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY record_id ORDER BY recorded_at DESC, id DESC
				) AS rn FROM price_history
			) WHERE rn > ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("failed to rotate history: %w", err)
	}
	return nil
}

// History returns the recorded points of recordID, oldest first.
// A limit of zero or less returns every retained point.
func (s *Storage) History(recordID string, limit int) ([]models.PricePoint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT record_id, price, volume, recorded_at FROM (
			SELECT id, record_id, price, volume, recorded_at FROM price_history
			WHERE record_id = ? ORDER BY recorded_at DESC, id DESC LIMIT ?
		) ORDER BY recorded_at ASC, id ASC`, recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	points := []models.PricePoint{}
	for rows.Next() {
		var p models.PricePoint
		var atNano int64
		if err := rows.Scan(&p.RecordID, &p.Price, &p.Volume, &atNano); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		p.RecordedAt = time.Unix(0, atNano)
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Storage) AddAlert(alert *models.PriceAlert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("invalid alert: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO alerts (id, commodity_id, type, target_price, is_active, created_at)
		VALUES (?,?,?,?,?,?)`,
		alert.ID, alert.CommodityID, string(alert.Type), alert.TargetPrice,
		boolToInt(alert.IsActive), alert.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (s *Storage) GetAlert(id string) (*models.PriceAlert, error) {
	row := s.db.QueryRow(`SELECT `+alertCols+` FROM alerts WHERE id = ?`, id)
	a, err := scanAlert(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

// ListAlerts returns every alert, newest first.
func (s *Storage) ListAlerts() ([]models.PriceAlert, error) {
	return s.queryAlerts(`SELECT ` + alertCols + ` FROM alerts ORDER BY created_at DESC`)
}

// ActiveAlerts returns the alerts still waiting to fire, oldest first.
func (s *Storage) ActiveAlerts() ([]models.PriceAlert, error) {
	return s.queryAlerts(`SELECT ` + alertCols + ` FROM alerts WHERE is_active = 1 ORDER BY created_at ASC`)
}

func (s *Storage) queryAlerts(query string) ([]models.PriceAlert, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()
	alerts := []models.PriceAlert{}
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *Storage) DeactivateAlert(id string) error {
	res, err := s.db.Exec(`UPDATE alerts SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate alert: %w", err)
	}
	return requireRow(res, "alert", id)
}

func (s *Storage) DeleteAlert(id string) error {
	res, err := s.db.Exec(`DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return requireRow(res, "alert", id)
}

func (s *Storage) AddTriggered(t models.TriggeredAlert) error {
	_, err := s.db.Exec(`
		INSERT INTO triggered_alerts
			(alert_id, commodity_id, commodity, region, type, target_price, price, unit, triggered_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		t.AlertID, t.CommodityID, t.Commodity, t.Region, string(t.Type),
		t.TargetPrice, t.Price, t.Unit, t.TriggeredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert triggered alert: %w", err)
	}
	return nil
}

// ListTriggered returns up to limit triggered alerts, newest first.
func (s *Storage) ListTriggered(limit int) ([]models.TriggeredAlert, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT alert_id, commodity_id, commodity, region, type, target_price, price, unit, triggered_at
		FROM triggered_alerts ORDER BY triggered_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query triggered alerts: %w", err)
	}
	defer rows.Close()

	out := []models.TriggeredAlert{}
	for rows.Next() {
		var t models.TriggeredAlert
		var typ string
		var unit sql.NullString
		var atNano int64
		err := rows.Scan(&t.AlertID, &t.CommodityID, &t.Commodity, &t.Region, &typ,
			&t.TargetPrice, &t.Price, &unit, &atNano)
		if err != nil {
			return nil, fmt.Errorf("failed to scan triggered alert: %w", err)
		}
		t.Type = models.AlertType(typ)
		t.Unit = unit.String
		t.TriggeredAt = time.Unix(0, atNano)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Watch adds recordID to the watchlist. Watching an id twice keeps the first timestamp.
func (s *Storage) Watch(recordID string, at time.Time) error {
	if recordID == "" {
		return errors.New("record ID must not be empty")
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO watchlist (record_id, added_at) VALUES (?,?)`,
		recordID, at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return nil
}

func (s *Storage) Unwatch(recordID string) error {
	res, err := s.db.Exec(`DELETE FROM watchlist WHERE record_id = ?`, recordID)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	return requireRow(res, "watchlist entry", recordID)
}

// Watchlist returns the watched record ids in the order they were added.
func (s *Storage) Watchlist() ([]string, error) {
	rows, err := s.db.Query(`SELECT record_id FROM watchlist ORDER BY added_at ASC, record_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Storage) AddEntry(e *models.LedgerEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}
	var qty sql.NullFloat64
	if e.Quantity != nil {
		qty = sql.NullFloat64{Float64: *e.Quantity, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO ledger_entries (id, date, type, category, description, amount, quantity, unit)
		VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.Date.UnixNano(), string(e.Type), e.Category, e.Description, e.Amount, qty, e.Unit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (s *Storage) DeleteEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	return requireRow(res, "ledger entry", id)
}

// ListEntries returns the ledger newest first.
func (s *Storage) ListEntries() ([]models.LedgerEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, date, type, category, description, amount, quantity, unit
		FROM ledger_entries ORDER BY date DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		var dateNano int64
		var typ string
		var qty sql.NullFloat64
		var unit sql.NullString
		if err := rows.Scan(&e.ID, &dateNano, &typ, &e.Category, &e.Description, &e.Amount, &qty, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Date = time.Unix(0, dateNano)
		e.Type = models.EntryType(typ)
		if qty.Valid {
			q := qty.Float64
			e.Quantity = &q
		}
		e.Unit = unit.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const alertCols = `id, commodity_id, type, target_price, is_active, created_at`

func scanAlert(scan func(...any) error) (*models.PriceAlert, error) {
	var a models.PriceAlert
	var typ string
	var active int
	var createdAtNano int64
	if err := scan(&a.ID, &a.CommodityID, &typ, &a.TargetPrice, &active, &createdAtNano); err != nil {
		return nil, err
	}
	a.Type = models.AlertType(typ)
	a.IsActive = active != 0
	a.CreatedAt = time.Unix(0, createdAtNano)
	return &a, nil
}

func requireRow(res sql.Result, what, id string) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
