package storage

// sqlite.go: registro de usuarios e historial local de pasadas.
//
// Tablas:
//   - `users`: wallet → TSA. Upsert idempotente al primer contacto y un
//     único update cuando el deploy de la cuenta confirma.
//   - `runs`: resumen ligero por pasada publicada (una fila, sin posiciones).
//   - `positions`: UNA fila por posición con el último estado de rango. Solo
//     se reescribe si cambió el estado o el precio se movió más de un 5%
//     (cache en memoria), así una pasada normal casi no escribe a disco.
//   - Prune al arrancar: runs de más de 30 días.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    address    TEXT PRIMARY KEY,
    tsa        TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

-- Resumen por pasada publicada
CREATE TABLE IF NOT EXISTS runs (
    run_id     TEXT PRIMARY KEY,
    owner      TEXT     NOT NULL,
    generation INTEGER  NOT NULL,
    positions  INTEGER  NOT NULL DEFAULT 0,
    in_range   INTEGER  NOT NULL DEFAULT 0,
    error      TEXT,
    ran_at     DATETIME NOT NULL
);

-- Último estado conocido de cada posición
CREATE TABLE IF NOT EXISTS positions (
    position_id TEXT NOT NULL,
    owner       TEXT NOT NULL,
    pair        TEXT NOT NULL,
    min_price   TEXT NOT NULL,
    max_price   TEXT NOT NULL,
    last_price  TEXT NOT NULL,
    status      TEXT NOT NULL,
    first_seen  DATETIME NOT NULL,
    last_change DATETIME NOT NULL,
    PRIMARY KEY (owner, position_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_owner_at ON runs(owner, ran_at DESC);
`

const (
	retentionRuns  = 30 * 24 * time.Hour
	priceChangePct = 0.05 // 5% de cambio de precio → reescribir
)

// cachedState es el último estado guardado de una posición.
type cachedState struct {
	status string
	price  decimal.Decimal
}

// SQLiteStorage implementa ports.AccountStore y ports.Notifier usando SQLite
// (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]cachedState // owner/positionID → estado guardado
	mu    sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]cachedState),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- users ---

// UpsertUser crea el registro de la wallet si no existe. No toca la TSA de
// un registro existente.
func (s *SQLiteStorage) UpsertUser(ctx context.Context, address string) error {
	address = normalizeAddress(address)
	if address == "" {
		return fmt.Errorf("storage.UpsertUser: empty address: %w", domain.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (address, tsa, created_at, updated_at)
		VALUES (?, NULL, ?, ?)
		ON CONFLICT(address) DO NOTHING`,
		address, now, now,
	)
	if err != nil {
		return fmt.Errorf("storage.UpsertUser: %w", err)
	}
	return nil
}

// GetUser devuelve el registro de la wallet o domain.ErrAccountNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, address string) (domain.UserAccount, error) {
	address = normalizeAddress(address)

	var u domain.UserAccount
	var tsa sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT address, tsa, created_at, updated_at
		FROM users WHERE address = ?`, address,
	).Scan(&u.Address, &tsa, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserAccount{}, fmt.Errorf("storage.GetUser %s: %w", address, domain.ErrAccountNotFound)
	}
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("storage.GetUser: %w", err)
	}
	u.TSA = tsa.String
	return u, nil
}

// SetTSA guarda la cuenta desplegada. El usuario tiene que existir.
func (s *SQLiteStorage) SetTSA(ctx context.Context, address, tsa string) error {
	address = normalizeAddress(address)
	tsa = normalizeAddress(tsa)
	if tsa == "" {
		return fmt.Errorf("storage.SetTSA: empty tsa: %w", domain.ErrInvalidArgument)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET tsa = ?, updated_at = ? WHERE address = ?`,
		tsa, time.Now().UTC(), address,
	)
	if err != nil {
		return fmt.Errorf("storage.SetTSA: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.SetTSA %s: %w", address, domain.ErrAccountNotFound)
	}
	return nil
}

// --- runs / positions ---

// Notify persiste el resumen de la pasada y los cambios de estado de sus
// posiciones. Implementa ports.Notifier.
func (s *SQLiteStorage) Notify(ctx context.Context, snap domain.Snapshot) error {
	if snap.RunID == "" {
		// Error sin pasada nueva (p. ej. falló la carga de tokens): no hay
		// nada que registrar.
		return nil
	}

	errText := sql.NullString{}
	if snap.Err != nil {
		errText = sql.NullString{String: snap.Err.Error(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Notify: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, owner, generation, positions, in_range, error, ran_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING`,
		snap.RunID, snap.Owner, int64(snap.Generation),
		len(snap.Positions), snap.InRange(), errText, snap.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.Notify: insert run: %w", err)
	}

	// Si la pasada falló, Positions es la pasada anterior: no hay estado nuevo.
	var changed []domain.ReconciledPosition
	if snap.Err == nil {
		changed = s.filterChanged(snap.Owner, snap.Positions)
	}

	if len(changed) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO positions (position_id, owner, pair, min_price, max_price, last_price, status, first_seen, last_change)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(owner, position_id) DO UPDATE SET
				pair        = excluded.pair,
				min_price   = excluded.min_price,
				max_price   = excluded.max_price,
				last_price  = excluded.last_price,
				status      = excluded.status,
				last_change = excluded.last_change`)
		if err != nil {
			return fmt.Errorf("storage.Notify: prepare: %w", err)
		}
		defer stmt.Close()

		now := snap.UpdatedAt.UTC()
		for _, p := range changed {
			if _, err := stmt.ExecContext(ctx,
				p.Metadata.ID, snap.Owner, p.Pair(),
				p.MinPrice.String(), p.MaxPrice.String(), p.CurrentPrice.String(),
				p.Status(), now, now,
			); err != nil {
				return fmt.Errorf("storage.Notify: upsert position %s: %w", p.Metadata.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Notify: commit: %w", err)
	}

	s.mu.Lock()
	for _, p := range changed {
		s.cache[cacheKey(snap.Owner, p.Metadata.ID)] = cachedState{status: p.Status(), price: p.CurrentPrice}
	}
	s.mu.Unlock()
	return nil
}

// RecentRuns devuelve las últimas pasadas de owner, la más reciente primero.
func (s *SQLiteStorage) RecentRuns(ctx context.Context, owner string, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, owner, generation, positions, in_range, COALESCE(error, ''), ran_at
		FROM runs WHERE owner = ?
		ORDER BY ran_at DESC, generation DESC
		LIMIT ?`, owner, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var r domain.RunRecord
		var gen int64
		if err := rows.Scan(&r.RunID, &r.Owner, &gen, &r.Positions, &r.InRange, &r.Error, &r.RanAt); err != nil {
			return nil, fmt.Errorf("storage.RecentRuns: scan: %w", err)
		}
		r.Generation = uint64(gen)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PositionStates devuelve el último estado guardado de cada posición de owner.
func (s *SQLiteStorage) PositionStates(ctx context.Context, owner string) ([]domain.PositionState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id, owner, pair, min_price, max_price, last_price, status, first_seen, last_change
		FROM positions WHERE owner = ?
		ORDER BY CAST(position_id AS INTEGER), position_id`, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.PositionStates: %w", err)
	}
	defer rows.Close()

	var out []domain.PositionState
	for rows.Next() {
		var p domain.PositionState
		var minP, maxP, last string
		if err := rows.Scan(&p.PositionID, &p.Owner, &p.Pair, &minP, &maxP, &last, &p.Status, &p.FirstSeen, &p.LastChange); err != nil {
			return nil, fmt.Errorf("storage.PositionStates: scan: %w", err)
		}
		p.MinPrice, _ = decimal.NewFromString(minP)
		p.MaxPrice, _ = decimal.NewFromString(maxP)
		p.LastPrice, _ = decimal.NewFromString(last)
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- helpers ---

// filterChanged devuelve las posiciones cuyo estado cambió respecto a la
// cache: status distinto o precio movido más de priceChangePct.
func (s *SQLiteStorage) filterChanged(owner string, positions []domain.ReconciledPosition) []domain.ReconciledPosition {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ReconciledPosition
	for _, p := range positions {
		prev, ok := s.cache[cacheKey(owner, p.Metadata.ID)]
		if !ok || prev.status != p.Status() || relChange(prev.price, p.CurrentPrice) > priceChangePct {
			out = append(out, p)
		}
	}
	return out
}

// pruneOld borra las pasadas fuera de la retención.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE ran_at < ?`, cutoff)
}

// warmCache carga el último estado guardado de todas las posiciones.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner, position_id, status, last_price FROM positions`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var owner, id, status, price string
		if rows.Scan(&owner, &id, &status, &price) == nil {
			p, _ := decimal.NewFromString(price)
			s.cache[cacheKey(owner, id)] = cachedState{status: status, price: p}
		}
	}
}

func cacheKey(owner, positionID string) string {
	return owner + "/" + positionID
}

// relChange devuelve el cambio relativo entre dos precios.
func relChange(old, new decimal.Decimal) float64 {
	if old.IsZero() {
		if new.IsZero() {
			return 0
		}
		return 1.0 // forzar escritura si antes era 0
	}
	f, _ := new.Sub(old).Abs().Div(old.Abs()).Float64()
	return f
}

// normalizeAddress pasa a minúsculas y quita espacios. Las wallets pueden
// llegar con hex en mayúsculas según el conector.
func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
