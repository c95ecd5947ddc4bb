package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/medcart/medcart/internal/domain/errors"
	"github.com/medcart/medcart/internal/domain/model"
	"github.com/medcart/medcart/internal/domain/repository"
)

// Pool is the subset of pgxpool.Pool used by the storage, extracted so tests
// can substitute a pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   Pool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type prescriptionRepository struct {
	storage *Storage
}

type dispatchRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Prescriptions() repository.PrescriptionRepository {
	return &prescriptionRepository{storage: s}
}

func (s *Storage) Dispatches() repository.DispatchRepository {
	return &dispatchRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            fullname TEXT NOT NULL,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'customer',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            status TEXT NOT NULL,
            prescription_required BOOLEAN NOT NULL DEFAULT TRUE,
            prescription_status TEXT,
            delivery_address TEXT NOT NULL,
            subtotal DOUBLE PRECISION NOT NULL DEFAULT 0,
            delivery_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
            total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
            notes TEXT NOT NULL DEFAULT '',
            rejection_reason TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id BIGSERIAL PRIMARY KEY,
            order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            medication_name TEXT NOT NULL,
            dosage TEXT NOT NULL DEFAULT '',
            quantity INTEGER NOT NULL,
            unit_price DOUBLE PRECISION NOT NULL,
            total_price DOUBLE PRECISION NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS prescription_assets (
            id BIGSERIAL PRIMARY KEY,
            order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            file_path TEXT NOT NULL,
            content_type TEXT NOT NULL,
            verdict TEXT NOT NULL DEFAULT 'pending',
            verdict_reason TEXT NOT NULL DEFAULT '',
            active BOOLEAN NOT NULL DEFAULT TRUE,
            uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            verified_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_status_history (
            id BIGSERIAL PRIMARY KEY,
            order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            from_status TEXT NOT NULL,
            to_status TEXT NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS pharmacy_dispatches (
            id BIGSERIAL PRIMARY KEY,
            order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            pharmacy_id TEXT NOT NULL,
            pharmacy_name TEXT NOT NULL DEFAULT '',
            attempts INTEGER NOT NULL,
            succeeded BOOLEAN NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_assets_order ON prescription_assets(order_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_history_order ON order_status_history(order_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_order ON pharmacy_dispatches(order_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, fullname, email, passwordHash string, role model.UserRole) (*model.User, error) {
	const query = `INSERT INTO users (id, fullname, email, password_hash, role)
                   VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`
	u := model.User{
		ID:           uuid.New(),
		FullName:     fullname,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	err := r.storage.pool.QueryRow(ctx, query, u.ID, fullname, email, passwordHash, role).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, fullname, email, password_hash, role, created_at, updated_at FROM users WHERE email=$1`
	return r.scanUser(r.storage.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const query = `SELECT id, fullname, email, password_hash, role, created_at, updated_at FROM users WHERE id=$1`
	return r.scanUser(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) Anonymize(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE users
                   SET fullname='deleted user',
                       email='deleted+' || id::text || '@invalid.local',
                       password_hash='',
                       updated_at=NOW()
                   WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, user_id, status, prescription_required, prescription_status,
            delivery_address, subtotal, delivery_fee, total_amount, notes, rejection_reason,
            created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertOrder = `INSERT INTO orders
            (id, user_id, status, prescription_required, prescription_status,
             delivery_address, subtotal, delivery_fee, total_amount, notes)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            RETURNING created_at, updated_at`
		err := tx.QueryRow(ctx, insertOrder,
			order.ID, order.UserID, order.Status, order.PrescriptionRequired, order.PrescriptionStatus,
			order.DeliveryAddress, order.Subtotal, order.DeliveryFee, order.TotalAmount, order.Notes,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}

		const insertItem = `INSERT INTO order_items
            (order_id, medication_name, dosage, quantity, unit_price, total_price)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			if err := tx.QueryRow(ctx, insertItem,
				order.ID, item.MedicationName, item.Dosage, item.Quantity, item.UnitPrice, item.TotalPrice,
			).Scan(&item.ID); err != nil {
				return err
			}
		}

		if order.Status != model.OrderStatusPending {
			if err := insertHistory(ctx, tx, order.ID, model.OrderStatusPending, order.Status, "prescription not required"); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	const itemsQuery = `SELECT id, order_id, medication_name, dosage, quantity, unit_price, total_price
                        FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MedicationName, &item.Dosage, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.storage.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrderRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus applies a compare-and-swap status change. Zero affected rows
// mean the persisted status no longer matches the expectation; the caller
// distinguishes a lost race from a missing order.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, expected, next model.OrderStatus, fields repository.StatusFields) (*model.Order, error) {
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const updateQuery = `UPDATE orders
            SET status=$1,
                prescription_status=COALESCE($2, prescription_status),
                rejection_reason=COALESCE($3, rejection_reason),
                updated_at=NOW()
            WHERE id=$4 AND status=$5`
		tag, err := tx.Exec(ctx, updateQuery, next, fields.PrescriptionStatus, fields.RejectionReason, orderID, expected)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.storage.conflictOrMissing(ctx, tx, orderID)
		}
		return insertHistory(ctx, tx, orderID, expected, next, fields.Reason)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// ClaimBatchForVerification moves uploaded orders into verifying and returns
// them for the worker pool. Orders stuck in verifying longer than retryAfter
// (a worker crash or a verifier outage) are claimed again.
func (r *orderRepository) ClaimBatchForVerification(ctx context.Context, limit int, retryAfter time.Duration) ([]model.Order, error) {
	const selectQuery = `SELECT ` + orderColumns + `
                         FROM orders
                         WHERE status = 'prescription_uploaded'
                            OR (status = 'verifying' AND updated_at < NOW() - make_interval(secs => $2))
                         ORDER BY updated_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`

	var orders []model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit, retryAfter.Seconds())
		if err != nil {
			return err
		}
		defer rows.Close()

		var claimed []model.Order
		for rows.Next() {
			order, err := scanOrderRows(rows)
			if err != nil {
				return err
			}
			claimed = append(claimed, *order)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range claimed {
			o := &claimed[i]
			if _, err := tx.Exec(ctx, `UPDATE orders SET status='verifying', updated_at=NOW() WHERE id=$1`, o.ID); err != nil {
				return err
			}
			if o.Status != model.OrderStatusVerifying {
				if err := insertHistory(ctx, tx, o.ID, o.Status, model.OrderStatusVerifying, ""); err != nil {
					return err
				}
			}
			o.Status = model.OrderStatusVerifying
		}
		orders = claimed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) History(ctx context.Context, orderID string) ([]model.StatusChange, error) {
	const query = `SELECT id, order_id, from_status, to_status, reason, created_at
                   FROM order_status_history WHERE order_id=$1 ORDER BY created_at, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StatusChange
	for rows.Next() {
		var c model.StatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.FromStatus, &c.ToStatus, &c.Reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- PrescriptionRepository implementation ---

func (r *prescriptionRepository) Attach(ctx context.Context, orderID string, expected model.OrderStatus, asset *model.PrescriptionAsset) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const casQuery = `UPDATE orders
            SET status='prescription_uploaded',
                prescription_status='pending',
                rejection_reason='',
                updated_at=NOW()
            WHERE id=$1 AND status=$2`
		tag, err := tx.Exec(ctx, casQuery, orderID, expected)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.storage.conflictOrMissing(ctx, tx, orderID)
		}

		if _, err := tx.Exec(ctx, `UPDATE prescription_assets SET active=FALSE WHERE order_id=$1 AND active`, orderID); err != nil {
			return err
		}

		const insertAsset = `INSERT INTO prescription_assets (order_id, file_path, content_type)
                             VALUES ($1, $2, $3) RETURNING id, uploaded_at`
		if err := tx.QueryRow(ctx, insertAsset, orderID, asset.FilePath, asset.ContentType).Scan(&asset.ID, &asset.UploadedAt); err != nil {
			return err
		}
		asset.OrderID = orderID
		asset.Verdict = model.PrescriptionStatusPending
		asset.Active = true

		return insertHistory(ctx, tx, orderID, expected, model.OrderStatusPrescriptionUploaded, "")
	})
}

func (r *prescriptionRepository) Active(ctx context.Context, orderID string) (*model.PrescriptionAsset, error) {
	const query = `SELECT id, order_id, file_path, content_type, verdict, verdict_reason, active, uploaded_at, verified_at
                   FROM prescription_assets WHERE order_id=$1 AND active`
	var a model.PrescriptionAsset
	err := r.storage.pool.QueryRow(ctx, query, orderID).Scan(
		&a.ID, &a.OrderID, &a.FilePath, &a.ContentType, &a.Verdict, &a.VerdictReason, &a.Active, &a.UploadedAt, &a.VerifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CompleteVerification records a verdict exactly once: the CAS from verifying
// guarantees a duplicate or late completion fails with a state conflict
// instead of double-applying.
func (r *prescriptionRepository) CompleteVerification(ctx context.Context, orderID string, assetID int64, valid bool, reason string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		next := model.OrderStatusRejected
		verdict := model.PrescriptionStatusInvalid
		if valid {
			next = model.OrderStatusVerified
			verdict = model.PrescriptionStatusValid
		}

		const casQuery = `UPDATE orders
            SET status=$1, prescription_status=$2, rejection_reason=$3, updated_at=NOW()
            WHERE id=$4 AND status='verifying'`
		tag, err := tx.Exec(ctx, casQuery, next, verdict, reason, orderID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.storage.conflictOrMissing(ctx, tx, orderID)
		}

		const verdictQuery = `UPDATE prescription_assets
            SET verdict=$1, verdict_reason=$2, verified_at=NOW() WHERE id=$3`
		if _, err := tx.Exec(ctx, verdictQuery, verdict, reason, assetID); err != nil {
			return err
		}

		return insertHistory(ctx, tx, orderID, model.OrderStatusVerifying, next, reason)
	})
}

// --- DispatchRepository implementation ---

func (r *dispatchRepository) Record(ctx context.Context, report model.DispatchReport) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insert = `INSERT INTO pharmacy_dispatches
            (order_id, pharmacy_id, pharmacy_name, attempts, succeeded, reason)
            VALUES ($1, $2, $3, $4, $5, $6)`
		for _, o := range report.Outcomes {
			if _, err := tx.Exec(ctx, insert, report.OrderID, o.PharmacyID, o.PharmacyName, o.Attempts, o.Succeeded, o.Reason); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *dispatchRepository) ListByOrder(ctx context.Context, orderID string) ([]model.DispatchOutcome, error) {
	const query = `SELECT pharmacy_id, pharmacy_name, attempts, succeeded, reason
                   FROM pharmacy_dispatches WHERE order_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.DispatchOutcome
	for rows.Next() {
		var o model.DispatchOutcome
		if err := rows.Scan(&o.PharmacyID, &o.PharmacyName, &o.Attempts, &o.Succeeded, &o.Reason); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- shared helpers ---

func (s *Storage) conflictOrMissing(ctx context.Context, tx pgx.Tx, orderID string) error {
	var status model.OrderStatus
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.ErrNotFound
	}
	if err != nil {
		return err
	}
	return domainErrors.ErrStateConflict
}

func insertHistory(ctx context.Context, tx pgx.Tx, orderID string, from, to model.OrderStatus, reason string) error {
	const query = `INSERT INTO order_status_history (order_id, from_status, to_status, reason)
                   VALUES ($1, $2, $3, $4)`
	_, err := tx.Exec(ctx, query, orderID, from, to, reason)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	order, err := scanOrderFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func scanOrderRows(rows pgx.Rows) (*model.Order, error) {
	return scanOrderFrom(rows)
}

func scanOrderFrom(src scannable) (*model.Order, error) {
	var o model.Order
	err := src.Scan(
		&o.ID, &o.UserID, &o.Status, &o.PrescriptionRequired, &o.PrescriptionStatus,
		&o.DeliveryAddress, &o.Subtotal, &o.DeliveryFee, &o.TotalAmount, &o.Notes, &o.RejectionReason,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
