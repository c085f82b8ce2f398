package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already exists")
)

type PaymentFilter struct {
	SubjectRef string
	HasStatus  bool
	Status     int32
	Kind       int32
	Period     string
	Limit      int32
	Offset     int32
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, subject_ref, amount_cents, kind, method, status, gateway,
			operation_key, order_id, period, payment_date, notes, metadata_json,
			created_at, updated_at`

// Create inserts a new ledger row. The unique index on operation_key makes
// the insert the idempotency barrier for reconciliation: a second delivery of
// the same gateway operation comes back as ErrPaymentAlreadyExists.
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	metadataJSON, err := serializeMetadata(payment.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payments (
			subject_ref, amount_cents, kind, method, status, gateway,
			operation_key, order_id, period, payment_date, notes, metadata_json,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableStringValue(payment.SubjectRef),
		payment.AmountCents,
		payment.Kind,
		payment.Method,
		payment.Status,
		nullableStringValue(payment.Gateway),
		nullableStringValue(payment.OperationKey),
		nullableStringValue(payment.OrderID),
		nullableStringValue(payment.Period),
		nullableTimeValue(payment.PaymentDate),
		payment.Notes,
		metadataJSON,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payment.ID = uint64(id)
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	metadataJSON, err := serializeMetadata(payment.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE payments SET
			subject_ref = ?,
			amount_cents = ?,
			kind = ?,
			method = ?,
			status = ?,
			gateway = ?,
			order_id = ?,
			period = ?,
			payment_date = ?,
			notes = ?,
			metadata_json = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableStringValue(payment.SubjectRef),
		payment.AmountCents,
		payment.Kind,
		payment.Method,
		payment.Status,
		nullableStringValue(payment.Gateway),
		nullableStringValue(payment.OrderID),
		nullableStringValue(payment.Period),
		nullableTimeValue(payment.PaymentDate),
		payment.Notes,
		metadataJSON,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint64) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = ?
	`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) FindByOperationKey(ctx context.Context, operationKey string) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE operation_key = ?
		LIMIT 1
	`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, operationKey), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

// ChargeExists is the idempotency probe for monthly charge generation.
func (r *PaymentRepository) ChargeExists(ctx context.Context, subjectRef, period string) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM payments
		WHERE kind = ? AND subject_ref = ? AND period = ?
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, entity.PaymentKindCharge, subjectRef, period).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListChargesByStatus returns kind=charge rows in any of the given statuses,
// optionally narrowed to one period. Callers scan the full result; batches
// operate on whole months, not pages.
func (r *PaymentRepository) ListChargesByStatus(ctx context.Context, statuses []int32, period string) ([]*entity.Payment, error) {
	if len(statuses) == 0 {
		return []*entity.Payment{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE kind = ? AND status IN (` + placeholders + `)
	`

	args := make([]interface{}, 0, len(statuses)+2)
	args = append(args, entity.PaymentKindCharge)
	for _, status := range statuses {
		args = append(args, status)
	}
	if strings.TrimSpace(period) != "" {
		query += " AND period = ?"
		args = append(args, period)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item, err := scanPaymentFromRows(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *PaymentRepository) List(ctx context.Context, filter PaymentFilter) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
	`

	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)

	if strings.TrimSpace(filter.SubjectRef) != "" {
		conditions = append(conditions, "subject_ref = ?")
		args = append(args, filter.SubjectRef)
	}
	if filter.HasStatus {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Kind > 0 {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if strings.TrimSpace(filter.Period) != "" {
		conditions = append(conditions, "period = ?")
		args = append(args, filter.Period)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item, err := scanPaymentFromRows(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var subjectRef sql.NullString
	var gateway sql.NullString
	var operationKey sql.NullString
	var orderID sql.NullString
	var period sql.NullString
	var paymentDate sql.NullTime
	var metadataJSON string

	err := scan.Scan(
		&payment.ID,
		&subjectRef,
		&payment.AmountCents,
		&payment.Kind,
		&payment.Method,
		&payment.Status,
		&gateway,
		&operationKey,
		&orderID,
		&period,
		&paymentDate,
		&payment.Notes,
		&metadataJSON,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	payment.SubjectRef = stringPtrFromNull(subjectRef)
	payment.Gateway = stringPtrFromNull(gateway)
	payment.OperationKey = stringPtrFromNull(operationKey)
	payment.OrderID = stringPtrFromNull(orderID)
	payment.Period = stringPtrFromNull(period)
	payment.PaymentDate = timePtrFromNull(paymentDate)

	metadata, err := parseMetadata(metadataJSON)
	if err != nil {
		return err
	}
	payment.Metadata = metadata

	return nil
}

func scanPaymentFromRows(rows *sql.Rows) (*entity.Payment, error) {
	item := &entity.Payment{}
	if err := scanPayment(rows, item); err != nil {
		return nil, err
	}
	return item, nil
}
