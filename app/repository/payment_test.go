package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

func paymentRowColumns() []string {
	return []string{
		"id", "subject_ref", "amount_cents", "kind", "method", "status", "gateway",
		"operation_key", "order_id", "period", "payment_date", "notes", "metadata_json",
		"created_at", "updated_at",
	}
}

func TestPaymentCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(7, 1))

	subjectRef := "sub-1"
	operationKey := "azul:AZ-1"
	now := time.Now().UTC()
	payment := &entity.Payment{
		SubjectRef:   &subjectRef,
		AmountCents:  13000,
		Kind:         entity.PaymentKindMonthly,
		Method:       entity.PaymentMethodGateway,
		Status:       entity.PaymentStatusApproved,
		OperationKey: &operationKey,
		Metadata:     map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	require.NoError(t, repo.Create(context.Background(), payment))
	assert.Equal(t, uint64(7), payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateDuplicateOperationKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	mock.ExpectExec("INSERT INTO payments").WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	operationKey := "azul:AZ-1"
	payment := &entity.Payment{
		AmountCents:  13000,
		OperationKey: &operationKey,
		Metadata:     map[string]string{},
	}

	err = repo.Create(context.Background(), payment)
	assert.ErrorIs(t, err, ErrPaymentAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	mock.ExpectExec("UPDATE payments SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), &entity.Payment{ID: 404, Metadata: map[string]string{}})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentFindByIDParsesNullables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(paymentRowColumns()).AddRow(
		uint64(3), nil, int64(13000), entity.PaymentKindCharge, int32(0), entity.PaymentStatusPending,
		nil, nil, nil, "2026-08", nil, "", `{"pending_subject_ref":"sub-9"}`, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM payments").WithArgs(uint64(3)).WillReturnRows(rows)

	payment, err := repo.FindByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Nil(t, payment.SubjectRef)
	assert.Nil(t, payment.OperationKey)
	require.NotNil(t, payment.Period)
	assert.Equal(t, "2026-08", *payment.Period)
	assert.Equal(t, "sub-9", payment.Metadata[entity.MetadataPendingSubjectRef])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentFindByOperationKeyMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	mock.ExpectQuery("SELECT (.+) FROM payments").
		WithArgs("azul:missing").
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()))

	payment, err := repo.FindByOperationKey(context.Background(), "azul:missing")
	require.NoError(t, err)
	assert.Nil(t, payment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChargeExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(entity.PaymentKindCharge, "sub-1", "2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	exists, err := repo.ChargeExists(context.Background(), "sub-1", "2026-08")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListChargesByStatusBuildsInClause(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	now := time.Now().UTC()
	subjectRef := "sub-1"
	rows := sqlmock.NewRows(paymentRowColumns()).AddRow(
		uint64(1), subjectRef, int64(13000), entity.PaymentKindCharge, int32(0), entity.PaymentStatusOverdue,
		nil, nil, nil, "2026-08", nil, "", "{}", now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM payments").
		WithArgs(entity.PaymentKindCharge, entity.PaymentStatusPending, entity.PaymentStatusOverdue, "2026-08").
		WillReturnRows(rows)

	charges, err := repo.ListChargesByStatus(context.Background(), []int32{entity.PaymentStatusPending, entity.PaymentStatusOverdue}, "2026-08")
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.Equal(t, uint64(1), charges[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListChargesByStatusEmptyStatuses(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	charges, err := repo.ListChargesByStatus(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, charges)
}

func TestPaymentListAppliesFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	mock.ExpectQuery("SELECT (.+) FROM payments").
		WithArgs("sub-1", entity.PaymentStatusApproved, int32(50), int32(0)).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()))

	_, err = repo.List(context.Background(), PaymentFilter{
		SubjectRef: "sub-1",
		HasStatus:  true,
		Status:     entity.PaymentStatusApproved,
		Limit:      50,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
