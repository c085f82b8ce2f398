package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

func TestLateFeeCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLateFeeRepository(db)
	mock.ExpectExec("INSERT INTO late_fees").WillReturnResult(sqlmock.NewResult(12, 1))

	paymentID := uint64(3)
	fee := &entity.LateFee{
		PaymentID:           &paymentID,
		SubjectRef:          "sub-1",
		Period:              "2026-08",
		OriginalAmountCents: 13000,
		FeeAmountCents:      650,
		FeeType:             entity.LateFeeTypePercentage,
		Rate:                5,
		DaysOverdue:         11,
		AppliedAt:           time.Now().UTC(),
	}

	require.NoError(t, repo.Create(context.Background(), fee))
	assert.Equal(t, uint64(12), fee.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLateFeeExistsForPeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLateFeeRepository(db)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("sub-1", "2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	exists, err := repo.ExistsForPeriod(context.Background(), "sub-1", "2026-08")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLateFeeListForPeriodNullPaymentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLateFeeRepository(db)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM late_fees").
		WithArgs("2026-08").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "payment_id", "subject_ref", "period", "original_amount_cents", "fee_amount_cents",
			"fee_type", "rate", "days_overdue", "applied_at",
		}).AddRow(uint64(1), nil, "sub-1", "2026-08", int64(13000), int64(650), entity.LateFeeTypePercentage, 5.0, int32(11), now))

	fees, err := repo.ListForPeriod(context.Background(), "2026-08")
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Nil(t, fees[0].PaymentID)
	assert.Equal(t, int64(650), fees[0].FeeAmountCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}
