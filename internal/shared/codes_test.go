package shared

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDocumentCodeBumpsSequence(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO document_sequences`).
		WithArgs(CodePrefixReceipt, 2025).
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(int64(7)))

	code, err := NextDocumentCode(context.Background(), mock, CodePrefixReceipt, at)
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2025-0007", code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextDocumentCodeWrapsQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO document_sequences`).
		WithArgs(CodePrefixOrder, 2025).
		WillReturnError(assert.AnError)

	_, err = NextDocumentCode(context.Background(), mock, CodePrefixOrder, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "ORD-2025")
}
