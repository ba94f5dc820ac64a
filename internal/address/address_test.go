package address

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperror"
)

const savedID = "3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f"

var addressColumns = []string{
	"id", "user_id", "name", "phone", "address", "city", "state", "pincode", "is_default", "created_at", "updated_at",
}

func TestInfo_Flatten(t *testing.T) {
	full := Info{Address: "1 Main St", City: "Springfield", State: "IL", Pincode: "62704"}
	assert.Equal(t, "1 Main St, Springfield, IL - 62704", full.Flatten())

	bare := Info{Address: "1 Main St"}
	assert.Equal(t, "1 Main St, ,  - ", bare.Flatten())
}

func TestListByUser_DefaultFirst(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY is_default DESC, created_at DESC")).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(addressColumns).
			AddRow("a1", "user-1", "Ada", "555", "1 Main St", "", "", "", true, now.Add(-time.Hour), now).
			AddRow("a2", "user-1", "Ada", "555", "2 Side St", "Paris", "", "75001", false, now, now))

	out, err := NewPostgresRepository(mock).ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].IsDefault)
	assert.Equal(t, "Paris", out[1].City)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotOwned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1::uuid AND user_id = $2::uuid")).
		WithArgs(savedID, "user-2").
		WillReturnRows(pgxmock.NewRows(addressColumns))

	_, err = Resolve(context.Background(), NewPostgresRepository(mock), "user-2", savedID)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_MalformedIDSkipsQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = Resolve(context.Background(), NewPostgresRepository(mock), "user-1", "abc")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, "selected address was not found", apperror.Message(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd_FirstBecomesDefault(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO billing_addresses")).
		WithArgs(pgxmock.AnyArg(), "user-1", "Ada", "555", "1 Main St", "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"is_default", "created_at", "updated_at"}).AddRow(true, now, now))

	svc := NewService(NewPostgresRepository(mock), mock, zaptest.NewLogger(t))
	a, err := svc.Add(context.Background(), "user-1", Info{Name: " Ada ", Phone: "555", Address: "1 Main St"})
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
	assert.NotEmpty(t, a.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd_Validation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := NewService(NewPostgresRepository(mock), mock, zaptest.NewLogger(t))
	_, err = svc.Add(context.Background(), "user-1", Info{Name: "Ada", Phone: "  "})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
