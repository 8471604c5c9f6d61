package goals

import (
	"context"
	"testing"
	"time"

	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", m)

	for _, bad := range []string{"", "2024-13", "03/2024", "2024-3-01"} {
		_, err := ParseMonth(bad)
		assert.True(t, domain.IsValidation(err), bad)
	}
}

func TestService_MonthInLocation(t *testing.T) {
	svc := NewService(storetest.NewSQLite(t), logger.Discard())
	// 01:30 UTC on April 1st is still March 31st in Brazil.
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 1, 30, 0, 0, time.UTC) }

	assert.Equal(t, "2024-04", svc.Month())

	brt := time.FixedZone("BRT", -3*60*60)
	assert.Equal(t, "2024-03", svc.WithLocation(brt).Month())
	assert.Equal(t, brt, svc.Location())

	metas, err := svc.Current(context.Background(), session.Session{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03", metas.ID)
}

func TestService_GetLazyDefault(t *testing.T) {
	ds := storetest.NewSQLite(t)
	svc := NewService(ds, logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	sess := session.Session{UserID: "u1"}

	months, err := svc.ListMonths(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, months)

	t.Run("Success - first view creates zero targets", func(t *testing.T) {
		metas, err := svc.Current(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, "2024-04", metas.ID)
		assert.True(t, metas.TotalSales.IsZero())
		assert.Equal(t, 0, metas.Visits)
		assert.NotNil(t, metas.ByPartner)

		months, err := svc.ListMonths(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-04"}, months)
	})

	t.Run("Success - update then get", func(t *testing.T) {
		in := models.NewMetas("2024-03")
		in.TotalSales = decimal.NewFromInt(50000)
		in.Visits = 20
		in.Calls = 40
		in.ByPartner[models.PartnerRoca] = decimal.NewFromInt(10000)

		_, err := svc.Update(ctx, sess, in)
		require.NoError(t, err)

		got, err := svc.Get(ctx, sess, "2024-03")
		require.NoError(t, err)
		assert.True(t, got.TotalSales.Equal(decimal.NewFromInt(50000)))
		assert.Equal(t, 20, got.Visits)
		assert.True(t, got.PartnerTarget(models.PartnerRoca).Equal(decimal.NewFromInt(10000)))
		assert.True(t, got.PartnerTarget(models.PartnerMGM).IsZero())

		months, err := svc.ListMonths(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-03", "2024-04"}, months)
	})

	t.Run("Error - negative target", func(t *testing.T) {
		in := models.NewMetas("2024-05")
		in.Visits = -1
		_, err := svc.Update(ctx, sess, in)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Error - unknown partner", func(t *testing.T) {
		in := models.NewMetas("2024-05")
		in.ByPartner["Tigre"] = decimal.NewFromInt(1)
		_, err := svc.Update(ctx, sess, in)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Goals are per user", func(t *testing.T) {
		months, err := svc.ListMonths(ctx, session.Session{UserID: "u2"})
		require.NoError(t, err)
		assert.Empty(t, months)
	})
}
