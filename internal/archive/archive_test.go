package archive

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bloodbank/internal/blob"
	"bloodbank/internal/core"
)

var fixedNow = time.Date(2024, time.May, 4, 10, 0, 0, 0, time.UTC)

func fixedClock() core.ClockFunc {
	return func() time.Time { return fixedNow }
}

func seededService(t *testing.T) *core.Service {
	t.Helper()
	svc := core.NewInMemoryService(core.WithClock(fixedClock()))
	require.NoError(t, svc.Load(context.Background()))
	for _, g := range []string{"A+", "A+", "O-"} {
		_, err := svc.AddDonor(context.Background(), core.PersonInfo{FirstName: "d", LastName: g, BloodGroup: g})
		require.NoError(t, err)
	}
	_, err := svc.RequestUnit(context.Background(), core.PersonInfo{FirstName: "Ann", LastName: "Lee", BloodGroup: "A+", MobileNo: "0301"}, "surgery")
	require.NoError(t, err)
	_, err = svc.RequestUnit(context.Background(), core.PersonInfo{FirstName: "Bo", LastName: "Park", BloodGroup: "B-", MobileNo: "0302"}, "anemia")
	require.NoError(t, err)
	return svc
}

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := seededService(t)
	a := New(blob.NewMemory(), "vault", fixedClock())
	assert.Equal(t, "vault/", a.Prefix())

	info, err := a.Archive(ctx, svc.Snapshot())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Key, "vault/snapshots/20240504T100000Z-"), info.Key)
	assert.Equal(t, "3", info.Metadata["units"])

	listed, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, info.Key, listed[0].Key)

	got, err := a.Fetch(ctx, info.Key)
	require.NoError(t, err)
	assert.Equal(t, info.Metadata["archive-id"], got.ID)
	assert.True(t, got.CreatedAt.Equal(fixedNow))
	assert.Len(t, got.Donors, 3)
	assert.Len(t, got.Recipients, 2)
	assert.Len(t, got.Units, 3)
}

func TestFetchUnknownKey(t *testing.T) {
	a := New(blob.NewMemory(), "", nil)
	_, err := a.Fetch(context.Background(), "archives/snapshots/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Fetch(context.Background(), "elsewhere/file.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveOnS3Mock(t *testing.T) {
	a := New(blob.NewMockS3ForTests(), "", fixedClock())
	info, err := a.Archive(context.Background(), core.Snapshot{})
	require.NoError(t, err)
	got, err := a.Fetch(context.Background(), info.Key)
	require.NoError(t, err)
	assert.Empty(t, got.Units)
}

func TestRenderInventoryReport(t *testing.T) {
	svc := seededService(t)
	data, err := RenderInventoryReport(InventoryFromService(svc))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStock, SheetShortage, SheetUnits, SheetWaiting}, f.GetSheetList())

	stock, err := f.GetRows(SheetStock)
	require.NoError(t, err)
	require.Len(t, stock, 9)
	assert.Equal(t, []string{"A+", "1"}, stock[1])
	assert.Equal(t, []string{"O-", "1"}, stock[8])

	shortage, err := f.GetRows(SheetShortage)
	require.NoError(t, err)
	assert.Equal(t, []string{"B-", "1"}, shortage[4])

	units, err := f.GetRows(SheetUnits)
	require.NoError(t, err)
	require.Len(t, units, 4)
	assert.Equal(t, "ISSUED", units[1][5])
	assert.Equal(t, "1", units[1][6])
	assert.Equal(t, "2024-06-15", units[1][4])

	waiting, err := f.GetRows(SheetWaiting)
	require.NoError(t, err)
	require.Len(t, waiting, 2)
	assert.Equal(t, []string{"2", "Bo Park", "B-", "anemia", "0302"}, waiting[1])
}

func TestArchiveReport(t *testing.T) {
	ctx := context.Background()
	a := New(blob.NewMemory(), "", fixedClock())
	info, err := a.ArchiveReport(ctx, InventoryFromService(seededService(t)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Key, "archives/reports/inventory-20240504T100000Z-"), info.Key)
	assert.Equal(t, XLSXContentType, info.ContentType)

	reports, err := a.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	snapshots, err := a.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}
