package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milksync/internal/core"
	"milksync/internal/sheets/memory"
)

type call struct {
	op     string
	rng    string
	values []core.SheetRow
}

// fakeClient records every collaborator call and fails on demand.
type fakeClient struct {
	calls     []call
	rows      []core.SheetRow
	writeErr  error
	appendErr error
	readErr   error
}

func (f *fakeClient) WriteRange(_ context.Context, rng string, values []core.SheetRow) error {
	f.calls = append(f.calls, call{"write", rng, values})
	return f.writeErr
}

func (f *fakeClient) AppendRows(_ context.Context, rng string, values []core.SheetRow) error {
	f.calls = append(f.calls, call{"append", rng, values})
	return f.appendErr
}

func (f *fakeClient) ReadRange(_ context.Context, rng string) ([]core.SheetRow, error) {
	f.calls = append(f.calls, call{"read", rng, nil})
	return f.rows, f.readErr
}

type fakePublisher struct {
	published []core.DeliveryRecord
	err       error
}

func (p *fakePublisher) PublishDeliverySynced(_ context.Context, rec core.DeliveryRecord) error {
	p.published = append(p.published, rec)
	return p.err
}

func ptr[T any](v T) *T { return &v }

func amy() *core.DeliveryRecord {
	return &core.DeliveryRecord{
		CustomerID:   int64(1),
		CustomerName: "Amy",
		Date:         "2024-03-05",
		MilkType:     "Full",
		Quantity:     2.0,
		MilkRate:     50.0,
		MilkTotal:    100.0,
	}
}

func bob() *core.DeliveryRecord {
	return &core.DeliveryRecord{
		CustomerID:   int64(2),
		CustomerName: "Bob",
		Date:         "2024-04-01",
		MilkType:     "Skim",
		Quantity:     1.0,
		MilkRate:     55.0,
		MilkTotal:    55.0,
	}
}

func exampleRows() []core.SheetRow {
	return []core.SheetRow{
		{1, "Amy", "2024-03-05", "Full", 2, 50, 100},
		{2, "Bob", "2024-04-01", "Skim", 1, 55, 55},
	}
}

func TestSync_NilRecordMakesNoCalls(t *testing.T) {
	client := &fakeClient{}
	svc := NewSyncService(client, DefaultLayout(), nil)

	err := svc.Sync(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, client.calls)
}

func TestSync_WritesHeaderThenAppendsRow(t *testing.T) {
	client := &fakeClient{}
	pub := &fakePublisher{}
	svc := NewSyncService(client, DefaultLayout(), pub)

	require.NoError(t, svc.Sync(context.Background(), amy()))

	require.Len(t, client.calls, 2)
	assert.Equal(t, "write", client.calls[0].op)
	assert.Equal(t, "Sheet1!A1:G1", client.calls[0].rng)
	assert.Equal(t, []core.SheetRow{{"CustomerID", "Customer Name", "Date", "Milk Type", "Quantity", "Milk Rate", "Milk Total"}}, client.calls[0].values)

	assert.Equal(t, "append", client.calls[1].op)
	assert.Equal(t, "Sheet1!A2:G", client.calls[1].rng)
	assert.Equal(t, []core.SheetRow{{int64(1), "Amy", "2024-03-05", "Full", 2.0, 50.0, 100.0}}, client.calls[1].values)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "Amy", pub.published[0].CustomerName)
}

func TestSync_AppendsValuesAsSent(t *testing.T) {
	client := &fakeClient{}
	svc := NewSyncService(client, DefaultLayout(), nil)

	rec := &core.DeliveryRecord{CustomerID: "12", Date: "2024-03-05", Quantity: "2", MilkTotal: json.Number("100.50")}
	require.NoError(t, svc.Sync(context.Background(), rec))

	require.Len(t, client.calls, 2)
	assert.Equal(t, []core.SheetRow{{"12", nil, "2024-03-05", nil, "2", nil, json.Number("100.50")}}, client.calls[1].values)
	assert.Equal(t, []core.SheetRow{core.Normalize(core.DeliverySchema, *rec)}, client.calls[1].values)
}

func TestSync_HeaderFailureSkipsAppend(t *testing.T) {
	client := &fakeClient{writeErr: errors.New("403 forbidden")}
	pub := &fakePublisher{}
	svc := NewSyncService(client, DefaultLayout(), pub)

	err := svc.Sync(context.Background(), amy())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSync)
	assert.Len(t, client.calls, 1)
	assert.Empty(t, pub.published)
}

func TestSync_AppendFailureLeavesHeaderWritten(t *testing.T) {
	client := &fakeClient{appendErr: errors.New("quota exceeded")}
	svc := NewSyncService(client, DefaultLayout(), nil)

	err := svc.Sync(context.Background(), amy())
	assert.ErrorIs(t, err, core.ErrSync)
	require.Len(t, client.calls, 2)
	assert.Equal(t, "write", client.calls[0].op)
}

func TestSync_PublishFailureDoesNotFailSync(t *testing.T) {
	client := &fakeClient{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewSyncService(client, DefaultLayout(), pub)

	assert.NoError(t, svc.Sync(context.Background(), amy()))
	assert.Len(t, pub.published, 1)
}

func TestSync_TwiceAppendsInOrderWithSingleHeader(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	layout := DefaultLayout()
	svc := NewSyncService(store, layout, nil)

	require.NoError(t, svc.Sync(ctx, amy()))
	require.NoError(t, svc.Sync(ctx, bob()))

	all, err := store.ReadRange(ctx, "Sheet1!A1:G")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, core.DeliverySchema.Header(), all[0])
	assert.Equal(t, "Amy", all[1][1])
	assert.Equal(t, "Bob", all[2][1])

	calls := store.Calls()
	assert.Equal(t, 2, calls.Writes)
	assert.Equal(t, 2, calls.Appends)
}

func TestNewSummaryQuery(t *testing.T) {
	tests := []struct {
		name     string
		month    any
		year     any
		customer any
		want     SummaryQuery
		wantErr  bool
	}{
		{name: "numbers", month: 3.0, year: 2024.0, want: SummaryQuery{Month: 3, Year: 2024}},
		{name: "strings", month: "3", year: "2024", customer: "2", want: SummaryQuery{Month: 3, Year: 2024, CustomerID: ptr(2)}},
		{name: "blank customer", month: "3", year: "2024", customer: "", want: SummaryQuery{Month: 3, Year: 2024}},
		{name: "missing month", month: nil, year: 2024.0, wantErr: true},
		{name: "empty year", month: 3.0, year: "", wantErr: true},
		{name: "zero month", month: 0.0, year: 2024.0, wantErr: true},
		{name: "false year", month: 3.0, year: false, wantErr: true},
		{name: "non numeric month", month: "march", year: 2024.0, want: SummaryQuery{Year: 2024, MatchNone: true}},
		{name: "string zero month", month: "0", year: 2024.0, want: SummaryQuery{Year: 2024, MatchNone: true}},
		{name: "month out of range", month: "13", year: "2024", want: SummaryQuery{Month: 13, Year: 2024, MatchNone: true}},
		{name: "leading digits", month: "3rd", year: 2024.0, want: SummaryQuery{Month: 3, Year: 2024}},
		{name: "non numeric customer", month: 3.0, year: 2024.0, customer: "bob", want: SummaryQuery{Month: 3, Year: 2024, CustomerID: ptr(0), MatchNone: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSummaryQuery(tt.month, tt.year, tt.customer)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchSummaries_MissingPeriodMakesNoReads(t *testing.T) {
	client := &fakeClient{rows: exampleRows()}
	svc := NewSummaryService(client, DefaultLayout())

	for _, q := range []SummaryQuery{{Year: 2024}, {Month: 3}, {}} {
		_, err := svc.FetchSummaries(context.Background(), q)
		assert.ErrorIs(t, err, core.ErrValidation)
	}
	assert.Empty(t, client.calls)
}

func TestFetchSummaries_MonthYear(t *testing.T) {
	client := &fakeClient{rows: exampleRows()}
	svc := NewSummaryService(client, DefaultLayout())

	got, err := svc.FetchSummaries(context.Background(), SummaryQuery{Month: 3, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, []core.SheetRow{{1, "Amy", "2024-03-05", "Full", 2, 50, 100}}, got)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "read", client.calls[0].op)
	assert.Equal(t, "Sheet1!A2:G", client.calls[0].rng)
}

func TestFetchSummaries_UnmatchableQueryReadsAndReturnsEmpty(t *testing.T) {
	client := &fakeClient{rows: exampleRows()}
	svc := NewSummaryService(client, DefaultLayout())

	q, err := NewSummaryQuery(3.0, 2024.0, "abc")
	require.NoError(t, err)

	got, err := svc.FetchSummaries(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "read", client.calls[0].op)
}

func TestFetchSummaries_CustomerWithoutMatchIsEmpty(t *testing.T) {
	client := &fakeClient{rows: exampleRows()}
	svc := NewSummaryService(client, DefaultLayout())

	got, err := svc.FetchSummaries(context.Background(), SummaryQuery{Month: 3, Year: 2024, CustomerID: ptr(2)})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchSummaries_ReadError(t *testing.T) {
	client := &fakeClient{readErr: errors.New("network down")}
	svc := NewSummaryService(client, DefaultLayout())

	_, err := svc.FetchSummaries(context.Background(), SummaryQuery{Month: 3, Year: 2024})
	assert.ErrorIs(t, err, core.ErrFetch)
}

func TestFilterRows(t *testing.T) {
	rows := []core.SheetRow{
		{"1", "Amy", "2024-03-05", "Full", "2", "50", "100"},
		{"2", "Bob", "not a date", "Skim"},
		{"2", "Bob", "2024-03-09", "Skim", "1", "55", "55"},
		{"1", "Amy"},
		{"x", "Nobody", "2024-03-10"},
		{"1", "Amy", "2023-03-05", "Full"},
		{1.0, "Amy", "03/28/2024", "Full"},
		{},
	}
	schema := core.DeliverySchema

	var invalid []int
	all := FilterRows(rows, schema, SummaryQuery{Month: 3, Year: 2024}, func(i int, _ core.SheetRow, err error) {
		assert.ErrorIs(t, err, core.ErrDateParse)
		invalid = append(invalid, i)
	})
	assert.Equal(t, []core.SheetRow{rows[0], rows[2], rows[4], rows[6]}, all)
	assert.Equal(t, []int{1, 3, 7}, invalid)

	id := 1
	amyOnly := FilterRows(rows, schema, SummaryQuery{Month: 3, Year: 2024, CustomerID: &id}, nil)
	assert.Equal(t, []core.SheetRow{rows[0], rows[6]}, amyOnly)

	none := FilterRows(nil, schema, SummaryQuery{Month: 3, Year: 2024}, nil)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFilterRows_IsSubsequenceInOrder(t *testing.T) {
	var rows []core.SheetRow
	for d := 1; d <= 28; d++ {
		month := "03"
		if d%3 == 0 {
			month = "04"
		}
		rows = append(rows, core.SheetRow{d % 4, "c", fmt.Sprintf("2024-%s-%02d", month, d)})
	}
	got := FilterRows(rows, core.DeliverySchema, SummaryQuery{Month: 3, Year: 2024}, nil)

	j := 0
	for _, r := range rows {
		if j < len(got) && r[2] == got[j][2] {
			j++
		}
	}
	assert.Equal(t, len(got), j, "result is not an ordered subsequence")
	for _, r := range got {
		assert.Contains(t, r[2], "2024-03-")
	}
}

func TestSyncThenFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	layout := DefaultLayout()
	syncer := NewSyncService(store, layout, nil)
	summaries := NewSummaryService(store, layout)

	require.NoError(t, syncer.Sync(ctx, amy()))
	require.NoError(t, syncer.Sync(ctx, bob()))

	got, err := summaries.FetchSummaries(ctx, SummaryQuery{Month: 4, Year: 2024})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0][1])
}
