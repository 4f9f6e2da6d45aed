package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/review"
	"github.com/colonyops/gramcheck/internal/data/db"
	"github.com/colonyops/gramcheck/internal/data/stores"
	"github.com/colonyops/gramcheck/internal/gateway"
	"github.com/colonyops/gramcheck/internal/sheet"
)

var testReplacements = map[string]string{
	"teh":     "the",
	"recieve": "receive",
}

type fixture struct {
	srv     *Server
	http    *httptest.Server
	wb      *sheet.Workbook
	history *stores.HistoryStore
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet("Draft")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetName("Sheet1", "Drafts old"))
	_, err = f.NewSheet("Review")
	require.NoError(t, err)

	for cell, v := range map[string]string{
		"A1": "Name", "B1": "Note",
		"A2": "teh cat", "B2": "ok",
		"A3": "recieve it", "B3": "fine",
	} {
		require.NoError(t, f.SetCellValue("Review", cell, v))
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()

	wb, err := sheet.Open(writeWorkbook(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	history := stores.NewHistoryStore(database)

	if opts.IgnoreSheets == nil {
		opts.IgnoreSheets = []string{"Draft*"}
	}
	if opts.AppliedColor == "" {
		opts.AppliedColor = "FF0000"
	}

	srv, err := New(context.Background(), wb, history, NewReplacementChecker(testReplacements), opts, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return fixture{srv: srv, http: ts, wb: wb, history: history}
}

func (f fixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.http.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestNew_SelectsFirstVisibleSheet(t *testing.T) {
	f := newFixture(t, Options{})
	assert.Equal(t, "Review", f.srv.CurrentSheet())
}

func TestNew_InvalidIgnorePattern(t *testing.T) {
	wb, err := sheet.Open(writeWorkbook(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	_, err = New(context.Background(), wb, nil, nil, Options{IgnoreSheets: []string{"[a-"}}, zerolog.Nop())
	assert.Error(t, err)
}

func TestCheckGrammar(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathCheckGrammar, correction.CheckGrammarRequest{SheetName: "Review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(gateway.HeaderRequestID))

	body := decodeBody[correction.CheckGrammarResponse](t, resp)
	assert.Equal(t, []correction.Record{
		{Cell: "A2", OldValue: "teh cat", NewValue: "the cat"},
		{Cell: "A3", OldValue: "recieve it", NewValue: "receive it"},
	}, body.Results)
	assert.Contains(t, body.IFrame, `<table class="sheet" data-sheet="Review">`)

	rec, err := f.history.GetWorkbook(context.Background(), f.wb.Path())
	require.NoError(t, err)
	entries, err := f.history.ListSheet(context.Background(), rec.ID, "Review")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCheckGrammar_ReplacesHistory(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathCheckGrammar, correction.CheckGrammarRequest{SheetName: "Review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.post(t, gateway.PathSetRejectStatus, correction.SetRejectStatusRequest{Cell: "A2", Status: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, gateway.PathCheckGrammar, correction.CheckGrammarRequest{SheetName: "Review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[correction.CheckGrammarResponse](t, resp)
	for _, r := range body.Results {
		assert.False(t, r.IsReject, r.Cell)
	}
}

func TestCheckGrammar_Errors(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name  string
		sheet string
		code  int
	}{
		{"unknown sheet", "Missing", http.StatusNotFound},
		{"ignored sheet", "Draft", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.post(t, gateway.PathCheckGrammar, correction.CheckGrammarRequest{SheetName: tt.sheet})
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(f.http.URL+gateway.PathCheckGrammar, "application/json", bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Contains(t, body.Message, "decode request")
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(f.http.URL + gateway.PathCheckGrammar)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestShowCell(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathShowCell, correction.ShowCellRequest{Cell: "b3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[correction.ViewResponse](t, resp)
	assert.Equal(t, "Review", body.CurrentSheetName)
	assert.Contains(t, body.IFrame, `<td class="active">fine</td>`)

	resp = f.post(t, gateway.PathShowCell, correction.ShowCellRequest{Cell: "not a cell"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShowCell_OnlineURL(t *testing.T) {
	f := newFixture(t, Options{
		OnlineURL: "https://contoso-my.sharepoint.com/:x:/r/personal/u/Documents/book.xlsx?d=w40424d5c4d654f2b841a31e0b6700f2f",
	})

	resp := f.post(t, gateway.PathShowCell, correction.ShowCellRequest{Cell: "A2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[correction.ViewResponse](t, resp)
	assert.Contains(t, body.IFrame, "<iframe")
	assert.Contains(t, body.IFrame, "ActiveCell=&#39;Review&#39;!A2")
}

func TestChangeCell(t *testing.T) {
	for _, highlight := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "highlighted"}[highlight], func(t *testing.T) {
			f := newFixture(t, Options{HighlightApplied: highlight})

			resp := f.post(t, gateway.PathCheckGrammar, correction.CheckGrammarRequest{SheetName: "Review"})
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp = f.post(t, gateway.PathChangeCell, correction.ChangeCellRequest{Cell: "A2", OldValue: "teh cat", NewValue: "the cat"})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body := decodeBody[correction.ViewResponse](t, resp)
			assert.Contains(t, body.IFrame, `<td class="active">the cat</td>`)

			reopened, err := sheet.Open(f.wb.Path())
			require.NoError(t, err)
			defer func() { _ = reopened.Close() }()
			v, err := reopened.Cell("Review", "A2")
			require.NoError(t, err)
			assert.Equal(t, "the cat", v)

			rec, err := f.history.GetWorkbook(context.Background(), f.wb.Path())
			require.NoError(t, err)
			entries, err := f.history.ListSheet(context.Background(), rec.ID, "Review")
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, 2, entries[0].Row)
		})
	}
}

func TestChangeCell_SameValueDoesNotWrite(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathChangeCell, correction.ChangeCellRequest{Cell: "B2", OldValue: "changed", NewValue: "changed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	v, err := f.wb.Cell("Review", "B2")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestSetRejectStatus(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathCheckGrammar, correction.CheckGrammarRequest{SheetName: "Review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, gateway.PathSetRejectStatus, correction.SetRejectStatusRequest{Cell: "A3", Status: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[correction.SetRejectStatusResponse](t, resp)
	assert.Equal(t, []correction.Record{
		{Cell: "A2", OldValue: "teh cat", NewValue: "the cat"},
		{Cell: "A3", OldValue: "recieve it", NewValue: "receive it", IsReject: true},
	}, body.CorrectionResults)

	resp = f.post(t, gateway.PathSetRejectStatus, correction.SetRejectStatusRequest{Cell: "A3", Status: false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody[correction.SetRejectStatusResponse](t, resp)
	for _, r := range body.CorrectionResults {
		assert.False(t, r.IsReject, r.Cell)
	}
}

func TestPostCell(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathPostCell, correction.PostCellRequest{SheetName: "Review", Row: 1, Col: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"status": "ok", "cell": "C2"}, decodeBody[map[string]any](t, resp))

	resp = f.post(t, gateway.PathPostCell, correction.PostCellRequest{Row: -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartShutdown(t *testing.T) {
	f := newFixture(t, Options{Addr: "127.0.0.1:0"})

	assert.Empty(t, f.srv.Addr())
	require.NoError(t, f.srv.Start(context.Background()))
	assert.NotEmpty(t, f.srv.Addr())

	resp, err := http.Post("http://"+f.srv.Addr()+gateway.PathPostCell, "application/json", bytes.NewReader([]byte(`{"row":0,"col":0}`)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, f.srv.Shutdown(context.Background()))
}

// TestReviewRoundTrip drives a review session through the HTTP client
// against the server.
func TestReviewRoundTrip(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	client, err := gateway.New(f.http.URL)
	require.NoError(t, err)
	state := review.New(client, nil, zerolog.Nop())

	_, invalid, err := state.CheckGrammar(ctx, "Review")
	require.NoError(t, err)
	assert.Empty(t, invalid)
	assert.Equal(t, 2, state.Snapshot().Len())

	set, err := state.Reject(ctx, "A3")
	require.NoError(t, err)
	assert.Len(t, set.Rejected(), 1)

	_, err = state.Apply(ctx, "A3")
	assert.ErrorIs(t, err, correction.ErrNotApplicable)

	_, err = state.Apply(ctx, "A2")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Snapshot().Len())

	set, err = state.UndoReject(ctx, "A3")
	require.NoError(t, err)
	assert.Len(t, set.Pending(), 1)

	v, err := f.wb.Cell("Review", "A2")
	require.NoError(t, err)
	assert.Equal(t, "the cat", v)
}

func TestShowSheet_ReturnsStoredFlags(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathCheckGrammar, correction.CheckGrammarRequest{SheetName: "Review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.post(t, gateway.PathSetRejectStatus, correction.SetRejectStatusRequest{Cell: "A3", Status: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, gateway.PathShowSheet, correction.ShowSheetRequest{SheetName: "Review"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[correction.ShowSheetResponse](t, resp)
	assert.Equal(t, "Review", body.CurrentSheetName)
	assert.Contains(t, body.IFrame, `data-sheet="Review"`)
	assert.Equal(t, []correction.Record{
		{Cell: "A2", OldValue: "teh cat", NewValue: "the cat"},
		{Cell: "A3", OldValue: "recieve it", NewValue: "receive it", IsReject: true},
	}, body.CorrectionResults)
}

func TestShowSheet_EmptyNameUsesCurrent(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathShowSheet, correction.ShowSheetRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[correction.ShowSheetResponse](t, resp)
	assert.Equal(t, "Review", body.CurrentSheetName)
	assert.Empty(t, body.CorrectionResults)
	assert.NotNil(t, body.CorrectionResults)
}

func TestShowSheet_Errors(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathShowSheet, correction.ShowSheetRequest{SheetName: "Missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.post(t, gateway.PathShowSheet, correction.ShowSheetRequest{SheetName: "Draft"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Review", f.srv.CurrentSheet())
}

func TestDownload(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.post(t, gateway.PathChangeCell, correction.ChangeCellRequest{Cell: "B2", OldValue: "ok", NewValue: "okay"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	client, err := gateway.New(f.http.URL)
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := client.DownloadWorkbook(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "book.xlsx", name)

	xf, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = xf.Close() }()
	v, err := xf.GetCellValue("Review", "B2")
	require.NoError(t, err)
	assert.Equal(t, "okay", v)
}

func TestLoadAfterRestartKeepsRejects(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	client, err := gateway.New(f.http.URL)
	require.NoError(t, err)

	first := review.New(client, nil, zerolog.Nop())
	_, _, err = first.CheckGrammar(ctx, "Review")
	require.NoError(t, err)
	_, err = first.Reject(ctx, "A3")
	require.NoError(t, err)

	second := review.New(client, nil, zerolog.Nop())
	_, _, err = second.Load(ctx, "Review")
	require.NoError(t, err)

	st, ok := second.Status("A3")
	require.True(t, ok)
	assert.Equal(t, correction.StatusRejected, st)
	assert.Len(t, second.Snapshot().Pending(), 1)
}
