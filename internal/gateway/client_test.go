package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/gramcheck/internal/core/correction"
)

type captured struct {
	path        string
	contentType string
	requestID   string
	body        map[string]any
}

func newTestServer(t *testing.T, status int, response any) (*Client, *captured) {
	t.Helper()
	got := &captured{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.requestID = r.Header.Get(HeaderRequestID)
		_ = json.NewDecoder(r.Body).Decode(&got.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL + "/")
	require.NoError(t, err)
	return client, got
}

func TestClient_CheckGrammar(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, map[string]any{
		"iframe": "<iframe/>",
		"results": []map[string]any{
			{"cell": "A1", "old_value": "teh", "new_value": "the", "is_reject": false},
			{"cell": "B2", "old_value": "a", "new_value": "b", "is_reject": true},
		},
	})

	res, err := client.CheckGrammar(context.Background(), "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, PathCheckGrammar, got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.NotEmpty(t, got.requestID)
	assert.Equal(t, "Sheet1", got.body["sheet_name"])

	assert.Equal(t, correction.ViewFragment("<iframe/>"), res.View)
	require.Len(t, res.Records, 2)
	assert.Equal(t, correction.Record{Cell: "B2", OldValue: "a", NewValue: "b", IsReject: true}, res.Records[1])
}

func TestClient_ShowCell(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, map[string]any{"iframe": "<v/>", "current_sheet_name": "S"})

	view, err := client.ShowCell(context.Background(), "C3")
	require.NoError(t, err)
	assert.Equal(t, PathShowCell, got.path)
	assert.Equal(t, "C3", got.body["cell"])
	assert.Equal(t, correction.ViewFragment("<v/>"), view)
}

func TestClient_ChangeCell(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, map[string]any{"iframe": "<changed/>"})

	view, err := client.ChangeCell(context.Background(), "A1", "teh", "the")
	require.NoError(t, err)
	assert.Equal(t, PathChangeCell, got.path)
	assert.Equal(t, map[string]any{"cell": "A1", "old_value": "teh", "new_value": "the"}, got.body)
	assert.Equal(t, correction.ViewFragment("<changed/>"), view)
}

func TestClient_SetRejectStatus(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, map[string]any{
		"correction_results": []map[string]any{{"cell": "A1", "old_value": "x", "new_value": "y", "is_reject": true}},
	})

	records, err := client.SetRejectStatus(context.Background(), "A1", true)
	require.NoError(t, err)
	assert.Equal(t, PathSetRejectStatus, got.path)
	assert.Equal(t, true, got.body["status"])
	require.Len(t, records, 1)
	assert.True(t, records[0].IsReject)
}

func TestClient_PostCell(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, map[string]any{"status": "ok"})

	ack, err := client.PostCell(context.Background(), "Sheet1", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, PathPostCell, got.path)
	assert.InDelta(t, 3, got.body["row"], 0)
	assert.Equal(t, "ok", ack["status"])
}

func TestClient_StatusError(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadRequest, map[string]any{"message": "Please upload a file first"})

	_, err := client.ShowCell(context.Background(), "A1")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Please upload a file first", se.Body)
}

func TestClient_StatusErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)

	_, err = client.ShowCell(context.Background(), "A1")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upstream down", se.Body)
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)

	_, err = client.ShowCell(context.Background(), "A1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client, err := New(srv.URL, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = client.ChangeCell(context.Background(), "A1", "a", "b")
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)

	_, err = New("://bad")
	assert.Error(t, err)
}

func TestClient_ShowSheet(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, map[string]any{
		"iframe":             "<stored/>",
		"current_sheet_name": "Sheet2",
		"correction_results": []map[string]any{{"cell": "C3", "old_value": "x", "new_value": "y", "is_reject": true}},
	})

	res, err := client.ShowSheet(context.Background(), "Sheet2")
	require.NoError(t, err)
	assert.Equal(t, PathShowSheet, got.path)
	assert.Equal(t, "Sheet2", got.body["sheet_name"])
	assert.Equal(t, correction.ViewFragment("<stored/>"), res.View)
	assert.Equal(t, []correction.Record{{Cell: "C3", OldValue: "x", NewValue: "y", IsReject: true}}, res.Records)
}

func TestClient_DownloadWorkbook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathDownload, r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="book.xlsx"`)
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := client.DownloadWorkbook(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "book.xlsx", name)
	assert.Equal(t, "PK\x03\x04", buf.String())
}

func TestClient_DownloadWorkbookStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = client.DownloadWorkbook(context.Background(), &buf)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Zero(t, buf.Len())
}

func TestNew_HTTPClientNotModified(t *testing.T) {
	own := &http.Client{Timeout: time.Minute}

	for _, opts := range [][]Option{
		{WithHTTPClient(own), WithTimeout(time.Second)},
		{WithTimeout(time.Second), WithHTTPClient(own)},
	} {
		client, err := New("http://localhost", opts...)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, own.Timeout)
		assert.Equal(t, time.Second, client.http.Timeout)
		assert.NotSame(t, own, client.http)
	}

	client, err := New("http://localhost", WithHTTPClient(own))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, client.http.Timeout)
}

func TestNew_NilHTTPClient(t *testing.T) {
	_, err := New("http://localhost", WithHTTPClient(nil))
	assert.ErrorIs(t, err, ErrNilHTTPClient)
}
