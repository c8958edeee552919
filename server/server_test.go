package server

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/javajack/xlparse"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testConfig = `
sheet: Sheet1
skip_header_lines: 1
columns:
  - {name: name, type: string}
  - {name: qty, type: long}
`

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func postParse(t *testing.T, s *Server, file []byte, config string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "book.xlsx")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	if config != "" {
		require.NoError(t, mw.WriteField("config", config))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func newTestServer(t *testing.T, config string) *Server {
	t.Helper()
	var cfg *xlparse.Config
	if config != "" {
		var err error
		cfg, err = xlparse.ParseConfig([]byte(config))
		require.NoError(t, err)
	}
	return New(cfg, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestParse(t *testing.T) {
	s := newTestServer(t, testConfig)
	book := workbook(t, []any{"name", "qty"}, []any{"apple", 3}, []any{"pear", 4})

	rec := postParse(t, s, book, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []Column{{Name: "name", Type: "string"}, {Name: "qty", Type: "long"}}, resp.Columns)
	assert.Equal(t, [][]any{{"apple", float64(3)}, {"pear", float64(4)}}, resp.Records)
}

func TestParse_RequestConfig(t *testing.T) {
	s := newTestServer(t, testConfig)
	book := workbook(t, []any{"name", "qty"}, []any{"apple", 3})

	rec := postParse(t, s, book, `
sheet: Sheet1
columns:
  - {name: header, type: string}
`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"columns":[{"name":"header","type":"string"}],"records":[["name"],["apple"]]}`, rec.Body.String())
}

func TestParse_EmptySheet(t *testing.T) {
	s := newTestServer(t, testConfig)
	rec := postParse(t, s, workbook(t, []any{"name", "qty"}), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestParse_Failures(t *testing.T) {
	book := workbook(t, []any{"name", "qty"}, []any{"apple", "many"})

	tests := []struct {
		name   string
		server string
		file   []byte
		config string
		status int
		msg    string
	}{
		{"no config", "", book, "", http.StatusBadRequest, "config is required"},
		{"bad config", "", book, "columns: [", http.StatusBadRequest, ""},
		{"no file", testConfig, nil, "", http.StatusBadRequest, "file is required"},
		{"not a workbook", testConfig, []byte("plain text"), "", http.StatusBadRequest, ""},
		{"missing sheet", "sheet: Nope\ncolumns: [{name: a, type: string}]", book, "", http.StatusBadRequest, "not found sheet"},
		{"convert error", testConfig, book, "", http.StatusUnprocessableEntity, "convert error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postParse(t, newTestServer(t, tt.server), tt.file, tt.config)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			if tt.msg != "" {
				assert.Contains(t, resp.Error, tt.msg)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(&xlparse.ConfigError{Column: "a", Err: xlparse.ErrInvalidOption}))
	assert.Equal(t, http.StatusBadRequest, statusOf(fmt.Errorf("sheet x: %w", xlparse.ErrSheetNotFound)))
	assert.Equal(t, http.StatusBadRequest, statusOf(&badWorkbookError{errors.New("zip: not a valid zip file")}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(fmt.Errorf("sheet: %w", &xlparse.CellError{Column: "a", Err: errors.New("boom")})))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("disk full")))
}
