package main

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/oracle"
	"github.com/JvdW123/shelf-accuracy/internal/pipeline"
)

type stubGateway struct{}

func (stubGateway) Invoke(ctx context.Context, req oracle.Request) (string, error) {
	return "", context.Canceled
}

func testServerConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Report: config.ReportConfig{OutDir: t.TempDir(), SheetName: "SKU Data", FontName: "Arial", FontSize: 10},
	}
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("SKU Data")
	require.NoError(t, err)
	hr := sheet.AddRow()
	hr.AddCell().SetString("Brand")
	hr.AddCell().SetString("Product Name")
	dr := sheet.AddRow()
	dr.AddCell().SetString("Innocent")
	dr.AddCell().SetString("Smooth OJ")

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile(name, name+".xlsx")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postEvaluate(t *testing.T, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	runner := pipeline.NewRunner(testServerConfig(t), stubGateway{})
	req := httptest.NewRequest(http.MethodPost, "/evaluate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handleEvaluate(context.Background(), runner, rec, req)
	return rec
}

func TestHandleEvaluate_MissingFiles(t *testing.T) {
	body, contentType := multipartBody(t, nil, map[string]string{"retailer": "Tesco", "city": "London"})
	rec := postEvaluate(t, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "reference file is required")
}

func TestHandleEvaluate_MissingMetadata(t *testing.T) {
	wb := workbookBytes(t)
	body, contentType := multipartBody(t,
		map[string][]byte{"reference": wb, "generated": wb},
		map[string]string{"city": "London"})
	rec := postEvaluate(t, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "retailer and city are required")
}

func TestHandleEvaluate_BadNarrativeMode(t *testing.T) {
	wb := workbookBytes(t)
	body, contentType := multipartBody(t,
		map[string][]byte{"reference": wb, "generated": wb},
		map[string]string{"retailer": "Tesco", "city": "London", "narrative": "turbo"})
	rec := postEvaluate(t, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluate_Accepted(t *testing.T) {
	wb := workbookBytes(t)
	body, contentType := multipartBody(t,
		map[string][]byte{"reference": wb, "generated": wb},
		map[string]string{"retailer": "Tesco", "city": "London", "currency": "GBP"})
	rec := postEvaluate(t, body, contentType)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "accepted")
	assert.Contains(t, rec.Body.String(), "run_id")
}

func TestHandleEvaluate_UnparseableWorkbook(t *testing.T) {
	wb := workbookBytes(t)
	body, contentType := multipartBody(t,
		map[string][]byte{"reference": wb, "generated": []byte("not an xlsx")},
		map[string]string{"retailer": "Tesco", "city": "London"})
	rec := postEvaluate(t, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
