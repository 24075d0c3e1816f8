package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"

	"github.com/canopyforms/dd1750/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.TemplateDir = t.TempDir()
	cfg.MaxFileSize = 1024 * 1024

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

// multipartBody builds a multipart request body with one file field and
// optional plain fields.
func multipartBody(t *testing.T, fileField, fileName string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	return &buf, w.FormDataContentType()
}

// pdfBytes builds a one-page Letter PDF with the given text lines.
func pdfBytes(t *testing.T, lines ...string) []byte {
	t.Helper()

	doc := gofpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 10)
	y := 100.0
	for _, line := range lines {
		doc.Text(72, y, line)
		y += 14
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("failed to build fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// writeDefaultTemplate puts a valid blank template where the server's
// default template name points.
func writeDefaultTemplate(t *testing.T, srv *Server) {
	t.Helper()

	path := filepath.Join(srv.cfg.TemplateDir, srv.cfg.DefaultTemplate)
	if err := os.WriteFile(path, pdfBytes(t, "DD FORM 1750"), 0o600); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("ok")) {
		t.Errorf("expected status ok in body: %s", rec.Body.String())
	}
}

func TestConvert_MissingFile(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "", "", nil, map[string]string{"start_page": "0"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "MISSING_FILE" {
		t.Errorf("expected MISSING_FILE error, got %+v", resp.Error)
	}
}

func TestConvert_InvalidStartPage(t *testing.T) {
	srv := newTestServer(t)

	tests := []string{"-1", "abc", "1.5"}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			body, contentType := multipartBody(t, "bom_pdf", "listing.pdf", []byte("%PDF-1.4"),
				map[string]string{"start_page": raw})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.Engine().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeAPIResponse(t, rec)
			if resp.Error == nil || resp.Error.Code != "INVALID_START_PAGE" {
				t.Errorf("expected INVALID_START_PAGE error, got %+v", resp.Error)
			}
		})
	}
}

func TestFormParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	h := NewConvertHandler(cfg, nil, nil)

	newContext := func(fields map[string]string) *gin.Context {
		body, contentType := multipartBody(t, "", "", nil, fields)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
		req.Header.Set("Content-Type", contentType)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = req
		return c
	}

	t.Run("defaults", func(t *testing.T) {
		p, err := h.formParams(newContext(nil))
		if err != nil {
			t.Fatalf("formParams failed: %v", err)
		}
		if p.startPage != cfg.StartPage {
			t.Errorf("expected start page %d, got %d", cfg.StartPage, p.startPage)
		}
		if p.profile != cfg.Profile {
			t.Errorf("expected profile %s, got %s", cfg.Profile, p.profile)
		}
		if p.label != "" {
			t.Errorf("expected empty label, got %q", p.label)
		}
	})

	t.Run("explicit fields", func(t *testing.T) {
		p, err := h.formParams(newContext(map[string]string{
			"start_page": "3",
			"profile":    "compact",
			"label":      "SN",
		}))
		if err != nil {
			t.Fatalf("formParams failed: %v", err)
		}
		if p.startPage != 3 {
			t.Errorf("expected start page 3, got %d", p.startPage)
		}
		if p.profile != "compact" {
			t.Errorf("expected profile compact, got %s", p.profile)
		}
		if p.label != "SN" {
			t.Errorf("expected label SN, got %q", p.label)
		}
	})

	t.Run("negative start page", func(t *testing.T) {
		if _, err := h.formParams(newContext(map[string]string{"start_page": "-2"})); err == nil {
			t.Errorf("expected error but got none")
		}
	})
}

func TestConvert_GeneratesPDF(t *testing.T) {
	srv := newTestServer(t)
	writeDefaultTemplate(t, srv)

	listing := pdfBytes(t,
		"DESCRIPTION",
		"WIDGET ASSEMBLY EA 4",
		"MOUNTING BRACKET EA 2",
	)
	body, contentType := multipartBody(t, "bom_pdf", "listing.pdf", listing,
		map[string]string{"label": "SN"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if got := rec.Header().Get("X-Item-Count"); got != "2" {
		t.Errorf("expected 2 items, got %s", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("expected PDF body, got %q", rec.Body.Bytes()[:8])
	}
}

// A start page past the end of the listing reads as an empty document and
// must surface as a no-items response, not a server error.
func TestConvert_StartPageBeyondEnd(t *testing.T) {
	srv := newTestServer(t)
	writeDefaultTemplate(t, srv)

	listing := pdfBytes(t, "WIDGET ASSEMBLY EA 4")
	body, contentType := multipartBody(t, "bom_pdf", "listing.pdf", listing,
		map[string]string{"start_page": "5"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "NO_ITEMS" {
		t.Errorf("expected NO_ITEMS error, got %+v", resp.Error)
	}
}

func TestConvert_TemplateNotFound(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "bom_pdf", "listing.pdf", []byte("%PDF-1.4"),
		map[string]string{"template": "missing.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "TEMPLATE_NOT_FOUND" {
		t.Errorf("expected TEMPLATE_NOT_FOUND error, got %+v", resp.Error)
	}
}

func TestConvert_TemplateNameTraversalRejected(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "bom_pdf", "listing.pdf", []byte("%PDF-1.4"),
		map[string]string{"template": "../escape.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "INVALID_TEMPLATE" {
		t.Errorf("expected INVALID_TEMPLATE error, got %+v", resp.Error)
	}
}

func TestConvert_CorruptListingRejected(t *testing.T) {
	srv := newTestServer(t)

	// The default template exists but the uploaded listing is not a PDF.
	templatePath := filepath.Join(srv.cfg.TemplateDir, srv.cfg.DefaultTemplate)
	if err := os.WriteFile(templatePath, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	body, contentType := multipartBody(t, "bom_pdf", "listing.pdf", []byte("not a pdf"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT error, got %+v", resp.Error)
	}
}

func TestPreview_MissingFile(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "", "", nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTemplates_ListsInspectablePDFs(t *testing.T) {
	srv := newTestServer(t)

	dir := srv.cfg.TemplateDir
	for _, name := range []string{"dd1750.pdf", "compact.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), pdfBytes(t, "DD FORM 1750"), 0o600); err != nil {
			t.Fatalf("failed to create template: %v", err)
		}
	}
	// A text file and a broken PDF must both stay out of the listing.
	for name, content := range map[string]string{"notes.txt": "notes", "broken.pdf": "x"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Templates []struct {
				Name   string  `json:"name"`
				Pages  int     `json:"pages"`
				Width  float64 `json:"width"`
				Height float64 `json:"height"`
			} `json:"templates"`
			Default string `json:"default"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []string{"compact.pdf", "dd1750.pdf"}
	if len(resp.Data.Templates) != len(want) {
		t.Fatalf("expected %d templates, got %+v", len(want), resp.Data.Templates)
	}
	for i, name := range want {
		got := resp.Data.Templates[i]
		if got.Name != name {
			t.Errorf("expected template %s at %d, got %s", name, i, got.Name)
		}
		if got.Pages != 1 {
			t.Errorf("expected 1 page for %s, got %d", name, got.Pages)
		}
		if got.Width < 611 || got.Width > 613 {
			t.Errorf("expected Letter width for %s, got %v", name, got.Width)
		}
		if got.Height < 791 || got.Height > 793 {
			t.Errorf("expected Letter height for %s, got %v", name, got.Height)
		}
	}
	if resp.Data.Default != "dd1750.pdf" {
		t.Errorf("expected default dd1750.pdf, got %s", resp.Data.Default)
	}
}
