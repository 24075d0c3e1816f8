package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/canopyforms/dd1750/internal/config"
	"github.com/canopyforms/dd1750/internal/generate"
	"github.com/canopyforms/dd1750/internal/pdf"
	"github.com/canopyforms/dd1750/internal/pdf/security"
)

// outputFileName is the attachment name for every generated form.
const outputFileName = "DD1750_OUTPUT.pdf"

// ConvertHandler handles conversion and template endpoints.
type ConvertHandler struct {
	cfg   *config.Config
	svc   *generate.Service
	guard *security.TemplateGuard
}

// NewConvertHandler creates a new ConvertHandler.
func NewConvertHandler(cfg *config.Config, svc *generate.Service, guard *security.TemplateGuard) *ConvertHandler {
	return &ConvertHandler{cfg: cfg, svc: svc, guard: guard}
}

// convertParams are the optional form fields shared by the conversion
// endpoints.
type convertParams struct {
	startPage int
	profile   string
	label     string
}

// formParams reads start_page, profile, and label from the request form,
// falling back to the configured defaults.
func (h *ConvertHandler) formParams(c *gin.Context) (convertParams, error) {
	p := convertParams{
		startPage: h.cfg.StartPage,
		profile:   c.DefaultPostForm("profile", h.cfg.Profile),
		label:     c.PostForm("label"),
	}
	if raw := c.PostForm("start_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, fmt.Errorf("start_page must be a non-negative integer")
		}
		p.startPage = n
	}
	return p, nil
}

// Convert handles POST /api/v1/convert. It accepts a multipart form with a
// required bom_pdf file, an optional template_pdf file or template name,
// and optional start_page, profile, and label fields. On success the
// response body is the generated PDF as an attachment.
func (h *ConvertHandler) Convert(c *gin.Context) {
	bomFile, err := c.FormFile("bom_pdf")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "bom_pdf file is required")
		return
	}
	if bomFile.Size > h.svc.GetMaxFileSize() {
		RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("upload exceeds maximum size of %d bytes", h.svc.GetMaxFileSize()))
		return
	}

	params, err := h.formParams(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_START_PAGE", err.Error())
		return
	}

	// Stage the upload in a scratch directory that lives for this request.
	workDir, err := os.MkdirTemp("", "dd1750-upload-")
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "STAGING_FAILED", "could not stage upload")
		return
	}
	defer os.RemoveAll(workDir)

	bomPath := filepath.Join(workDir, uuid.NewString()+".pdf")
	if err := c.SaveUploadedFile(bomFile, bomPath); err != nil {
		RespondError(c, http.StatusInternalServerError, "STAGING_FAILED", "could not save upload")
		return
	}

	templatePath, errCode, errStatus, errMsg := h.resolveTemplate(c, workDir)
	if errMsg != "" {
		RespondError(c, errStatus, errCode, errMsg)
		return
	}

	result, err := h.svc.Convert(generate.ConvertRequest{
		BOMPath:      bomPath,
		TemplatePath: templatePath,
		StartPage:    params.startPage,
		Profile:      params.profile,
		Label:        params.label,
	})
	if err != nil {
		h.respondConvertError(c, err)
		return
	}

	log.Printf("[server] converted %s: %d items across %d pages",
		bomFile.Filename, result.ItemCount, result.PageCount)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputFileName))
	c.Header("X-Item-Count", strconv.Itoa(result.ItemCount))
	c.Header("X-Page-Count", strconv.Itoa(result.PageCount))
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

// resolveTemplate picks the template for a request: an uploaded template_pdf
// wins, otherwise a named template from the template directory, otherwise
// the configured default. Named templates go through the guard so requests
// cannot reach outside the template directory.
func (h *ConvertHandler) resolveTemplate(c *gin.Context, workDir string) (path, code string, status int, errMsg string) {
	if upload, err := c.FormFile("template_pdf"); err == nil {
		if upload.Size > h.svc.GetMaxFileSize() {
			return "", "FILE_TOO_LARGE", http.StatusRequestEntityTooLarge,
				"template upload exceeds maximum size"
		}
		uploadPath := filepath.Join(workDir, uuid.NewString()+".pdf")
		if err := c.SaveUploadedFile(upload, uploadPath); err != nil {
			return "", "STAGING_FAILED", http.StatusInternalServerError, "could not save template upload"
		}
		return uploadPath, "", 0, ""
	}

	name := c.DefaultPostForm("template", h.cfg.DefaultTemplate)
	resolved, err := h.guard.Resolve(name)
	if err != nil {
		return "", "INVALID_TEMPLATE", http.StatusBadRequest, err.Error()
	}
	if _, err := os.Stat(resolved); os.IsNotExist(err) {
		return "", "TEMPLATE_NOT_FOUND", http.StatusNotFound,
			fmt.Sprintf("template not found: %s", name)
	}
	return resolved, "", 0, ""
}

func (h *ConvertHandler) respondConvertError(c *gin.Context, err error) {
	var noItems *generate.NoItemsError
	if errors.As(err, &noItems) {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error:   &APIError{Code: "NO_ITEMS", Message: noItems.Error()},
			Data:    gin.H{"content_type": noItems.ContentType},
		})
		return
	}

	if strings.Contains(err.Error(), "invalid listing file") ||
		strings.Contains(err.Error(), "invalid template file") ||
		strings.Contains(err.Error(), "unknown geometry profile") {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	log.Printf("[server] conversion failed: %v", err)
	RespondError(c, http.StatusInternalServerError, "CONVERSION_FAILED", "conversion failed")
}

// Preview handles POST /api/v1/preview. It runs extraction without
// rendering and returns the records as JSON so a client can inspect what
// the form will contain.
func (h *ConvertHandler) Preview(c *gin.Context) {
	bomFile, err := c.FormFile("bom_pdf")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "bom_pdf file is required")
		return
	}
	if bomFile.Size > h.svc.GetMaxFileSize() {
		RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("upload exceeds maximum size of %d bytes", h.svc.GetMaxFileSize()))
		return
	}

	params, err := h.formParams(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_START_PAGE", err.Error())
		return
	}

	workDir, err := os.MkdirTemp("", "dd1750-upload-")
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "STAGING_FAILED", "could not stage upload")
		return
	}
	defer os.RemoveAll(workDir)

	bomPath := filepath.Join(workDir, uuid.NewString()+".pdf")
	if err := c.SaveUploadedFile(bomFile, bomPath); err != nil {
		RespondError(c, http.StatusInternalServerError, "STAGING_FAILED", "could not save upload")
		return
	}

	result, err := h.svc.ExtractOnly(bomPath, params.startPage)
	if err != nil {
		if strings.Contains(err.Error(), "invalid listing file") {
			RespondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		log.Printf("[server] preview failed: %v", err)
		RespondError(c, http.StatusInternalServerError, "EXTRACTION_FAILED", "extraction failed")
		return
	}

	RespondOK(c, result)
}

// templateInfo is one entry in the templates listing.
type templateInfo struct {
	Name   string  `json:"name"`
	Pages  int     `json:"pages"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Templates handles GET /api/v1/templates and lists the PDF templates
// available in the template directory with their page count and
// first-page dimensions. Files that do not inspect as PDFs are omitted.
func (h *ConvertHandler) Templates(c *gin.Context) {
	entries, err := os.ReadDir(h.guard.TemplateDir())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "TEMPLATE_DIR_UNREADABLE",
			"could not read template directory")
		return
	}

	templates := make([]templateInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		info, err := pdf.InspectTemplate(filepath.Join(h.guard.TemplateDir(), entry.Name()))
		if err != nil {
			continue
		}
		templates = append(templates, templateInfo{
			Name:   entry.Name(),
			Pages:  info.Pages,
			Width:  info.Width,
			Height: info.Height,
		})
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })

	RespondOK(c, gin.H{"templates": templates, "default": h.cfg.DefaultTemplate})
}

// Health handles GET /healthz
func (h *ConvertHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.cfg.ServerName,
		"version": h.cfg.Version,
	})
}
