package controller

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hrassist/tools"
)

// FormController exposes direct form generation, bypassing the chat loop
// for clients that already know which form they want.
type FormController struct {
	llm            tools.Completer
	formsDir       string
	filledFormsDir string
	logger         *logrus.Logger
}

func NewFormController(llm tools.Completer, formsDir, filledFormsDir string, logger *logrus.Logger) *FormController {
	return &FormController{llm: llm, formsDir: formsDir, filledFormsDir: filledFormsDir, logger: logger}
}

// Generate parses a free-text form request and fills the matching Excel
// template. Parse failures come back as structured payloads the caller
// can resolve by supplying the missing details.
func (ctrl *FormController) Generate(c *gin.Context) {
	var payload struct {
		UserID   uint   `json:"user_id" binding:"required"`
		FormType string `json:"form_type" binding:"required"`
		Content  string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result := tools.ParseFormRequest(c.Request.Context(), ctrl.llm, payload.Content, payload.FormType)
	if !result.Success {
		ctrl.logger.Warnf("[%s] Form parse failed for user %d: %s", c.GetString("requestId"), payload.UserID, result.Error)
		c.JSON(http.StatusOK, gin.H{
			"success":   false,
			"error":     result.Error,
			"detail":    result.Detail,
			"missing":   result.Missing,
			"supported": result.Supported,
		})
		return
	}

	outPath, err := tools.FillExcelForm(payload.FormType, result.Parsed, payload.UserID, ctrl.formsDir, ctrl.filledFormsDir)
	if err != nil {
		var vErr *tools.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "MISSING_FIELDS", "missing": vErr.Missing})
		case errors.Is(err, tools.ErrInvalidFormType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form type"})
		default:
			ctrl.logger.Warnf("[%s] Form fill failed for user %d: %s", c.GetString("requestId"), payload.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fill form"})
		}
		return
	}

	filename := filepath.Base(outPath)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"form_type":    payload.FormType,
		"parsed":       result.Parsed,
		"filename":     filename,
		"download_url": "/v1/filled_forms/" + filename,
	})
}

// Download serves a previously filled form. The filename is flattened to
// its base to keep path traversal out of the filled forms directory.
func (ctrl *FormController) Download(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if filename == "." || filename == "/" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
		return
	}

	path := filepath.Join(ctrl.filledFormsDir, filename)
	c.FileAttachment(path, filename)
}
