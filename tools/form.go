package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/xuri/excelize/v2"
)

// ParseResult mirrors the structured payload returned to the reasoning
// engine: either parsed fields or an enumerated failure the engine can
// turn into a follow-up question.
type ParseResult struct {
	Success   bool              `json:"success,omitempty"`
	Parsed    map[string]string `json:"parsed,omitempty"`
	Error     string            `json:"error,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Missing   []string          `json:"missing,omitempty"`
	Supported []string          `json:"supported,omitempty"`
}

// ParseFormRequest extracts the form's schema fields from free text using
// the LLM. Validation failures come back inside the result, never as a Go
// error, so the conversational loop can recover.
func ParseFormRequest(ctx context.Context, llm Completer, userText, formType string) ParseResult {
	schema, ok := SchemaRegistry[formType]
	if !ok {
		return ParseResult{Error: "unsupported_form", Supported: SupportedFormTypes()}
	}

	prompt := extractionPrompt(formType, schema)
	resp, err := llm.Complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(userText),
		},
	})
	if err != nil {
		return ParseResult{Error: "PARSE_FAILED", Detail: err.Error()}
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)
	var extracted map[string]any
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		return ParseResult{Error: "PARSE_FAILED", Detail: fmt.Sprintf("unparseable extraction output: %v", err)}
	}

	fields := make(map[string]string, len(extracted))
	for key, value := range extracted {
		if value == nil {
			continue
		}
		fields[key] = strings.TrimSpace(fmt.Sprint(value))
	}

	if missing := schema.ValidateFields(fields); len(missing) > 0 {
		return ParseResult{Error: "MISSING_FIELDS", Missing: missing}
	}
	return ParseResult{Success: true, Parsed: fields}
}

func extractionPrompt(formType string, schema FormSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You extract structured data for a %q HR leave form.\n", formType)
	b.WriteString("Return ONLY a JSON object, no markdown fences, no commentary.\n")
	b.WriteString("Required keys: " + strings.Join(schema.Required, ", ") + ".\n")
	if len(schema.Optional) > 0 {
		b.WriteString("Optional keys: " + strings.Join(schema.Optional, ", ") + ".\n")
	}
	b.WriteString("Use dd/mm/yyyy for dates and HH:MM for times. " +
		"Use academic or non_academic, full_time or part_time, attached or not_attached where applicable. " +
		"Omit any key the text does not answer; never invent values.")
	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// ValidationError names the schema fields a fill request is missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

var ErrInvalidFormType = errors.New("invalid form type")

// formTemplates maps each form type to its workbook template file. The
// annual/accidental/marriage family shares one template.
var formTemplates = map[string]string{
	"annual":     "Annual_Leave_Request.xlsx",
	"accidental": "Annual_Leave_Request.xlsx",
	"marriage":   "Annual_Leave_Request.xlsx",
	"excuse":     "Excuse_form.xlsx",
	"maternity":  "Maternity_form.xlsx",
	"mission":    "Mission_form.xlsx",
	"attendance": "Incomplete_form.xlsx",
}

// FillExcelForm fills the form template with validated fields and writes
// user_<id>_<type>_form.xlsx into outDir, returning the output path.
// Incomplete fields fail with *ValidationError before any file is written.
func FillExcelForm(formType string, fields map[string]string, userID uint, formsDir, outDir string) (string, error) {
	templateName, ok := formTemplates[formType]
	if !ok {
		return "", ErrInvalidFormType
	}

	schema := SchemaRegistry[formType]
	if missing := schema.ValidateFields(fields); len(missing) > 0 {
		return "", &ValidationError{Missing: missing}
	}

	templatePath := filepath.Join(formsDir, templateName)
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("template not found: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	switch formType {
	case "annual", "accidental", "marriage":
		err = fillLeaveForm(f, sheet, formType, fields)
	case "excuse":
		err = fillExcuseForm(f, sheet, fields)
	case "maternity":
		err = fillMaternityForm(f, sheet, fields)
	case "mission":
		err = fillMissionForm(f, sheet, fields)
	case "attendance":
		err = fillAttendanceForm(f, sheet, fields)
	}
	if err != nil {
		return "", fmt.Errorf("failed to fill %s form: %w", formType, err)
	}

	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("user_%d_%s_form.xlsx", userID, formType))
	if err := f.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("failed to save filled form: %w", err)
	}
	return outPath, nil
}

func setCell(f *excelize.File, sheet string, row, col int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

func fillLeaveForm(f *excelize.File, sheet, formType string, fields map[string]string) error {
	if err := setCell(f, sheet, 9, 3, fields["name"]); err != nil {
		return err
	}
	if err := setCell(f, sheet, 14, 2, fields["id"]); err != nil {
		return err
	}

	// Leave type tick mark cells on the shared template.
	typeCells := map[string]struct {
		row, col int
		text     string
	}{
		"annual":     {5, 1, "☑ Annual"},
		"accidental": {5, 4, "☑ Accidental"},
		"marriage":   {5, 9, "☑ Marriage"},
	}
	tc := typeCells[formType]
	if err := setCell(f, sheet, tc.row, tc.col, tc.text); err != nil {
		return err
	}

	fullTime := fields["fulltime_or_parttime"] == "full_time"
	tick := "☑ Part time"
	if fullTime {
		tick = "☑ Full time"
	}
	if fields["academic_or_non_academic"] == "academic" {
		col := 5
		if fullTime {
			col = 1
		}
		if err := setCell(f, sheet, 17, col, tick); err != nil {
			return err
		}
		if err := setCell(f, sheet, 18, 1, "Faculty / Department: "+fields["faculty_or_department"]); err != nil {
			return err
		}
	} else {
		col := 15
		if fullTime {
			col = 10
		}
		if err := setCell(f, sheet, 17, col, tick); err != nil {
			return err
		}
		if err := setCell(f, sheet, 18, 10, "Department: "+fields["faculty_or_department"]); err != nil {
			return err
		}
	}

	if err := setCell(f, sheet, 19, 1, "Leave from: "+fields["start_date"]); err != nil {
		return err
	}
	if err := setCell(f, sheet, 19, 10, "to: "+fields["end_date"]); err != nil {
		return err
	}
	return setCell(f, sheet, 20, 4, fields["number_of_days"])
}

func fillExcuseForm(f *excelize.File, sheet string, fields map[string]string) error {
	cells := []struct {
		row, col int
		value    string
	}{
		{6, 3, fields["name"]},
		{7, 3, fields["id"]},
		{8, 3, fields["department"]},
		{9, 3, fields["academic_or_non_academic"] + " / " + fields["fulltime_or_parttime"]},
		{10, 3, fields["excuse_date"]},
		{11, 3, fields["from_time"]},
		{11, 6, fields["to_time"]},
	}
	return setCells(f, sheet, cells)
}

func fillMaternityForm(f *excelize.File, sheet string, fields map[string]string) error {
	cells := []struct {
		row, col int
		value    string
	}{
		{6, 3, fields["name"]},
		{7, 3, fields["id"]},
		{8, 3, fields["department"]},
		{10, 3, fields["start_date"]},
		{10, 6, fields["end_date"]},
		{11, 3, fields["total_leave_days"]},
		{12, 3, "Medical report: " + fields["medical_report"]},
		{13, 3, "Birth certificate: " + fields["birth_certificate"]},
	}
	return setCells(f, sheet, cells)
}

func fillMissionForm(f *excelize.File, sheet string, fields map[string]string) error {
	cells := []struct {
		row, col int
		value    string
	}{
		{6, 3, fields["name"]},
		{7, 3, fields["department"]},
		{9, 3, fields["start_date"]},
		{9, 6, fields["end_date"]},
		{10, 3, fields["from_time"]},
		{10, 6, fields["to_time"]},
		{11, 3, fields["mission_destination"]},
	}
	return setCells(f, sheet, cells)
}

func fillAttendanceForm(f *excelize.File, sheet string, fields map[string]string) error {
	cells := []struct {
		row, col int
		value    string
	}{
		{5, 3, fields["name"]},
		{6, 3, fields["id"]},
		{7, 3, fields["faculty"]},
		{8, 3, fields["department"]},
		{9, 3, fields["missing_date"]},
		{10, 3, fields["missing_from_time"]},
		{10, 6, fields["missing_to_time"]},
	}
	return setCells(f, sheet, cells)
}

func setCells(f *excelize.File, sheet string, cells []struct {
	row, col int
	value    string
}) error {
	for _, c := range cells {
		if err := setCell(f, sheet, c.row, c.col, c.value); err != nil {
			return err
		}
	}
	return nil
}
