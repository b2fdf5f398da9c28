package tools

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

// Completer is the slice of the LLM client the tools need.
type Completer interface {
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Reference is one retrieved policy chunk, surfaced to the caller for
// display alongside the final answer.
type Reference struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Index   int    `json:"index"`
}

// Retriever searches the indexed policy corpus.
type Retriever interface {
	Search(ctx context.Context, query string) ([]Reference, error)
}

const (
	ToolRetrievePolicyInfo    = "retrieve_policy_info"
	ToolCalculateEligibility  = "calculate_promotion_eligibility"
	ToolGetPromotionTable     = "get_promotion_calculation_table"
	ToolParseFormRequestExcel = "parse_form_request_excel"
	ToolFillExcelForm         = "fill_excel_form"
)

// Registry is the fixed set of capabilities offered to the reasoning
// engine.
type Registry struct {
	retriever      Retriever
	llm            Completer
	formsDir       string
	filledFormsDir string
	logger         *logrus.Logger
}

func NewRegistry(retriever Retriever, llm Completer, formsDir, filledFormsDir string, logger *logrus.Logger) *Registry {
	return &Registry{
		retriever:      retriever,
		llm:            llm,
		formsDir:       formsDir,
		filledFormsDir: filledFormsDir,
		logger:         logger,
	}
}

// Definitions returns the tool declarations bound to every reasoning call.
func (r *Registry) Definitions() []openai.ChatCompletionToolParam {
	return []openai.ChatCompletionToolParam{
		{
			Function: openai.FunctionDefinitionParam{
				Name: ToolRetrievePolicyInfo,
				Description: openai.String("Search and retrieve information from the GIU Admin Policy documents. " +
					"Use this tool to answer questions about administrative policies, procedures, regulations, and guidelines."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{"type": "string", "description": "The search query."},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name: ToolCalculateEligibility,
				Description: openai.String("Calculate promotion eligibility for Lecturer to Associate Professor " +
					"from the academic profile numbers."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"publications_count":           map[string]any{"type": "integer"},
						"single_authored_publications": map[string]any{"type": "integer"},
						"supervised_phd_students":      map[string]any{"type": "integer"},
						"supervised_masters_students":  map[string]any{"type": "integer"},
						"workshops_organized":          map[string]any{"type": "integer"},
						"research_funding_usd":         map[string]any{"type": "number"},
					},
					"required": []string{"publications_count", "single_authored_publications"},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name: ToolGetPromotionTable,
				Description: openai.String("Return the official promotion calculation table for Lecturer to Associate " +
					"Professor. Use it when the user asks about promotion criteria or how promotion is evaluated."),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        ToolParseFormRequestExcel,
				Description: openai.String("Parse a natural-language leave request into the structured fields of an HR form."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"user_text": map[string]any{"type": "string"},
						"form_type": map[string]any{
							"type": "string",
							"enum": SupportedFormTypes(),
						},
					},
					"required": []string{"user_text", "form_type"},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        ToolFillExcelForm,
				Description: openai.String("Fill the HR form template with parsed fields and return a download reference."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"form_type": map[string]any{
							"type": "string",
							"enum": SupportedFormTypes(),
						},
						"fields": map[string]any{
							"type":        "object",
							"description": "The parsed schema fields for the form.",
						},
					},
					"required": []string{"form_type", "fields"},
				},
			},
		},
	}
}

// Dispatch executes one requested tool call. Tool-level failures are
// encoded into the returned payload so the engine can ask a follow-up
// question; only the payload is ever handed back, never a Go error. The
// second return value carries retrieved references for the caller to
// display (non-nil only for the retrieval tool).
func (r *Registry) Dispatch(ctx context.Context, userID uint, name, arguments string) (string, []Reference) {
	switch name {
	case ToolRetrievePolicyInfo:
		return r.dispatchRetrieve(ctx, arguments)
	case ToolCalculateEligibility:
		return r.dispatchEligibility(arguments), nil
	case ToolGetPromotionTable:
		return mustJSON(GetPromotionCalculationTable()), nil
	case ToolParseFormRequestExcel:
		return r.dispatchParseForm(ctx, arguments), nil
	case ToolFillExcelForm:
		return r.dispatchFillForm(userID, arguments), nil
	default:
		return errorPayload("unknown_tool", "no tool named "+name), nil
	}
}

func (r *Registry) dispatchRetrieve(ctx context.Context, arguments string) (string, []Reference) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorPayload("invalid_arguments", err.Error()), nil
	}

	refs, err := r.retriever.Search(ctx, args.Query)
	if err != nil {
		r.logger.Warnf("[tool] retrieval failed for query %q: %s", args.Query, err)
		return errorPayload("retrieval_failed", err.Error()), nil
	}
	if refs == nil {
		refs = []Reference{}
	}
	return mustJSON(map[string]any{"chunks": refs}), refs
}

func (r *Registry) dispatchEligibility(arguments string) string {
	var profile AcademicSnapshot
	if err := json.Unmarshal([]byte(arguments), &profile); err != nil {
		return errorPayload("invalid_arguments", err.Error())
	}
	return mustJSON(CalculateEligibility(profile))
}

func (r *Registry) dispatchParseForm(ctx context.Context, arguments string) string {
	var args struct {
		UserText string `json:"user_text"`
		FormType string `json:"form_type"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorPayload("invalid_arguments", err.Error())
	}
	return mustJSON(ParseFormRequest(ctx, r.llm, args.UserText, args.FormType))
}

func (r *Registry) dispatchFillForm(userID uint, arguments string) string {
	var args struct {
		FormType string            `json:"form_type"`
		Fields   map[string]string `json:"fields"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorPayload("invalid_arguments", err.Error())
	}

	path, err := FillExcelForm(args.FormType, args.Fields, userID, r.formsDir, r.filledFormsDir)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.As(err, &validationErr):
			return mustJSON(map[string]any{
				"error":   "VALIDATION_FAILED",
				"missing": validationErr.Missing,
			})
		case errors.Is(err, ErrInvalidFormType):
			return errorPayload("invalid_form_type", err.Error())
		default:
			r.logger.Warnf("[tool] form fill failed: %s", err)
			return errorPayload("fill_failed", err.Error())
		}
	}

	filename := filepath.Base(path)
	return mustJSON(map[string]any{
		"success":      true,
		"type":         "filled_excel_form",
		"file_path":    path,
		"download_url": "/v1/filled_forms/" + filename,
	})
}

func errorPayload(kind, detail string) string {
	return mustJSON(map[string]string{"error": kind, "detail": detail})
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"encoding_failed"}`
	}
	return string(b)
}
