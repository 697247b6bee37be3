package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/plan"
)

// NeedsHumanSentinel marks a parameter the language model could not
// resolve from the step text. Any parameter still carrying it after
// fallback resolution fails the step rather than sending placeholder
// content to a live backend.
const NeedsHumanSentinel = "[NEEDS_HUMAN_INPUT]"

// ErrNeedsHumanInput is returned when a step's parameters cannot be
// resolved without a human
var ErrNeedsHumanInput = errors.New("step parameters need human input")

const defaultTransactionWindow = 30 * 24 * time.Hour

// runStep dispatches one plan step by its classified kind. Read and
// other steps never touch an external backend.
func (u *UseCase) runStep(ctx context.Context, ec *ExecutionContext, step plan.Step) StepResult {
	kind := u.classifier.Classify(step.Description)
	switch kind {
	case model.ActionEmail:
		return u.runEmailStep(ctx, ec, step)
	case model.ActionFinancial:
		return u.runFinancialStep(ctx, step)
	case model.ActionGenerate:
		return u.runGenerateStep(ctx, ec, step)
	default:
		return StepResult{
			Success: true,
			Kind:    kind.String(),
			Note:    "requires manual execution",
		}
	}
}

func (u *UseCase) runEmailStep(ctx context.Context, ec *ExecutionContext, step plan.Step) StepResult {
	result := StepResult{Kind: model.ActionEmail.String()}

	prompt := fmt.Sprintf(
		"Extract email parameters from this step description.\n"+
			"Step: %s\n"+
			"Prior step results: %s\n"+
			"Respond with JSON: {\"to\": ..., \"subject\": ..., \"body\": ...}.\n"+
			"Use %q for any parameter you cannot determine.",
		step.Description, ec.Summary(), NeedsHumanSentinel,
	)

	raw, err := u.llm.Complete(ctx, prompt)
	if err != nil {
		result.Error = fmt.Sprintf("extract email parameters: %v", err)
		return result
	}

	params := map[string]string{}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &params); err != nil {
		result.Error = fmt.Sprintf("parse email parameters: %v", err)
		return result
	}
	result.Params = params

	// An unresolved body falls back to the most recent generated
	// content, then to a minimal templated body. Other unresolved
	// parameters have no fallback.
	if unresolved(params["body"]) {
		if content, ok := ec.PriorContent(model.ActionGenerate.String()); ok {
			params["body"] = content
		} else {
			params["body"] = fmt.Sprintf("This is an automated update regarding: %s", step.Description)
		}
	}
	if params["subject"] == "" {
		params["subject"] = "Automated update"
	}

	for key, val := range params {
		if unresolved(val) {
			result.Error = fmt.Sprintf("%v: %s", ErrNeedsHumanInput, key)
			return result
		}
	}

	sent, err := u.mailer.Send(ctx, params["to"], params["subject"], params["body"])
	if err != nil {
		result.Error = fmt.Sprintf("send mail: %v", err)
		return result
	}

	result.Success = true
	result.Content = fmt.Sprintf("sent to %s (message %s)", params["to"], sent.MessageID)
	return result
}

type financialCall struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

func (u *UseCase) runFinancialStep(ctx context.Context, step plan.Step) StepResult {
	result := StepResult{Kind: model.ActionFinancial.String()}

	prompt := fmt.Sprintf(
		"Map this step to a financial action.\n"+
			"Step: %s\n"+
			"Respond with JSON: {\"action\": one of get_balances, get_transactions, create_expense, get_summary, \"params\": {...}}.",
		step.Description,
	)

	raw, err := u.llm.Complete(ctx, prompt)
	if err != nil {
		result.Error = fmt.Sprintf("map financial action: %v", err)
		return result
	}

	var call financialCall
	if err := json.Unmarshal([]byte(extractJSON(raw)), &call); err != nil {
		result.Error = fmt.Sprintf("parse financial action: %v", err)
		return result
	}
	result.Params = stringifyParams(call.Params)

	payload, err := u.dispatchLedger(ctx, call)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Content = payload
	return result
}

func (u *UseCase) dispatchLedger(ctx context.Context, call financialCall) (string, error) {
	switch call.Action {
	case "get_balances":
		r, err := u.ledger.GetBalances(ctx)
		if err != nil {
			return "", fmt.Errorf("get balances: %w", err)
		}
		return r.Payload, nil

	case "get_transactions":
		window := defaultTransactionWindow
		if n, ok := paramFloat(call.Params, "days"); ok && n > 0 {
			window = time.Duration(n) * 24 * time.Hour
		}
		r, err := u.ledger.GetTransactions(ctx, window)
		if err != nil {
			return "", fmt.Errorf("get transactions: %w", err)
		}
		return r.Payload, nil

	case "create_expense":
		amount, ok := paramFloat(call.Params, "amount")
		if !ok {
			return "", fmt.Errorf("missing or invalid expense amount %v", call.Params["amount"])
		}
		category := paramString(call.Params, "category")
		if category == "" {
			category = "uncategorized"
		}
		r, err := u.ledger.CreateExpense(ctx, paramString(call.Params, "description"), amount, category)
		if err != nil {
			return "", fmt.Errorf("create expense: %w", err)
		}
		return r.Payload, nil

	case "get_summary":
		period := paramString(call.Params, "period")
		if period == "" {
			period = "month"
		}
		r, err := u.ledger.GetSummary(ctx, period)
		if err != nil {
			return "", fmt.Errorf("get summary: %w", err)
		}
		return r.Payload, nil

	default:
		return "", fmt.Errorf("unknown financial action %q", call.Action)
	}
}

func (u *UseCase) runGenerateStep(ctx context.Context, ec *ExecutionContext, step plan.Step) StepResult {
	result := StepResult{Kind: model.ActionGenerate.String()}

	prompt := fmt.Sprintf(
		"Generate the content this step asks for.\nStep: %s\nPrior step results: %s",
		step.Description, ec.Summary(),
	)

	content, err := u.llm.Complete(ctx, prompt)
	if err != nil {
		result.Error = fmt.Sprintf("generate content: %v", err)
		return result
	}

	result.Success = true
	result.Content = content
	return result
}

// extractJSON pulls the outermost JSON object out of a model response
// that may wrap it in prose or code fences
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func unresolved(v string) bool {
	return strings.Contains(v, NeedsHumanSentinel)
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func paramFloat(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func stringifyParams(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = fmt.Sprint(v)
	}
	return out
}
