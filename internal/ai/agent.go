package ai

import (
	"context"
	"errors"
	"fmt"

	"go-pos-billing/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// maxToolRounds bounds how many times one question may go back to the tools.
const maxToolRounds = 5

// Agent answers staff questions with Gemini function calling over Tools.
type Agent struct {
	apiKey string
	model  string
	tools  *Tools
	now    models.Clock
	log    *logrus.Entry
}

func NewAgent(apiKey, model string, tools *Tools, now models.Clock, logg *logrus.Logger) *Agent {
	if now == nil {
		now = models.SystemClock
	}
	return &Agent{apiKey: apiKey, model: model, tools: tools, now: now, log: logg.WithField("module", "ai")}
}

func (a *Agent) systemPrompt(userMessage string) string {
	today := models.CivilDate(a.now()).Format(models.DateLayout)
	return fmt.Sprintf(`SYSTEM: Today is %s. You are a read-only assistant for an inventory and billing system.

	RULES:
	1. READ: If a user asks for PRICE, STOCK, SUPPLIER or DETAILS of an item:
	   - You MUST call 'check_inventory' (with a query when the user names the item).
	   - Then read the JSON to find the specific item and answer the user.
	2. STOCK: For what needs reordering, use 'low_stock'.
	3. SALES: If the user asks for sales/revenue, use 'get_sales_report'.
	4. DEBT: For unpaid, overdue or overpaid invoices, use 'outstanding_invoices'.
	5. You cannot change anything. If asked to, say which screen to use instead.
	6. Amounts are strings with two decimals; repeat them exactly.

	USER: %s`, today, userMessage)
}

// Ask runs one question to completion.
func (a *Agent) Ask(ctx context.Context, userMessage string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = []*genai.Tool{{FunctionDeclarations: a.tools.Declarations()}}
	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(a.systemPrompt(userMessage)))
	if err != nil {
		return "", err
	}

	// --- HANDLE TOOL CALLS ---
	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}
		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.WithField("tool", call.Name).Debug("tool call")
			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.tools.Execute(ctx, call.Name, call.Args),
			})
		}
		if resp, err = session.SendMessage(ctx, parts...); err != nil {
			return "", err
		}
	}
	return "", errors.New("assistant did not finish within the tool-call limit")
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var out []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			out = append(out, fc)
		}
	}
	return out
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
