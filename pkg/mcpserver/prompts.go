package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
)

// registerPrompts adds the guided workflow prompts to the MCP server.
func (s *Server) registerPrompts() {
	s.addBriefingPrompt()
}

// Briefing focus values.
const (
	FocusAll        = "all"
	FocusFindings   = "findings"
	FocusCompliance = "compliance"
	FocusInventory  = "inventory"
)

var focusInstructions = map[string]string{
	FocusFindings: `Focus on risk:
1. Report open findings by severity (critical, high, medium, low) and the total
2. Name the three largest finding categories
3. Quote every toxic combination verbatim and explain why each is dangerous
4. Turn the quick actions into a prioritized remediation list`,
	FocusCompliance: `Focus on compliance:
1. Lead with overallStatus as the headline score
2. List every framework percentage, lowest first
3. Call out any framework below 70% as needing attention`,
	FocusInventory: `Focus on inventory:
1. Summarize each organization: provider, org count, scope count (accounts, subscriptions, projects, or compartments), green and yellow counts
2. Rank resource categories by count and give the total number of resources
3. Summarize the trends counters (opened vs closed findings, tickets created)`,
}

// ═══════════════════════════════════════════════════════════════════════════
// dashboard_briefing: Executive briefing from the dashboard
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addBriefingPrompt() {
	s.mcp.AddPrompt(
		&mcp.Prompt{
			Name:        defaults.PromptBriefing,
			Title:       "Dashboard Briefing",
			Description: "Executive briefing built from the security dashboard. Optionally narrowed to findings, compliance, or inventory.",
			Arguments: []*mcp.PromptArgument{
				{Name: "focus", Description: "Section to brief on: 'findings', 'compliance', 'inventory', or 'all' (default)", Required: false},
			},
		},
		func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			focus := strings.ToLower(strings.TrimSpace(req.Params.Arguments["focus"]))
			if focus == "" {
				focus = FocusAll
			}
			body, err := briefingText(focus)
			if err != nil {
				return nil, err
			}
			s.metrics.PromptServed(defaults.PromptBriefing)
			s.logger.DebugContext(ctx, "prompt served", "prompt", defaults.PromptBriefing, "focus", focus)

			return &mcp.GetPromptResult{
				Description: fmt.Sprintf("Dashboard briefing: %s", focus),
				Messages: []*mcp.PromptMessage{
					{
						Role:    "user",
						Content: &mcp.TextContent{Text: body},
					},
				},
			}, nil
		},
	)
}

func briefingText(focus string) (string, error) {
	var sections []string
	switch focus {
	case FocusAll:
		sections = []string{
			focusInstructions[FocusFindings],
			focusInstructions[FocusCompliance],
			focusInstructions[FocusInventory],
		}
	case FocusFindings, FocusCompliance, FocusInventory:
		sections = []string{focusInstructions[focus]}
	default:
		return "", fmt.Errorf("unknown focus %q: use findings, compliance, inventory, or all", focus)
	}

	return fmt.Sprintf(`Call the %s tool (it takes no arguments) and brief me on the security dashboard it returns.

%s

Keep it under 300 words. Use the exact numbers from the tool result; do not estimate.`,
		defaults.ToolShowDashboard, strings.Join(sections, "\n\n")), nil
}
