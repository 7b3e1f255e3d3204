package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// PromptInput is everything the research prompt embeds
type PromptInput struct {
	Organization string
	CompanyName  string
	WebsiteURL   string
	Description  string
	Snapshot     *model.WebsiteSnapshot
}

// PromptInputFor builds prompt input from a sheet record
func PromptInputFor(organization string, rec model.SponsorRecord, snap *model.WebsiteSnapshot) PromptInput {
	name := rec.CompanyName()
	if name == "" {
		name = "Unknown Company"
	}
	return PromptInput{
		Organization: organization,
		CompanyName:  name,
		WebsiteURL:   rec.WebsiteURL(),
		Description:  rec.Description(),
		Snapshot:     snap,
	}
}

// BuildResearchPrompt renders the research instruction. The reply format at
// the end must keep model.DecisionMarker and model.ReasoningMarker verbatim.
func BuildResearchPrompt(in PromptInput) string {
	org := in.Organization
	if org == "" {
		org = "Token Metrics"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional sponsor evaluation analyst for %s. ", org)
	sb.WriteString("Your task is to thoroughly research and grade potential sponsors on a three-tier system (Flagship, Eligible, Rejected).\n\n")

	sb.WriteString("Company Information:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", in.CompanyName)
	fmt.Fprintf(&sb, "- Website: %s\n", in.WebsiteURL)
	fmt.Fprintf(&sb, "- Description: %s\n\n", in.Description)

	if !in.Snapshot.IsEmpty() {
		snap := in.Snapshot
		sb.WriteString("Website Snapshot (self-published by the applicant, verify independently):\n")
		if snap.FinalURL != "" && snap.FinalURL != snap.URL {
			fmt.Fprintf(&sb, "- Redirects to: %s\n", snap.FinalURL)
		}
		if snap.Title != "" {
			fmt.Fprintf(&sb, "- Title: %s\n", snap.Title)
		}
		if snap.Description != "" {
			fmt.Fprintf(&sb, "- Meta description: %s\n", snap.Description)
		}
		if snap.Excerpt != "" {
			fmt.Fprintf(&sb, "- Excerpt: %s\n", snap.Excerpt)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Research Requirements:
1. Company Background & Legitimacy
   - Verify company existence and legitimacy
   - Check company registration, founding date, key personnel
   - Assess business model and core offerings

2. Financial Stability & Reputation
   - Look for funding rounds, revenue information, financial health
   - Check for any financial difficulties or bankruptcies
   - Assess market position and competitive standing

3. FUD (Fear, Uncertainty, Doubt) Analysis
   - Search for negative news, controversies, scandals
   - Check for regulatory issues, legal problems
   - Look for customer complaints, security breaches
   - Assess any reputational risks

4. Industry Standing
   - Evaluate industry reputation and peer recognition
   - Check for awards, certifications, partnerships
   - Assess leadership team credibility

Grading Criteria:
- Flagship Sponsors: Global leaders with strong brand equity and deep budgets. Excellent reputation, strong financials, no significant FUD, industry leader status.
- Eligible Sponsors: Solid, reputable brands that meet our standards but are not top tier. Good reputation, stable financials, minor concerns that don't significantly impact credibility.
- Rejected Sponsors: Entities that fail financial, brand-fit, or compliance checks. Poor reputation, financial instability, significant FUD, or high-risk factors.

Please provide:
1. A comprehensive research summary covering all areas above
2. Your final sponsor category recommendation (Flagship, Eligible, or Rejected)
3. A clear 2-3 sentence reasoning for your decision

Format your response exactly as follows (no markdown formatting, only plain text):
RESEARCH SUMMARY:
[Your detailed research findings]

`)
	fmt.Fprintf(&sb, "%s [Flagship/Eligible/Rejected]\n", model.DecisionMarker)
	fmt.Fprintf(&sb, "%s [2-3 sentence explanation]\n", model.ReasoningMarker)

	return sb.String()
}
