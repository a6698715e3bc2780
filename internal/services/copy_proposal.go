package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brandpilot/brandpilot-backend/internal/types"
)

// The delimiter protocol between the chat prompt and the parser. The system
// prompt quotes these exact markers, so a change here must change both sides
// together.
const (
	copyProposalStart = "---COPY_PROPOSAL---"
	copyProposalEnd   = "---END_PROPOSAL---"
)

var (
	proposalHeadlineRe    = regexp.MustCompile(`(?m)^HEADLINE:\s*(.+)$`)
	proposalPrimaryTextRe = regexp.MustCompile(`(?m)^PRIMARY_TEXT:\s*(.+)$`)
	proposalCTARe         = regexp.MustCompile(`(?m)^CTA:\s*(.+)$`)
)

// ParseCopyProposal extracts a proposed-copy block from an assistant reply.
// Returns false when no complete block is present.
func ParseCopyProposal(text string) (*ConfirmedCopy, bool) {
	start := strings.Index(text, copyProposalStart)
	end := strings.Index(text, copyProposalEnd)
	if start < 0 || end < 0 || end <= start {
		return nil, false
	}
	block := text[start+len(copyProposalStart) : end]

	headline := firstMatch(proposalHeadlineRe, block)
	primaryText := firstMatch(proposalPrimaryTextRe, block)
	cta := firstMatch(proposalCTARe, block)
	if headline == "" || primaryText == "" || cta == "" {
		return nil, false
	}
	return &ConfirmedCopy{
		Headline:    headline,
		PrimaryText: primaryText,
		CTAText:     cta,
	}, true
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// copyProposalSchema is the structured-output fallback used when the reply
// mentions a proposal but the delimiter block does not parse.
var copyProposalSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"has_proposal": map[string]any{"type": "boolean"},
		"headline":     map[string]any{"type": "string"},
		"primary_text": map[string]any{"type": "string"},
		"cta":          map[string]any{"type": "string"},
	},
	"required":             []string{"has_proposal", "headline", "primary_text", "cta"},
	"additionalProperties": false,
}

func proposalFromJSON(obj map[string]any) (*ConfirmedCopy, bool) {
	has, _ := obj["has_proposal"].(bool)
	if !has {
		return nil, false
	}
	headline, _ := obj["headline"].(string)
	primaryText, _ := obj["primary_text"].(string)
	cta, _ := obj["cta"].(string)
	headline = strings.TrimSpace(headline)
	primaryText = strings.TrimSpace(primaryText)
	cta = strings.TrimSpace(cta)
	if headline == "" || primaryText == "" || cta == "" {
		return nil, false
	}
	return &ConfirmedCopy{Headline: headline, PrimaryText: primaryText, CTAText: cta}, true
}

func buildBriefSystemPrompt(brief *types.CreativeBrief, brand *types.BrandMemory) string {
	var b strings.Builder
	b.WriteString("You are an ad copywriter helping a marketer shape a creative brief into final ad copy.\n")

	if brand != nil {
		fmt.Fprintf(&b, "Brand: %s", brand.BrandName)
		if brand.Tagline != "" {
			fmt.Fprintf(&b, " (%s)", brand.Tagline)
		}
		b.WriteString("\n")
		voice := brand.VoiceRules.Data()
		if voice.Tone != "" {
			fmt.Fprintf(&b, "Voice: %s\n", voice.Tone)
		}
		if len(brand.DoList) > 0 {
			fmt.Fprintf(&b, "Do: %s\n", strings.Join(brand.DoList, "; "))
		}
		if len(brand.DontList) > 0 {
			fmt.Fprintf(&b, "Don't: %s\n", strings.Join(brand.DontList, "; "))
		}
	}

	fmt.Fprintf(&b, "Campaign objective: %s\n", brief.Objective)
	fmt.Fprintf(&b, "Target audience: %s\n", brief.TargetAudience)
	fmt.Fprintf(&b, "Product or service: %s\n", brief.ProductService)
	if brief.KeyMessage != "" {
		fmt.Fprintf(&b, "Key message: %s\n", brief.KeyMessage)
	}

	b.WriteString("Discuss and refine the copy with the user. When you are ready to propose final copy, ")
	b.WriteString("emit it inside a block formatted exactly like this:\n")
	fmt.Fprintf(&b, "%s\nHEADLINE: <headline>\nPRIMARY_TEXT: <primary text>\nCTA: <short call to action>\n%s\n", copyProposalStart, copyProposalEnd)
	b.WriteString("Keep the CTA under 20 characters so it fits a rendered button.")
	return b.String()
}
