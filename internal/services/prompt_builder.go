package services

import (
	"fmt"
	"strings"

	"github.com/brandpilot/brandpilot-backend/internal/types"
)

// ConfirmedCopy is the locked ad copy a pack is generated from.
type ConfirmedCopy struct {
	Headline    string
	PrimaryText string
	CTAText     string
}

type PromptDirection struct {
	Key         string
	Name        string
	Description string
}

// PackPrompt is one slot of the 3x3 generation grid.
type PackPrompt struct {
	Direction      PromptDirection
	AspectRatio    string
	Prompt         string
	NegativePrompt string
}

type ImagePromptContext struct {
	Brand          *types.BrandMemory
	Copy           ConfirmedCopy
	Direction      PromptDirection
	AspectRatio    string
	StyleDirection string
}

// The three creative directions of every pack. Order matters: pack prompts
// and test fixtures rely on A, B, C.
var promptDirections = []PromptDirection{
	{
		Key:         types.DirectionA,
		Name:        "Bold Product Focus",
		Description: "the product or offer front and center, high contrast, large type, immediate visual punch",
	},
	{
		Key:         types.DirectionB,
		Name:        "Lifestyle Context",
		Description: "the product shown in a real-life moment with people or environment, warm and aspirational",
	},
	{
		Key:         types.DirectionC,
		Name:        "Minimal Premium",
		Description: "generous negative space, restrained palette, editorial typography, premium feel",
	},
}

var packAspectRatios = []string{
	types.AspectRatioSquare,
	types.AspectRatioPortrait,
	types.AspectRatioStory,
}

func PromptDirections() []PromptDirection {
	out := make([]PromptDirection, len(promptDirections))
	copy(out, promptDirections)
	return out
}

func DirectionByKey(key string) (PromptDirection, bool) {
	for _, d := range promptDirections {
		if d.Key == key {
			return d, true
		}
	}
	return PromptDirection{}, false
}

var aspectRatioGuidance = map[string]string{
	types.AspectRatioSquare:   "Square 1:1 composition: center-weighted subject, headline in the upper third, balanced margins on all sides.",
	types.AspectRatioPortrait: "Vertical 4:5 feed composition: subject fills the middle band, headline above, call-to-action in the lower third.",
	types.AspectRatioStory:    "Full-bleed 9:16 story composition: strong vertical flow, headline in the top safe zone, keep the bottom fifth clear of critical text.",
}

const defaultAspectGuidance = "Balanced composition with the headline clearly placed in the upper half of the frame."

const qualityRequirements = "Quality requirements: all text must be sharp and readable, no visual clutter, " +
	"no distorted anatomy or warped objects, use at most 2 font families, maintain high contrast between text and background."

const maxAvoidItems = 5

// CTA strings at or over this length do not fit a rendered button.
const maxRenderableCTALength = 20

type PromptBuilderService interface {
	BuildImagePrompt(p ImagePromptContext) string
	BuildNegativePrompt(brand *types.BrandMemory) string
	BuildPackPrompts(brand *types.BrandMemory, adCopy ConfirmedCopy, styleDirection string) []PackPrompt
	BuildDirectionPrompts(brand *types.BrandMemory, adCopy ConfirmedCopy, directionKey string, styleDirection string) ([]PackPrompt, error)
}

type promptBuilderService struct{}

func NewPromptBuilderService() PromptBuilderService {
	return &promptBuilderService{}
}

// BuildImagePrompt is deterministic: identical context yields byte-identical
// output. Section order is fixed and must not be reshuffled, downstream
// fixtures depend on it.
func (s *promptBuilderService) BuildImagePrompt(p ImagePromptContext) string {
	brand := p.Brand
	var sections []string

	sections = append(sections, fmt.Sprintf("Create a professional advertising image for the brand %q.", brand.BrandName))
	sections = append(sections, fmt.Sprintf("Creative direction %s (%s): %s.", p.Direction.Key, p.Direction.Name, p.Direction.Description))
	sections = append(sections, fmt.Sprintf("The headline text %q must appear in the image, rendered exactly as written and clearly legible.", p.Copy.Headline))

	if p.Copy.CTAText != "" && len(p.Copy.CTAText) < maxRenderableCTALength {
		sections = append(sections, fmt.Sprintf("Include a call-to-action button with the text %q.", p.Copy.CTAText))
	}

	if g, ok := aspectRatioGuidance[p.AspectRatio]; ok {
		sections = append(sections, g)
	} else {
		sections = append(sections, defaultAspectGuidance)
	}

	if colors := formatColorList(brand); colors != "" {
		sections = append(sections, "Use the brand color palette: "+colors+".")
	}

	tokens := brand.StyleTokens.Data()
	if tokens.Vibe != "" || tokens.Mood != "" {
		var tk []string
		if tokens.Vibe != "" {
			tk = append(tk, "vibe: "+tokens.Vibe)
		}
		if tokens.Mood != "" {
			tk = append(tk, "mood: "+tokens.Mood)
		}
		sections = append(sections, "Brand feel ("+strings.Join(tk, ", ")+").")
	}

	sections = append(sections, "Overall layout style: "+brand.LayoutStyle+".")

	if brand.LogoURL != "" {
		sections = append(sections, "Reserve clear space at the "+logoPlacementPhrase(brand.LogoPlacement)+" for the brand logo; do not draw a logo there.")
	}

	if p.StyleDirection != "" {
		sections = append(sections, "Style direction: "+p.StyleDirection+".")
	}

	sections = append(sections, qualityRequirements)

	if avoid := buildAvoidClause(brand.DontList); avoid != "" {
		sections = append(sections, avoid)
	}

	return strings.Join(sections, "\n")
}

// BuildNegativePrompt concatenates the fixed defect list with the brand's
// dont_list and fatigued styles, in that order, without de-duplication.
func (s *promptBuilderService) BuildNegativePrompt(brand *types.BrandMemory) string {
	items := []string{
		"blurry",
		"low quality",
		"low resolution",
		"distorted",
		"deformed",
		"warped text",
		"misspelled text",
		"illegible text",
		"extra fingers",
		"distorted anatomy",
		"watermark",
		"stock photo watermark",
		"oversaturated",
		"cluttered layout",
		"pixelated",
		"jpeg artifacts",
		"cropped subject",
	}
	items = append(items, brand.DontList...)
	items = append(items, brand.FatiguedStyles...)
	return strings.Join(items, ", ")
}

// BuildPackPrompts returns the full 3x3 grid: directions outer loop, aspect
// ratios inner loop. The ordering is part of the contract.
func (s *promptBuilderService) BuildPackPrompts(brand *types.BrandMemory, adCopy ConfirmedCopy, styleDirection string) []PackPrompt {
	out := make([]PackPrompt, 0, len(promptDirections)*len(packAspectRatios))
	for _, dir := range promptDirections {
		out = append(out, s.buildRatioPrompts(brand, adCopy, dir, styleDirection)...)
	}
	return out
}

func (s *promptBuilderService) BuildDirectionPrompts(brand *types.BrandMemory, adCopy ConfirmedCopy, directionKey string, styleDirection string) ([]PackPrompt, error) {
	dir, ok := DirectionByKey(directionKey)
	if !ok {
		return nil, fmt.Errorf("unknown direction %q", directionKey)
	}
	return s.buildRatioPrompts(brand, adCopy, dir, styleDirection), nil
}

func (s *promptBuilderService) buildRatioPrompts(brand *types.BrandMemory, adCopy ConfirmedCopy, dir PromptDirection, styleDirection string) []PackPrompt {
	negative := s.BuildNegativePrompt(brand)
	out := make([]PackPrompt, 0, len(packAspectRatios))
	for _, ratio := range packAspectRatios {
		prompt := s.BuildImagePrompt(ImagePromptContext{
			Brand:          brand,
			Copy:           adCopy,
			Direction:      dir,
			AspectRatio:    ratio,
			StyleDirection: styleDirection,
		})
		out = append(out, PackPrompt{
			Direction:      dir,
			AspectRatio:    ratio,
			Prompt:         prompt,
			NegativePrompt: negative,
		})
	}
	return out
}

func formatColorList(brand *types.BrandMemory) string {
	var parts []string
	for _, c := range brand.PrimaryColors {
		parts = append(parts, formatColor(c))
	}
	for _, c := range brand.SecondaryColors {
		parts = append(parts, formatColor(c))
	}
	return strings.Join(parts, ", ")
}

func formatColor(c types.BrandColor) string {
	if c.Name != "" && c.Hex != "" {
		return fmt.Sprintf("%s (%s)", c.Name, c.Hex)
	}
	if c.Hex != "" {
		return c.Hex
	}
	return c.Name
}

func logoPlacementPhrase(placement string) string {
	switch placement {
	case types.LogoPlacementTopLeft:
		return "top-left corner"
	case types.LogoPlacementTopRight:
		return "top-right corner"
	case types.LogoPlacementBottomLeft:
		return "bottom-left corner"
	case types.LogoPlacementBottomRight:
		return "bottom-right corner"
	case types.LogoPlacementCenter:
		return "center"
	default:
		return "bottom-right corner"
	}
}

func buildAvoidClause(dontList []string) string {
	if len(dontList) == 0 {
		return ""
	}
	items := dontList
	if len(items) > maxAvoidItems {
		items = items[:maxAvoidItems]
	}
	return "AVOID: " + strings.Join(items, ", ") + "."
}
