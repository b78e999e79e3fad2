package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
)

// Category selects the prompt template.
type Category string

const (
	CategoryChat     Category = "CHAT"
	CategoryContent  Category = "CONTENT"
	CategoryArt      Category = "ART"
	CategoryCode     Category = "CODE"
	CategoryLearning Category = "LEARNING"
	CategorySocial   Category = "SOCIAL"
)

var (
	// ErrUnknownCategory is returned for a category without a template.
	ErrUnknownCategory = errors.New("unknown prompt category")
	// ErrMissingGoal is returned when the request has no goal.
	ErrMissingGoal = errors.New("prompt goal required")
)

// Request carries the builder form. Fields a category does not use are
// ignored.
type Request struct {
	Category  Category `json:"category"`
	Goal      string   `json:"goal"`
	Audience  string   `json:"audience"`
	Tone      string   `json:"tone"`
	Length    string   `json:"length"`
	Language  string   `json:"language"`
	Format    string   `json:"format"`
	Style     string   `json:"style"`
	Lighting  string   `json:"lighting"`
	TechStack string   `json:"techStack"`
	Platform  string   `json:"platform"`
}

// Defaults returns the form as first shown to a user.
func Defaults() Request {
	return Request{
		Category:  CategoryContent,
		Tone:      "Professional",
		Language:  "Vietnamese",
		Format:    "Paragraph",
		Style:     "Cinematic",
		Lighting:  "Studio Lighting",
		TechStack: "React + Tailwind",
		Platform:  "Facebook",
	}
}

type template func(r Request) string

var templates = map[Category]template{
	CategoryContent: func(r Request) string {
		return fmt.Sprintf("Act as a professional copywriter. Write a %s %s about \"%s\" for a %s audience. Tone: %s. Language: %s. Ensure the content is engaging and optimized.",
			r.Length, r.Format, r.Goal, r.Audience, r.Tone, r.Language)
	},
	CategoryChat: func(r Request) string {
		return fmt.Sprintf("Act as a helpful AI assistant. Context: %s (User context). I want to ask about: \"%s\". Please provide a %s answer in a %s tone. Language: %s.",
			r.Audience, r.Goal, r.Length, r.Tone, r.Language)
	},
	CategoryArt: func(r Request) string {
		return fmt.Sprintf("Generate an image of %s. Style: %s. Lighting: %s. Mood: %s. High resolution, detailed, %s aspect ratio.",
			r.Goal, r.Style, r.Lighting, r.Tone, r.Format)
	},
	CategoryCode: func(r Request) string {
		return fmt.Sprintf("Act as a Senior Software Engineer. Write code for: \"%s\". Tech Stack: %s. Requirements: %s. Ensure code is clean, commented, and follows best practices. Language: %s.",
			r.Goal, r.TechStack, r.Audience, r.Language)
	},
	CategoryLearning: func(r Request) string {
		return fmt.Sprintf("Act as a tutor. Explain the topic \"%s\" to a %s level student. Format: %s. Tone: %s. Language: %s. Include examples.",
			r.Goal, r.Audience, r.Format, r.Tone, r.Language)
	},
	CategorySocial: func(r Request) string {
		return fmt.Sprintf("Create a %s post about \"%s\". Audience: %s. Hook: Catchy and viral. Tone: %s. Include call to action and hashtags. Language: %s.",
			r.Platform, r.Goal, r.Audience, r.Tone, r.Language)
	},
}

// Build renders the prompt for r. Empty optional fields fall back to
// [Defaults]; the category is matched case-insensitively.
func Build(r Request) (string, error) {
	r.Category = Category(strings.ToUpper(strings.TrimSpace(string(r.Category))))
	if r.Category == "" {
		r.Category = CategoryContent
	}
	tmpl, ok := templates[r.Category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, string(r.Category))
	}

	r.Goal = strings.TrimSpace(r.Goal)
	if r.Goal == "" {
		return "", ErrMissingGoal
	}

	return tmpl(withDefaults(r)), nil
}

func withDefaults(r Request) Request {
	d := Defaults()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&r.Tone, d.Tone)
	fill(&r.Language, d.Language)
	fill(&r.Format, d.Format)
	fill(&r.Style, d.Style)
	fill(&r.Lighting, d.Lighting)
	fill(&r.TechStack, d.TechStack)
	fill(&r.Platform, d.Platform)
	return r
}
