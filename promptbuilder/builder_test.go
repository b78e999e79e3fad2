package promptbuilder

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildTemplates(t *testing.T) {
	base := Request{
		Goal:      "launch day",
		Audience:  "students",
		Tone:      "Casual",
		Length:    "short",
		Language:  "English",
		Format:    "List",
		Style:     "Anime",
		Lighting:  "Neon",
		TechStack: "Go",
		Platform:  "TikTok",
	}

	tests := []struct {
		category Category
		want     string
	}{
		{CategoryContent, `Act as a professional copywriter. Write a short List about "launch day" for a students audience. Tone: Casual. Language: English. Ensure the content is engaging and optimized.`},
		{CategoryChat, `Act as a helpful AI assistant. Context: students (User context). I want to ask about: "launch day". Please provide a short answer in a Casual tone. Language: English.`},
		{CategoryArt, `Generate an image of launch day. Style: Anime. Lighting: Neon. Mood: Casual. High resolution, detailed, List aspect ratio.`},
		{CategoryCode, `Act as a Senior Software Engineer. Write code for: "launch day". Tech Stack: Go. Requirements: students. Ensure code is clean, commented, and follows best practices. Language: English.`},
		{CategoryLearning, `Act as a tutor. Explain the topic "launch day" to a students level student. Format: List. Tone: Casual. Language: English. Include examples.`},
		{CategorySocial, `Create a TikTok post about "launch day". Audience: students. Hook: Catchy and viral. Tone: Casual. Include call to action and hashtags. Language: English.`},
	}

	for _, tc := range tests {
		t.Run(string(tc.category), func(t *testing.T) {
			r := base
			r.Category = tc.category
			got, err := Build(r)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got  %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestBuildFillsDefaults(t *testing.T) {
	got, err := Build(Request{Category: "social", Goal: "  new menu "})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.HasPrefix(got, `Create a Facebook post about "new menu".`) {
		t.Fatalf("unexpected prompt: %q", got)
	}
	if !strings.Contains(got, "Tone: Professional.") || !strings.HasSuffix(got, "Language: Vietnamese.") {
		t.Fatalf("defaults not applied: %q", got)
	}

	got, err = Build(Request{Goal: "x"})
	if err != nil || !strings.HasPrefix(got, "Act as a professional copywriter.") {
		t.Fatalf("empty category should use CONTENT: %q %v", got, err)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(Request{Category: "POEM", Goal: "x"}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := Build(Request{Category: CategoryArt, Goal: "   "}); !errors.Is(err, ErrMissingGoal) {
		t.Fatalf("expected ErrMissingGoal, got %v", err)
	}
}
