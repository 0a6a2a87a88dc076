package classifier

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/phototag/internal/tags"
)

// Limit bounds the number of tags in a category. Max is requested in the
// prompt only; replies are held to Min.
type Limit struct {
	Min int
	Max int
}

var limits = map[tags.Category]Limit{
	tags.Content: {Min: 2, Max: 6},
	tags.People:  {Min: 1, Max: 2},
	tags.Mood:    {Min: 1, Max: 3},
	tags.Color:   {Min: 2, Max: 4},
	tags.Quality: {Min: 2, Max: 3},
}

// Limits returns the requested tag count bounds for a category.
func Limits(c tags.Category) Limit {
	return limits[c]
}

var guidance = map[tags.Category]string{
	tags.Content: "main subjects, objects, and setting",
	tags.People:  `"people" or "no_people"; when "people", add exactly one of "close" or "distant"`,
	tags.Mood:    "the feeling the image conveys",
	tags.Color:   "dominant colors",
	tags.Quality: "technical traits such as sharp, blurry, well_lit, dark, high_contrast",
}

var prompt = buildPrompt()

// Prompt returns the fixed instruction sent with every image.
func Prompt() string {
	return prompt
}

func buildPrompt() string {
	var b strings.Builder

	b.WriteString("You are a photo tagging service. Describe the attached image with short lowercase tags.\n\n")
	b.WriteString("Respond with a single JSON object and nothing else. It must have exactly these keys:\n")

	for _, c := range tags.Categories() {
		l := limits[c]
		fmt.Fprintf(&b, "- %q: array of %d to %d strings; %s\n", string(c), l.Min, l.Max, guidance[c])
	}

	b.WriteString(`- "confidence": number between 0.0 and 1.0 for how certain you are about the tags` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString(`- The "people" array must contain exactly one of "people" or "no_people".` + "\n")
	b.WriteString(`- If it contains "people", it must also contain exactly one of "close" or "distant".` + "\n")
	b.WriteString("- Use single words or words joined by underscores. Do not repeat a tag.\n")
	b.WriteString("- Do not wrap the JSON in markdown or add commentary.\n")

	return b.String()
}
