package insight

import (
	"bytes"
	"fmt"
	"strings"
)

// promptField describes a single output field in the response schema.
type promptField struct {
	name        string
	typ         string
	required    bool
	description string
}

var responseFields = []promptField{
	{"category", "string", true, "one of: pricing, maintenance, guest_experience, revenue"},
	{"explanation", "string", true, "one or two sentences grounding the judgment in the input data"},
	{"confidence", "number", true, "0.0-1.0, how well the data supports the judgment"},
	{"suggested_action", "string", false, "a short imperative next step, when one is warranted"},
}

// buildPrompt renders the analysis prompt for one entity record. The input
// payloads themselves ride separately as the [INPUT JSON] block the client
// appends.
func buildPrompt() string {
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE",
		"You analyze the operational data of one vacation rental property and report actionable, confidence-scored insights.")
	writeSection(&buf, "BACKGROUND",
		"The input maps source names (bookings, reviews, maintenance, pricing) to raw JSON payloads. Any source slot may be absent; reason only from the slots that are present.")
	writeSection(&buf, "OUTPUT", formatFields(responseFields))
	writeSection(&buf, "RULES", formatList([]string{
		"Return strictly JSON: {\"insights\":[{...}]}.",
		"Return zero insights rather than speculating beyond the data.",
		"Never invent numbers that are not derivable from the input.",
		"Flag pricing insights when current_price deviates notably from market_average.",
		"Flag maintenance insights when open issues or guest complaints appear.",
	}))
	writeSection(&buf, "OUTPUT_FORMAT", `{"insights":[{"category":"string","explanation":"string","confidence":0.0,"suggested_action":"string"}]}`)
	return strings.TrimSpace(buf.String()) + "\n"
}

func formatFields(fields []promptField) string {
	var b strings.Builder
	for _, f := range fields {
		req := "optional"
		if f.required {
			req = "required"
		}
		fmt.Fprintf(&b, "- %s (%s, %s): %s\n", f.name, f.typ, req, f.description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
