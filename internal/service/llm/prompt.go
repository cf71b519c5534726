package llm

import "strings"

// SystemInstruction establishes the model as a strict, deterministic conversion engine.
// It is fixed text; nothing in the request or configuration changes it.
const SystemInstruction = `You are a highly precise, deterministic file conversion engine.
Your goal is to convert input data from one format to another strictly.
Do not add conversational filler, explanations, or markdown code blocks (unless the target format IS a markup format such as Markdown).
Return ONLY the raw converted content.
If the input is malformed but repairable, repair it and convert.
If the input is completely unrecognizable or incompatible with the target format, return "ERROR: [Reason]".`

// ErrorSentinel is the prefix the model uses to refuse a conversion
const ErrorSentinel = "ERROR:"

// Prompt is the instruction/prompt pair sent to a provider
type Prompt struct {
	SystemInstruction string
	UserPrompt        string
}

// BuildPrompt builds the prompt pair for converting content from one format to another.
// Format names are embedded first, then the content verbatim with no escaping.
func BuildPrompt(content, fromFormat, toFormat string) Prompt {
	var b strings.Builder
	b.Grow(len(content) + 128)
	b.WriteString("Source Format: ")
	b.WriteString(fromFormat)
	b.WriteString("\nTarget Format: ")
	b.WriteString(toFormat)
	b.WriteString("\n\nInput Content:\n")
	b.WriteString(content)
	b.WriteString("\n\nConvert the input content to the target format.\n")

	return Prompt{
		SystemInstruction: SystemInstruction,
		UserPrompt:        b.String(),
	}
}
