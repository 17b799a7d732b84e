package draftgen

import (
	"fmt"
	"strings"

	"github.com/mcdev12/mailagent/go/clients/llm_client"
	"github.com/mcdev12/mailagent/go/internal/models"
)

const baseSystemPrompt = `
You are an email-writing assistant for business workflows.

The user will describe:
- who they are emailing,
- why,
- key points and context.

You MUST respond ONLY with a valid JSON object, no extra text:

{
  "subject": "...",
  "body": "..."
}

The object must contain exactly the keys "subject" and "body", both strings.
`

// defaultToneGuidance holds one line of guidance per tone. A style catalogue may override entries.
var defaultToneGuidance = map[models.Tone]string{
	models.ToneFormal:      "Use courteous, precise language and a traditional greeting and sign-off.",
	models.ToneFriendly:    "Be warm and relaxed, as if writing to a colleague you like.",
	models.ToneBusiness:    "Be direct and professional; lead with the purpose and end with a clear next step.",
	models.ToneApologetic:  "Acknowledge the problem plainly, take responsibility, and state how it will be fixed.",
	models.ToneAngry:       "Be firm and clear about the problem and what you expect.",
	models.TonePromotional: "Be upbeat and persuasive; highlight the benefit and include a call to action.",
}

// BuildPrompt composes the system and user segments for one generation request.
func BuildPrompt(req models.GenerationRequest, guidance map[models.Tone]string) []llm_client.Message {
	return []llm_client.Message{
		{Role: llm_client.RoleSystem, Content: systemPrompt(req.Tone, req.Language, guidance)},
		{Role: llm_client.RoleUser, Content: req.Instruction},
	}
}

func systemPrompt(tone models.Tone, language string, guidance map[models.Tone]string) string {
	toneNames := make([]string, 0, len(models.AllTones()))
	for _, t := range models.AllTones() {
		toneNames = append(toneNames, string(t))
	}

	line, ok := guidance[tone]
	if !ok || strings.TrimSpace(line) == "" {
		line = defaultToneGuidance[tone]
	}

	var sb strings.Builder
	sb.WriteString(baseSystemPrompt)
	sb.WriteString("\nRules:\n")
	fmt.Fprintf(&sb, "- Language: %s\n", language)
	fmt.Fprintf(&sb, "- Tone: %s\n", tone)
	fmt.Fprintf(&sb, "  Tone options: %s.\n", strings.Join(toneNames, ", "))
	fmt.Fprintf(&sb, "  Guidance: %s\n", line)
	sb.WriteString("- If tone is \"angry\", keep it professional and respectful (no insults, no threats, never abusive).\n")
	sb.WriteString("- The email must be clear, concise, and ready to send.\n")
	return sb.String()
}
