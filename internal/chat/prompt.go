package chat

import (
	"fmt"
	"strings"

	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/rag/vectorstore"
)

// BuildPrompt assembles the generation prompt: retrieved chunks labeled by
// source file, a bounded window of recent turns, then the question. With no
// retrieved context it degrades to a history-only prompt; generation is
// never blocked on missing context.
func BuildPrompt(matches []vectorstore.Match, history []chatmodel.Message, question string) string {
	var b strings.Builder

	if len(matches) > 0 {
		b.WriteString("DOCUMENT CONTEXT:\n")
		for _, m := range matches {
			label := m.Payload.Filename
			if label == "" {
				label = "unknown source"
			}
			fmt.Fprintf(&b, "[Source: %s]\n%s\n\n", label, m.Content)
		}
	} else {
		b.WriteString("No document context is available for this question. Answer from the conversation so far and general knowledge, and say when you are unsure.\n\n")
	}

	if len(history) > 0 {
		b.WriteString("RECENT CONVERSATION:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "USER QUESTION:\n%s", question)
	return b.String()
}
