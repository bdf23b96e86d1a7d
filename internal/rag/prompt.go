package rag

import (
	"strings"

	"github.com/xxxsen/medassist/internal/model"
)

const FallbackAnswer = "I apologize, but I don't have enough information to answer that question. Please consult a healthcare provider for advice about your situation."

const GenericFailureAnswer = "I apologize, but I encountered an error while processing your question. Please try again."

const BasePolicy = `You are a medical chatbot assistant. Your role is to provide helpful medical information and guidance.

Key Guidelines:
1. Keep responses concise (maximum 3 lines, 500 characters)
2. Be professional and direct
3. Focus on factual medical information
4. Prefer terms that are common to the general public over specialist terminology
5. Include only essential disclaimers when necessary
6. When asked about an uploaded document, summarize it briefly including its positive and negative findings and its conclusion
7. Ask questions to clarify user needs
8. Answer only from the provided context and conversation. If they do not contain the answer, reply exactly: "` + FallbackAnswer + `"

Medical Disclaimer:
- This is an AI assistant providing general information only. Consult healthcare providers for medical decisions.`

// Compose builds the system prompt. The output depends only on its inputs.
func Compose(base string, profile *model.HealthProfile, history string) string {
	var sb strings.Builder
	sb.WriteString(base)
	if block := healthBlock(profile); block != "" {
		sb.WriteString("\n\nUser's Health Context:\n")
		sb.WriteString(block)
	}
	if history = strings.TrimSpace(history); history != "" {
		sb.WriteString("\n\nPrevious conversation context:\n")
		sb.WriteString(history)
	}
	return sb.String()
}

func healthBlock(profile *model.HealthProfile) string {
	if profile == nil {
		return ""
	}
	var lines []string
	if s := strings.TrimSpace(profile.Symptoms); s != "" {
		lines = append(lines, "User's reported symptoms: "+s)
	}
	if d := strings.TrimSpace(profile.Diseases); d != "" {
		lines = append(lines, "User's known conditions: "+d)
	}
	return strings.Join(lines, "\n")
}
