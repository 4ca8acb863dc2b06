package rag

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/leaflet/pkg/vector"
)

// RefusalAnswer is the sentence the model is instructed to produce when
// the context does not contain the answer. Clients match on it literally.
const RefusalAnswer = "I cannot find this information in the document."

// systemPromptTemplate is the instruction block sent as the system
// message. The [Page X] citation format is a wire contract: clients parse
// it out of answers to link back into the document.
const systemPromptTemplate = `You are an intelligent document assistant. Your task is to answer the user's question based strictly on the provided context.

STRICT RULES:
1. Answer ONLY using the information from the CONTEXT block below.
2. If the answer is not in the context, state "%s"
3. CITATION RULE: You MUST cite the source page for every fact you mention. Use the format [Page X] at the end of the sentence.
4. Do not make up information.

CONTEXT:
%s`

// BuildContext renders retrieval results into the prompt's CONTEXT
// block. Each chunk is labeled with its source page so the model can
// cite it; ranking order is preserved.
func BuildContext(results []vector.QueryResult) string {
	blocks := make([]string, 0, len(results))
	for _, result := range results {
		blocks = append(blocks, fmt.Sprintf("[Page %d]: %s", result.Page, result.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildSystemPrompt assembles the full system prompt around the given
// context block.
func BuildSystemPrompt(context string) string {
	return fmt.Sprintf(systemPromptTemplate, RefusalAnswer, context)
}
