package google

// part is a single text part in Gemini content.
type part struct {
	Text string `json:"text"`
}

// content is a Gemini content block. Role is "user" or "model".
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// generateRequest is the Gemini generateContent request format.
type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

// generateResponse is the Gemini generateContent response format. In
// streaming mode each SSE data payload carries the same shape with
// incremental parts.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}
