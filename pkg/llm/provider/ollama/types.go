package ollama

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse is the Ollama /api/chat response format. In streaming mode
// each NDJSON line carries a message delta until done is true.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}
