package domain

// Fixed replies. Clients and tests match these byte for byte.
const (
	WelcomeText = "Hi! I'm here to help with CrispAI. Could I get your name and email for personalized assistance?"

	FallbackText = "I'm experiencing technical difficulties right now. Please contact our team directly at info@crispai.ca or +1 (343) 580-1393 for immediate assistance."

	EmptyCompletionText = "I apologize, but I'm having trouble processing your request right now. Please try again or contact us directly at info@crispai.ca"

	MessageRequiredText = "Message is required"

	InternalErrorText = "Sorry, I'm experiencing technical difficulties. Please contact our team directly."

	SessionNotFoundText = "Session not found"
)
