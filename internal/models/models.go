// Package models defines the core data structures for IntakePipe.
//
// It includes the session, flow definition, and lead types shared across
// modules, plus the JSON envelope returned by every API endpoint.
package models

// APIStatus represents the status values used in API responses.
type APIStatus string

const (
	// APIStatusOK indicates a successful operation.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed operation.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// Platform identifies the channel an inbound message originated from.
type Platform string

const (
	// PlatformWeb marks messages arriving through the website widget.
	PlatformWeb Platform = "web"
	// PlatformWhatsApp marks messages arriving through the WhatsApp bridge.
	PlatformWhatsApp Platform = "whatsapp"
)

// Marker returns the context tag prepended to messages before generation so
// the model knows which channel it is replying on.
func (p Platform) Marker() string {
	switch p {
	case PlatformWhatsApp:
		return "[WhatsApp]"
	default:
		return "[Website]"
	}
}
