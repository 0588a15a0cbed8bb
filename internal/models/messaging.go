package models

// InboundMessage is an incoming chat message from a client, normalized by
// the transport layer. From holds the sender's canonical phone number.
type InboundMessage struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}
