package bitquery

import "encoding/json"

// Frame kinds of the graphql-ws text protocol spoken by the streaming
// endpoint. Client sends connection_init, start and stop; server answers with
// connection_ack, data, ka and error.
const (
	frameConnectionInit = "connection_init"
	frameConnectionAck  = "connection_ack"
	frameStart          = "start"
	frameStop           = "stop"
	frameData           = "data"
	frameKeepAlive      = "ka"
	frameError          = "error"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type startPayload struct {
	Query string `json:"query"`
}

type dataPayload struct {
	Data json.RawMessage `json:"data"`
}
