package obs

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// obs-websocket protocol v5 opcodes. Only the subset this client speaks.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opEvent           = 5
	opRequest         = 6
	opRequestResponse = 7
)

const rpcVersion = 1

// eventSubscriptionScenes selects the Scenes event group, which includes
// CurrentProgramSceneChanged. Nothing else is subscribed.
const eventSubscriptionScenes = 1 << 2

const eventCurrentProgramSceneChanged = "CurrentProgramSceneChanged"

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloPayload struct {
	OBSWebSocketVersion string `json:"obsWebSocketVersion"`
	RPCVersion          int    `json:"rpcVersion"`
	Authentication      *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type identifyPayload struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

type requestPayload struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type requestResponsePayload struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus requestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData"`
}

type requestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment"`
}

type eventPayload struct {
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData"`
}

// RequestError reports a request the server accepted but refused to
// execute, carrying the protocol status code.
type RequestError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("obs: %s failed (code %d): %s", e.RequestType, e.Code, e.Comment)
	}
	return fmt.Sprintf("obs: %s failed (code %d)", e.RequestType, e.Code)
}

// authToken derives the Identify authentication string from the Hello
// challenge: base64(sha256(base64(sha256(password+salt)) + challenge)).
func authToken(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	intermediate := base64.StdEncoding.EncodeToString(secret[:])
	proof := sha256.Sum256([]byte(intermediate + challenge))
	return base64.StdEncoding.EncodeToString(proof[:])
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func marshalEnvelope(op int, d any) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Op: op, D: data})
}
