package signal

import "encoding/json"

// Message types exchanged on the control channel.
const (
	TypeViewerJoined = "viewer-joined"
	TypeViewerLeft   = "viewer-left"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeViewerCount  = "viewer-count"
)

// Message is the wire-level unit on the signaling channel. From/To carry
// peer identifiers and are absent on broadcast-type messages such as
// viewer-count. The shape of Data depends on Type: an SDP blob for
// offer/answer, an ICE candidate descriptor, or a count object.
type Message struct {
	Type string          `json:"type"`
	From string          `json:"from,omitempty"`
	To   string          `json:"to,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type countPayload struct {
	Count int `json:"count"`
}

// NewOffer builds an offer message addressed to a viewer.
func NewOffer(to, sdp string) Message {
	return Message{Type: TypeOffer, To: to, Data: marshalString(sdp)}
}

// NewAnswer builds an answer message from a viewer.
func NewAnswer(from, sdp string) Message {
	return Message{Type: TypeAnswer, From: from, Data: marshalString(sdp)}
}

// NewICECandidate builds a candidate message addressed to a viewer. The
// candidate descriptor is already JSON and is carried verbatim.
func NewICECandidate(to, candidate string) Message {
	return Message{Type: TypeICECandidate, To: to, Data: json.RawMessage(candidate)}
}

// NewViewerCount builds a broadcast viewer-count message.
func NewViewerCount(count int) Message {
	data, _ := json.Marshal(countPayload{Count: count})
	return Message{Type: TypeViewerCount, Data: data}
}

// SDP extracts the session description payload of an offer or answer.
func (m Message) SDP() (string, error) {
	var sdp string
	if err := json.Unmarshal(m.Data, &sdp); err != nil {
		return "", err
	}
	return sdp, nil
}

// Candidate returns the raw ICE candidate descriptor payload.
func (m Message) Candidate() string {
	return string(m.Data)
}

// Count extracts the payload of a viewer-count message.
func (m Message) Count() (int, error) {
	var p countPayload
	if err := json.Unmarshal(m.Data, &p); err != nil {
		return 0, err
	}
	return p.Count, nil
}

func marshalString(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}
