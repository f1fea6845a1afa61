package ws

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alanyoungcy/tickboard/internal/coords"
	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Outbound frame types.
const (
	frameSeries = "series"
	frameAppend = "append"
	frameView   = "view"
	frameTiles  = "tiles"
	frameStatus = "status"
	frameError  = "error"
)

// Encoding selects how outbound frames are serialised.
type Encoding string

const (
	EncodingJSON  Encoding = "json"
	EncodingProto Encoding = "proto"
)

// ParseEncoding accepts the configuration spelling of an encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingProto:
		return EncodingProto, nil
	default:
		return "", fmt.Errorf("ws: unknown frame encoding %q (valid: json, proto)", s)
	}
}

// envelope is the outbound frame shape. In proto encoding the same document
// travels as a google.protobuf.Struct.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type seriesPayload struct {
	Series []domain.Tick `json:"series"`
}

type appendPayload struct {
	Tick domain.Tick `json:"tick"`
}

type viewPayload struct {
	View    domain.ViewWindow `json:"view"`
	Animate bool              `json:"animate"`
}

type tilesPayload struct {
	Tiles []domain.Tile `json:"tiles"`
}

type statusPayload struct {
	State string `json:"state"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func encodeFrame(enc Encoding, typ string, payload any) ([]byte, error) {
	data, err := json.Marshal(envelope{Type: typ, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("ws: encode %s: %w", typ, err)
	}
	if enc != EncodingProto {
		return data, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ws: encode %s: %w", typ, err)
	}
	s, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, fmt.Errorf("ws: encode %s: %w", typ, err)
	}
	return proto.Marshal(s)
}

// inbound is every message a browser may send.
type inbound struct {
	Type string `json:"type"`

	// gesture
	Kind  domain.GestureKind  `json:"kind"`
	Phase domain.GesturePhase `json:"phase"`

	// click
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// remove_tile
	ID string `json:"id"`

	// view: the window the user panned or zoomed to, plus the price range
	// the chart resolved for it when auto-fitting.
	View     *domain.ViewWindow `json:"view"`
	Resolved *priceRange        `json:"resolved"`

	// resize
	Canvas *coords.Canvas `json:"canvas"`
}

type priceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
