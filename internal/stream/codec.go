package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Codec converts between wire frames and ticks.
type Codec interface {
	// Decode parses one frame. arrival stands in for a missing timestamp.
	Decode(raw []byte, arrival time.Time) (domain.Tick, error)
	// Encode produces one frame for t.
	Encode(t domain.Tick) ([]byte, error)
	// Binary reports whether frames are sent as binary websocket messages.
	Binary() bool
	Name() string
}

// NewCodec returns the codec registered under name ("json" or "proto").
func NewCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec{}, nil
	case "proto", "protobuf":
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("stream: unknown codec %q (valid: json, proto)", name)
	}
}

// JSONCodec handles {"time": ..., "price": ...} text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }
func (JSONCodec) Binary() bool { return false }

// Decode parses a JSON object frame. Numbers are kept exact until the
// price is validated.
func (JSONCodec) Decode(raw []byte, arrival time.Time) (domain.Tick, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return domain.Tick{}, fmt.Errorf("stream: json: %v: %w", err, domain.ErrMalformedTick)
	}
	return tickFromFields(fields, arrival)
}

// Encode writes the time as unix milliseconds.
func (JSONCodec) Encode(t domain.Tick) ([]byte, error) {
	return json.Marshal(wireTick{Time: t.Time.UnixMilli(), Price: t.Price})
}

type wireTick struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// ProtoCodec handles binary frames holding a google.protobuf.Struct with the
// same fields as the JSON form.
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return "proto" }
func (ProtoCodec) Binary() bool { return true }

// Decode parses a protobuf Struct carrying the same fields as JSONCodec.
func (ProtoCodec) Decode(raw []byte, arrival time.Time) (domain.Tick, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(raw, &s); err != nil {
		return domain.Tick{}, fmt.Errorf("stream: proto: %v: %w", err, domain.ErrMalformedTick)
	}
	return tickFromFields(s.AsMap(), arrival)
}

func (ProtoCodec) Encode(t domain.Tick) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"time":  float64(t.Time.UnixMilli()),
		"price": t.Price,
	})
	if err != nil {
		return nil, fmt.Errorf("stream: proto: encode: %w", err)
	}
	return proto.Marshal(s)
}

func tickFromFields(fields map[string]any, arrival time.Time) (domain.Tick, error) {
	if fields == nil {
		return domain.Tick{}, fmt.Errorf("stream: empty frame: %w", domain.ErrMalformedTick)
	}
	price, err := parsePrice(fields["price"])
	if err != nil {
		return domain.Tick{}, err
	}
	ts, err := parseTime(fields["time"], arrival)
	if err != nil {
		return domain.Tick{}, err
	}
	return domain.Tick{Time: ts, Price: price}, nil
}

func parsePrice(v any) (float64, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch p := v.(type) {
	case nil:
		return 0, fmt.Errorf("stream: missing price: %w", domain.ErrMalformedTick)
	case json.Number:
		d, err = decimal.NewFromString(p.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(p))
	case float64:
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, fmt.Errorf("stream: price %v: %w", p, domain.ErrMalformedTick)
		}
		d = decimal.NewFromFloat(p)
	default:
		return 0, fmt.Errorf("stream: price has type %T: %w", v, domain.ErrMalformedTick)
	}
	if err != nil {
		return 0, fmt.Errorf("stream: price %v: %w", v, domain.ErrMalformedTick)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("stream: price %s not positive: %w", d, domain.ErrMalformedTick)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || f <= 0 {
		return 0, fmt.Errorf("stream: price %s out of range: %w", d, domain.ErrMalformedTick)
	}
	return f, nil
}

// maxUnixMillis is the latest millisecond timestamp that fits in int64
// nanoseconds.
var maxUnixMillis = decimal.NewFromInt(math.MaxInt64 / int64(time.Millisecond))

// parseTime accepts RFC 3339 strings and unix milliseconds. A missing
// timestamp means the tick is stamped with its arrival time.
func parseTime(v any, arrival time.Time) (time.Time, error) {
	var ms decimal.Decimal
	switch tv := v.(type) {
	case nil:
		return arrival, nil
	case string:
		s := strings.TrimSpace(tv)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("stream: time %q: %w", tv, domain.ErrMalformedTick)
		}
		ms = d
	case json.Number:
		d, err := decimal.NewFromString(tv.String())
		if err != nil {
			return time.Time{}, fmt.Errorf("stream: time %s: %w", tv, domain.ErrMalformedTick)
		}
		ms = d
	case float64:
		if math.IsNaN(tv) || math.IsInf(tv, 0) {
			return time.Time{}, fmt.Errorf("stream: time %v: %w", tv, domain.ErrMalformedTick)
		}
		ms = decimal.NewFromFloat(tv)
	default:
		return time.Time{}, fmt.Errorf("stream: time has type %T: %w", v, domain.ErrMalformedTick)
	}
	if ms.IsNegative() {
		return time.Time{}, fmt.Errorf("stream: negative time %s: %w", ms, domain.ErrMalformedTick)
	}
	if ms.GreaterThan(maxUnixMillis) {
		return time.Time{}, fmt.Errorf("stream: time %s out of range: %w", ms, domain.ErrMalformedTick)
	}
	ns := ms.Mul(decimal.NewFromInt(int64(time.Millisecond))).IntPart()
	return time.Unix(0, ns).UTC(), nil
}
