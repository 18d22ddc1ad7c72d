package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/uhyunpark/papertrader/pkg/trade"
)

func encodeEvent(ev trade.OrderEvent) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}

func decodeEvent(b []byte) (trade.OrderEvent, error) {
	var ev trade.OrderEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return trade.OrderEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return ev, nil
}

func uint64Key(v uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], v)
	return k[:]
}
