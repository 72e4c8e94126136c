package signaling

import (
	"strings"
	"testing"
)

func TestParseClientMessageAccepts(t *testing.T) {
	for name, raw := range map[string]string{
		"create-room":           `{"type":"create-room","username":"Alice"}`,
		"create-room secret":    `{"type":"create-room","username":"Alice","secret":"hunter2"}`,
		"join-room":             `{"type":"join-room","roomId":"ab12cd34","username":"Bob"}`,
		"join-room secret":      `{"type":"join-room","roomId":"ab12cd34","username":"Bob","secret":"hunter2"}`,
		"signal":                `{"type":"signal","to":"conn-b","signal":{"sdp":"v=0","type":"offer"}}`,
		"signal array payload":  `{"type":"signal","to":"conn-b","signal":[1,2,3]}`,
		"mute-update":           `{"type":"mute-update","muted":true}`,
		"mute-update false":     `{"type":"mute-update","muted":false}`,
		"screen-sharing":        `{"type":"screen-sharing","active":true}`,
		"screen-sharing stop":   `{"type":"screen-sharing","active":false}`,
		"leave-room":            `{"type":"leave-room"}`,
		"heartbeat":             `{"type":"heartbeat"}`,
	} {
		if _, err := parseClientMessage([]byte(raw)); err != nil {
			t.Errorf("%s: parseClientMessage(%s) = %v", name, raw, err)
		}
	}
}

func TestParseClientMessageRejects(t *testing.T) {
	for name, raw := range map[string]string{
		"unknown type":            `{"type":"shout"}`,
		"no type":                 `{"username":"Alice"}`,
		"create without username": `{"type":"create-room"}`,
		"join without roomId":     `{"type":"join-room","username":"Bob"}`,
		"join without username":   `{"type":"join-room","roomId":"ab12cd34"}`,
		"signal without to":       `{"type":"signal","signal":{}}`,
		"signal without payload":  `{"type":"signal","to":"conn-b"}`,
		"mute without muted":      `{"type":"mute-update"}`,
		"screen without active":   `{"type":"screen-sharing"}`,
		"heartbeat with fields":   `{"type":"heartbeat","roomId":"ab12cd34"}`,
		"unknown field":           `{"type":"create-room","username":"Alice","color":"red"}`,
		"trailing data":           `{"type":"heartbeat"}{"type":"heartbeat"}`,
		"not json":                `heartbeat`,
	} {
		if _, err := parseClientMessage([]byte(raw)); err == nil {
			t.Errorf("%s: parseClientMessage(%s) succeeded", name, raw)
		}
	}
}

func TestParseClientMessageSignalPayloadUntouched(t *testing.T) {
	raw := `{"type":"signal","to":"conn-b","signal":{"sdp":"v=0\r\no=- 1 1 IN IP4 0.0.0.0","custom":[null,1.5]}}`
	msg, err := parseClientMessage([]byte(raw))
	if err != nil {
		t.Fatalf("parseClientMessage: %v", err)
	}
	if !strings.Contains(string(msg.Signal), `"custom":[null,1.5]`) {
		t.Errorf("signal payload was transformed: %s", msg.Signal)
	}
}
