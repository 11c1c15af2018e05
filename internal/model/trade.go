package model

import (
	"fmt"
	"strings"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Action is what happened to a position.
type Action string

const (
	ActionOpen  Action = "OPEN"
	ActionClose Action = "CLOSE"
)

// TradeType is the "{SIDE}_{ACTION}" label used for chart markers, e.g. LONG_OPEN.
type TradeType string

const (
	LongOpen   TradeType = "LONG_OPEN"
	LongClose  TradeType = "LONG_CLOSE"
	ShortOpen  TradeType = "SHORT_OPEN"
	ShortClose TradeType = "SHORT_CLOSE"
)

// NewTradeType joins a side and an action.
func NewTradeType(side Side, action Action) TradeType {
	return TradeType(string(side) + "_" + string(action))
}

// Split returns the side and action of a trade type.
func (t TradeType) Split() (Side, Action, error) {
	parts := strings.Split(strings.ToUpper(string(t)), "_")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed trade type %q", t)
	}
	side, action := Side(parts[0]), Action(parts[1])
	if side != SideLong && side != SideShort {
		return "", "", fmt.Errorf("unknown side %q in %q", parts[0], t)
	}
	if action != ActionOpen && action != ActionClose {
		return "", "", fmt.Errorf("unknown action %q in %q", parts[1], t)
	}
	return side, action, nil
}

// ParseSide accepts long/short in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideLong:
		return SideLong, nil
	case SideShort:
		return SideShort, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// ParseTradeType validates a label such as "long_open" and returns its canonical form.
func ParseTradeType(s string) (TradeType, error) {
	side, action, err := TradeType(strings.TrimSpace(s)).Split()
	if err != nil {
		return "", err
	}
	return NewTradeType(side, action), nil
}
