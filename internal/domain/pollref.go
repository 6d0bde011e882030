package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const escalationPrefix = "mute_"

// PollRef identifies something members vote on. The three identifier
// spaces never mix: PollID, NativePollID and EscalationKey.
type PollRef interface {
	Namespace() string
	String() string
	pollRef()
}

// PollID id of an ad-hoc poll in the polls table
type PollID int64

// NativePollID transport-issued id of a native poll
type NativePollID string

// EscalationKey vote-to-mute bookkeeping for a target member
type EscalationKey struct {
	Target int64
}

func (PollID) Namespace() string       { return "poll" }
func (NativePollID) Namespace() string { return "native" }
func (EscalationKey) Namespace() string {
	return "escalation"
}

func (id PollID) String() string       { return strconv.FormatInt(int64(id), 10) }
func (id NativePollID) String() string { return string(id) }
func (k EscalationKey) String() string {
	return escalationPrefix + strconv.FormatInt(k.Target, 10)
}

func (PollID) pollRef()        {}
func (NativePollID) pollRef()  {}
func (EscalationKey) pollRef() {}

// ParsePollRef classifies a raw identifier: "mute_<n>" is an EscalationKey,
// a positive integer is a PollID, anything else is a NativePollID
func ParsePollRef(raw string) (PollRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty poll reference")
	}
	if strings.HasPrefix(raw, escalationPrefix) {
		target, err := strconv.ParseInt(strings.TrimPrefix(raw, escalationPrefix), 10, 64)
		if err != nil || target <= 0 {
			return nil, fmt.Errorf("invalid escalation key %q", raw)
		}
		return EscalationKey{Target: target}, nil
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if id <= 0 {
			return nil, fmt.Errorf("invalid poll id %q", raw)
		}
		return PollID(id), nil
	}
	if len(raw) > 128 {
		return nil, fmt.Errorf("native poll id too long")
	}
	return NativePollID(raw), nil
}
