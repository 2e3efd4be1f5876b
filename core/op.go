package core

// Op identifies one of the known media operations. The set is closed: the
// sequencer dispatches an Op to the matching Handler method and treats
// anything outside the enumeration as a failed dispatch, never as a panic.
type Op int

const (
	// OpInvalid is the zero value and the result of parsing an unknown name.
	// Dispatching it fails with ErrUnknownCommand.
	OpInvalid Op = iota
	OpOnEvent
	OpPlayMedia
	OpControlMedia
	OpPlay
	OpPause
	OpSeek
	OpRewind
	OpPrevious
	OpNext
	OpSetTrack
	OpSetTrackPaused
	OpSetAudioTrack
	OpSetSource
	OpSetTrackCurrentTime
	OpSetTrackIndex
	OpSetScale
	OpUpdateMediaState
	OpApplyCSSShadow
)

// opNames maps each Op to its wire name. The names are the ones producers
// use when submitting commands by name.
var opNames = map[Op]string{
	OpOnEvent:             "onEvent",
	OpPlayMedia:           "playMedia",
	OpControlMedia:        "controlMedia",
	OpPlay:                "play",
	OpPause:               "pause",
	OpSeek:                "seek",
	OpRewind:              "rewind",
	OpPrevious:            "previous",
	OpNext:                "next",
	OpSetTrack:            "setTrack",
	OpSetTrackPaused:      "setTrackPaused",
	OpSetAudioTrack:       "setAudioTrack",
	OpSetSource:           "setSource",
	OpSetTrackCurrentTime: "setTrackCurrentTime",
	OpSetTrackIndex:       "setTrackIndex",
	OpSetScale:            "setScale",
	OpUpdateMediaState:    "updateMediaState",
	OpApplyCSSShadow:      "applyCssShadow",
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

// String returns the wire name of the operation, or "invalid" for ops
// outside the known set.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "invalid"
}

// Known reports whether the Op belongs to the closed enumeration.
func (o Op) Known() bool {
	_, ok := opNames[o]
	return ok
}

// ParseOp maps a wire name to its Op. Unknown names yield OpInvalid; the
// sequencer does not pre-validate names, so the miss surfaces later as a
// failed dispatch.
func ParseOp(name string) Op {
	return opsByName[name]
}
