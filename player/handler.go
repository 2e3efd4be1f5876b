package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/tvkit/mediaseq/core"
	"github.com/tvkit/mediaseq/logging"
)

// Payload and state errors reported by the reference handler. The sequencer
// logs and swallows them; tests match with errors.Is.
var (
	// ErrBadPayload reports a missing or mistyped payload field.
	ErrBadPayload = errors.New("bad command payload")
	// ErrNothingToPlay reports a play request with no source and no tracks.
	ErrNothingToPlay = errors.New("nothing to play")
	// ErrTrackOutOfRange reports a track index outside the playlist.
	ErrTrackOutOfRange = errors.New("track index out of range")
	// ErrUnknownAction reports an unrecognized controlMedia action.
	ErrUnknownAction = errors.New("unknown control action")
	// ErrUnknownAudioTrack reports an audio track the current track lacks.
	ErrUnknownAudioTrack = errors.New("unknown audio track")
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Logger receives debug traces of state transitions. Defaults to
	// NoOpLogger if nil.
	Logger logging.Logger

	// Tracks seeds the playlist. The first track becomes current.
	Tracks []Track
}

// State is a point-in-time copy of the player's externally visible state.
type State struct {
	Playing     bool
	Paused      bool
	TrackIndex  int
	CurrentTime float64
	Scale       float64
	Source      string
	AudioTrack  string
	Shadow      string
	LastEvent   string
}

// Handler is an in-memory media player implementing core.Handler. All
// methods are safe for concurrent use, though under a sequencer at most one
// runs at a time.
type Handler struct {
	logger logging.Logger

	mu       sync.Mutex
	tracks   []Track
	state    State
	stateDoc []byte // arbitrary JSON merged in via updateMediaState
}

// Compile-time interface check.
var _ core.Handler = (*Handler)(nil)

// New constructs a Handler with optional overrides.
func New(optFns ...func(o *Options)) *Handler {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	h := &Handler{
		logger:   opts.Logger,
		tracks:   opts.Tracks,
		stateDoc: []byte(`{}`),
	}

	h.state.Scale = 1.0
	h.state.TrackIndex = -1
	if len(h.tracks) > 0 {
		h.state.TrackIndex = 0
		h.state.Source = h.tracks[0].URL
	}

	return h
}

// State returns a copy of the current player state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Tracks returns a copy of the playlist.
func (h *Handler) Tracks() []Track {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Track, len(h.tracks))
	copy(out, h.tracks)
	return out
}

// Snapshot renders the full player state as a JSON document: the fields
// tracked natively plus everything merged in via UpdateMediaState.
func (h *Handler) Snapshot() (json.RawMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc := h.stateDoc
	var err error
	for _, kv := range []struct {
		key string
		val any
	}{
		{"playing", h.state.Playing},
		{"paused", h.state.Paused},
		{"trackIndex", h.state.TrackIndex},
		{"currentTime", h.state.CurrentTime},
		{"scale", h.state.Scale},
		{"source", h.state.Source},
		{"audioTrack", h.state.AudioTrack},
		{"shadow", h.state.Shadow},
	} {
		doc, err = sjson.SetBytes(doc, kv.key, kv.val)
		if err != nil {
			return nil, fmt.Errorf("failed to render state snapshot: %w", err)
		}
	}

	return doc, nil
}

// OnEvent records an external media event. Requires a "type" string.
func (h *Handler) OnEvent(_ context.Context, payload json.RawMessage) error {
	typ, err := getString(payload, "type")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.LastEvent = typ
	h.logger.Debug("media event", "type", typ)
	return nil
}

// PlayMedia starts playback, optionally of a new source ("url") at an
// optional offset ("time").
func (h *Handler) PlayMedia(_ context.Context, payload json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if url := gjson.GetBytes(payload, "url"); url.Type == gjson.String {
		h.state.Source = url.String()
		h.state.CurrentTime = 0
	}

	if at := gjson.GetBytes(payload, "time"); at.Type == gjson.Number {
		h.state.CurrentTime = math.Max(0, at.Float())
	}

	return h.playLocked()
}

// ControlMedia re-dispatches a generic {action: ...} request to the matching
// playback operation. Unknown actions fail like any other bad command.
func (h *Handler) ControlMedia(_ context.Context, payload json.RawMessage) error {
	action, err := getString(payload, "action")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch action {
	case "play":
		return h.playLocked()
	case "pause":
		h.state.Paused = true
		return nil
	case "rewind":
		h.state.CurrentTime = 0
		return nil
	case "next":
		return h.selectTrackLocked(h.state.TrackIndex + 1)
	case "previous":
		return h.selectTrackLocked(h.state.TrackIndex - 1)
	case "stop":
		h.state.Playing = false
		h.state.Paused = false
		h.state.CurrentTime = 0
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Play resumes playback of the current source.
func (h *Handler) Play(_ context.Context, _ json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.playLocked()
}

// Pause suspends playback without losing position.
func (h *Handler) Pause(_ context.Context, _ json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.Paused = true
	return nil
}

// Seek jumps to an absolute position. Requires a "time" number; the value
// is clamped to the current track's duration when one is known.
func (h *Handler) Seek(_ context.Context, payload json.RawMessage) error {
	at, err := getNumber(payload, "time")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.CurrentTime = h.clampTimeLocked(at)
	return nil
}

// Rewind returns playback to the start of the current source.
func (h *Handler) Rewind(_ context.Context, _ json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.CurrentTime = 0
	return nil
}

// Previous selects the preceding playlist track.
func (h *Handler) Previous(_ context.Context, _ json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.selectTrackLocked(h.state.TrackIndex - 1)
}

// Next selects the following playlist track.
func (h *Handler) Next(_ context.Context, _ json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.selectTrackLocked(h.state.TrackIndex + 1)
}

// SetTrack selects a track by "index", or replaces the current source when
// only a "url" is given.
func (h *Handler) SetTrack(_ context.Context, payload json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if idx := gjson.GetBytes(payload, "index"); idx.Type == gjson.Number {
		return h.selectTrackLocked(int(idx.Int()))
	}

	if url := gjson.GetBytes(payload, "url"); url.Type == gjson.String {
		h.state.Source = url.String()
		h.state.CurrentTime = 0
		h.state.AudioTrack = ""
		return nil
	}

	return fmt.Errorf("%w: setTrack needs \"index\" or \"url\"", ErrBadPayload)
}

// SetTrackPaused sets the paused flag explicitly. Requires a "paused" bool.
func (h *Handler) SetTrackPaused(_ context.Context, payload json.RawMessage) error {
	paused, err := getBool(payload, "paused")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.Paused = paused
	return nil
}

// SetAudioTrack selects an audio track by name. Requires a "track" string;
// when the current playlist track declares audio tracks, the name must be
// one of them.
func (h *Handler) SetAudioTrack(_ context.Context, payload json.RawMessage) error {
	name, err := getString(payload, "track")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if t := h.currentTrackLocked(); t != nil && len(t.AudioTracks) > 0 {
		found := false
		for _, at := range t.AudioTracks {
			if at == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrUnknownAudioTrack, name)
		}
	}

	h.state.AudioTrack = name
	return nil
}

// SetSource points playback at a new media URL. Requires a "url" string.
func (h *Handler) SetSource(_ context.Context, payload json.RawMessage) error {
	url, err := getString(payload, "url")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.Source = url
	h.state.CurrentTime = 0
	h.state.AudioTrack = ""
	return nil
}

// SetTrackCurrentTime sets the playback position. Requires a "time" number.
func (h *Handler) SetTrackCurrentTime(_ context.Context, payload json.RawMessage) error {
	at, err := getNumber(payload, "time")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.CurrentTime = h.clampTimeLocked(at)
	return nil
}

// SetTrackIndex selects a playlist track by position. Requires an "index"
// number within the playlist.
func (h *Handler) SetTrackIndex(_ context.Context, payload json.RawMessage) error {
	idx, err := getNumber(payload, "index")
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.selectTrackLocked(int(idx))
}

// SetScale sets the video scale factor. Requires a positive "scale" number.
func (h *Handler) SetScale(_ context.Context, payload json.RawMessage) error {
	scale, err := getNumber(payload, "scale")
	if err != nil {
		return err
	}
	if scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %v", ErrBadPayload, scale)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.Scale = scale
	return nil
}

// UpdateMediaState merges an arbitrary JSON object into the state document
// returned by Snapshot. Non-object payloads are rejected.
func (h *Handler) UpdateMediaState(_ context.Context, payload json.RawMessage) error {
	parsed := gjson.ParseBytes(payload)
	if !parsed.IsObject() {
		return fmt.Errorf("%w: updateMediaState needs a JSON object", ErrBadPayload)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc := h.stateDoc
	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		doc, err = sjson.SetRawBytes(doc, key.String(), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("failed to merge media state: %w", err)
	}

	h.stateDoc = doc
	return nil
}

// ApplyCSSShadow composes and stores a CSS box-shadow from optional
// "offsetX", "offsetY", "blur" (numbers, px) and "color" (string) fields.
func (h *Handler) ApplyCSSShadow(_ context.Context, payload json.RawMessage) error {
	offsetX := gjson.GetBytes(payload, "offsetX").Float()
	offsetY := gjson.GetBytes(payload, "offsetY").Float()
	blur := gjson.GetBytes(payload, "blur").Float()

	color := "black"
	if c := gjson.GetBytes(payload, "color"); c.Type == gjson.String {
		color = c.String()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.Shadow = fmt.Sprintf("%gpx %gpx %gpx %s", offsetX, offsetY, blur, color)
	return nil
}

// playLocked starts or resumes playback. Caller must hold h.mu.
func (h *Handler) playLocked() error {
	if h.state.Source == "" && len(h.tracks) == 0 {
		return ErrNothingToPlay
	}

	h.state.Playing = true
	h.state.Paused = false
	return nil
}

// selectTrackLocked switches to the playlist track at idx and resets the
// position. Caller must hold h.mu.
func (h *Handler) selectTrackLocked(idx int) error {
	if idx < 0 || idx >= len(h.tracks) {
		return fmt.Errorf("%w: %d of %d", ErrTrackOutOfRange, idx, len(h.tracks))
	}

	h.state.TrackIndex = idx
	h.state.Source = h.tracks[idx].URL
	h.state.CurrentTime = 0
	h.state.AudioTrack = ""
	return nil
}

// currentTrackLocked returns the selected track or nil. Caller must hold h.mu.
func (h *Handler) currentTrackLocked() *Track {
	if h.state.TrackIndex < 0 || h.state.TrackIndex >= len(h.tracks) {
		return nil
	}
	return &h.tracks[h.state.TrackIndex]
}

// clampTimeLocked bounds a position to the current track's duration when
// known. Caller must hold h.mu.
func (h *Handler) clampTimeLocked(at float64) float64 {
	at = math.Max(0, at)
	if t := h.currentTrackLocked(); t != nil && t.Duration > 0 {
		at = math.Min(at, t.Duration)
	}
	return at
}

func getNumber(payload json.RawMessage, path string) (float64, error) {
	v := gjson.GetBytes(payload, path)
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: missing or non-numeric %q", ErrBadPayload, path)
	}
	return v.Float(), nil
}

func getString(payload json.RawMessage, path string) (string, error) {
	v := gjson.GetBytes(payload, path)
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: missing or non-string %q", ErrBadPayload, path)
	}
	return v.String(), nil
}

func getBool(payload json.RawMessage, path string) (bool, error) {
	v := gjson.GetBytes(payload, path)
	if !v.IsBool() {
		return false, fmt.Errorf("%w: missing or non-boolean %q", ErrBadPayload, path)
	}
	return v.Bool(), nil
}
