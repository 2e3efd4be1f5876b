package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownCommand reports a dispatch miss: the command's Op is outside the
// known enumeration. The sequencer treats it exactly like a handler failure.
var ErrUnknownCommand = errors.New("unknown media command")

// Dispatch invokes the handler operation matching the command's Op, passing
// the payload unchanged, and returns the handler's result. A miss on the
// enumeration returns ErrUnknownCommand instead of panicking.
func Dispatch(ctx context.Context, h Handler, cmd Command) error {
	switch cmd.Op {
	case OpOnEvent:
		return h.OnEvent(ctx, cmd.Payload)
	case OpPlayMedia:
		return h.PlayMedia(ctx, cmd.Payload)
	case OpControlMedia:
		return h.ControlMedia(ctx, cmd.Payload)
	case OpPlay:
		return h.Play(ctx, cmd.Payload)
	case OpPause:
		return h.Pause(ctx, cmd.Payload)
	case OpSeek:
		return h.Seek(ctx, cmd.Payload)
	case OpRewind:
		return h.Rewind(ctx, cmd.Payload)
	case OpPrevious:
		return h.Previous(ctx, cmd.Payload)
	case OpNext:
		return h.Next(ctx, cmd.Payload)
	case OpSetTrack:
		return h.SetTrack(ctx, cmd.Payload)
	case OpSetTrackPaused:
		return h.SetTrackPaused(ctx, cmd.Payload)
	case OpSetAudioTrack:
		return h.SetAudioTrack(ctx, cmd.Payload)
	case OpSetSource:
		return h.SetSource(ctx, cmd.Payload)
	case OpSetTrackCurrentTime:
		return h.SetTrackCurrentTime(ctx, cmd.Payload)
	case OpSetTrackIndex:
		return h.SetTrackIndex(ctx, cmd.Payload)
	case OpSetScale:
		return h.SetScale(ctx, cmd.Payload)
	case OpUpdateMediaState:
		return h.UpdateMediaState(ctx, cmd.Payload)
	case OpApplyCSSShadow:
		return h.ApplyCSSShadow(ctx, cmd.Payload)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
	}
}
