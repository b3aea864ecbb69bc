package domain

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Wire event names. Every frame on the board socket is an Envelope naming
// one of these.
const (
	EventCreateTask = "create-task"
	EventMoveTask   = "move-task"
	EventUpdateTask = "update-task"
	EventDeleteTask = "delete-task"
	EventSyncTasks  = "sync-tasks"
)

var (
	ErrMalformedMessage = errors.New("events: malformed message")
	ErrMalformedPayload = errors.New("events: malformed payload")
	ErrUnknownEvent     = errors.New("events: unknown event")
)

var codec = sonic.ConfigStd

// Envelope is the frame shape shared by both directions.
type Envelope struct {
	Event   string                 `json:"event"`
	Payload sonic.NoCopyRawMessage `json:"payload,omitempty"`
}

type outboundEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type snapshotEnvelope struct {
	Event   string `json:"event"`
	Payload []Task `json:"payload"`
}

// update-task carries the id next to the changed fields in one flat object.
type updateTaskPayload struct {
	ID string `json:"id"`
	TaskPatch
}

type taskRef struct {
	ID string `json:"id"`
}

// DecodeCommand parses a client frame into its typed command.
func DecodeCommand(data []byte) (Command, error) {
	var env Envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Event {
	case EventCreateTask:
		var cmd CreateTask
		if err := decodePayload(env, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case EventMoveTask:
		var cmd MoveTask
		if err := decodePayload(env, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case EventUpdateTask:
		var p updateTaskPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		return UpdateTask{ID: p.ID, Patch: p.TaskPatch}, nil
	case EventDeleteTask:
		var id string
		if err := decodePayload(env, &id); err != nil {
			// Accept {"id": ...} as well as the bare string.
			var ref taskRef
			if err := decodePayload(env, &ref); err != nil {
				return nil, err
			}
			id = ref.ID
		}
		return DeleteTask{ID: id}, nil
	case EventSyncTasks:
		return RequestSync{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s: missing payload", ErrMalformedPayload, env.Event)
	}
	if err := codec.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Event, err)
	}
	return nil
}

// EncodeCommand renders a command as a client frame.
func EncodeCommand(cmd Command) ([]byte, error) {
	var payload any
	switch c := cmd.(type) {
	case CreateTask:
		payload = c
	case MoveTask:
		payload = c
	case UpdateTask:
		payload = updateTaskPayload{ID: c.ID, TaskPatch: c.Patch}
	case DeleteTask:
		payload = c.ID
	case RequestSync:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, cmd)
	}
	return codec.Marshal(outboundEnvelope{Event: cmd.EventName(), Payload: payload})
}

// EncodeSnapshot renders the full task list as a sync-tasks frame. A nil
// slice is sent as an empty array.
func EncodeSnapshot(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	return codec.Marshal(snapshotEnvelope{Event: EventSyncTasks, Payload: tasks})
}

// DecodeSnapshot parses a sync-tasks frame.
func DecodeSnapshot(data []byte) ([]Task, error) {
	var env snapshotEnvelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Event != EventSyncTasks {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if env.Payload == nil {
		env.Payload = []Task{}
	}
	return env.Payload, nil
}
