package domain

// Command is a client request to the board. The set of implementations is
// closed; consumers dispatch with a type switch over the types below.
type Command interface {
	// EventName is the wire event carrying this command.
	EventName() string
	isCommand()
}

// CreateTask appends a new task with default fields.
type CreateTask struct {
	Text string `json:"text"`
}

// MoveTask overwrites a task's status.
type MoveTask struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// UpdateTask merges Patch into the task with the given ID.
type UpdateTask struct {
	ID    string
	Patch TaskPatch
}

// DeleteTask removes a task.
type DeleteTask struct {
	ID string
}

// RequestSync asks for the current snapshot without mutating anything.
type RequestSync struct{}

func (CreateTask) EventName() string  { return EventCreateTask }
func (MoveTask) EventName() string    { return EventMoveTask }
func (UpdateTask) EventName() string  { return EventUpdateTask }
func (DeleteTask) EventName() string  { return EventDeleteTask }
func (RequestSync) EventName() string { return EventSyncTasks }

func (CreateTask) isCommand()  {}
func (MoveTask) isCommand()    {}
func (UpdateTask) isCommand()  {}
func (DeleteTask) isCommand()  {}
func (RequestSync) isCommand() {}
