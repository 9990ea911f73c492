package hci

// Command is an HCI command [Vol 2, Part E, 5.4.1].
type Command interface {
	OpCode() int
	Len() int
	Marshal([]byte) error
}

// CommandRP is the return parameters of a command that completes with
// a Command Complete event.
type CommandRP interface {
	Unmarshal(b []byte) error
}

// Sender issues commands to the controller. Security commands complete
// asynchronously; a returned error means the command was not accepted.
type Sender interface {
	Send(Command) error
}
