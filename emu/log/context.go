package log

// A LogContext contributes extra fields to every emitted entry. Hardware
// components register one to attribute log lines to the current execution
// state (program counter, video mode...).
type LogContext interface {
	AddLogContext(e *EntryZ)
}

var contexts []LogContext

func RegisterContext(c LogContext) {
	contexts = append(contexts, c)
}

func UnregisterContext(c LogContext) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}
