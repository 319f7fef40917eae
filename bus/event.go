package bus

// EventKind tags the Event union (§6).
type EventKind uint8

const (
	EventCall EventKind = iota
	EventSeq
	EventRender
	EventKey
	EventMouse
	EventResize
	EventFocus
	EventPaste
	EventQuit
)

var eventKindNames = [...]string{
	EventCall:   "call",
	EventSeq:    "seq",
	EventRender: "render",
	EventKey:    "key",
	EventMouse:  "mouse",
	EventResize: "resize",
	EventFocus:  "focus",
	EventPaste:  "paste",
	EventQuit:   "quit",
}

// String renders the kind as the lower-case name used on the wire (DDS
// message kinds are plain strings, not numeric tags).
func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Modifier is a bitflag set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
)

// KeyEvent is a single key chord.
type KeyEvent struct {
	Rune rune
	Mod  Modifier
}

// MouseButton identifies which button a MouseEvent reports on.
type MouseButton uint8

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseRight
	MouseMiddle
	MouseWheelUp
	MouseWheelDown
)

// MouseEvent is a single terminal mouse report.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Down   bool
}

// ResizeEvent carries the new terminal dimensions in cells.
type ResizeEvent struct {
	Cols, Rows uint16
}

// EventQuit carries the reason the application is shutting down.
type EventQuit struct {
	Code      int
	NoCwdFile bool
}

// Event is the bus's flat tagged union (§6), the same single-struct
// rendering cha.FilesOp and task.Out use for a small closed variant set.
type Event struct {
	Kind EventKind

	Call    Cmd         // EventCall
	Seq     []Cmd       // EventSeq
	Partial bool        // EventRender
	Key     KeyEvent    // EventKey
	Mouse   MouseEvent  // EventMouse
	Resize  ResizeEvent // EventResize
	Focused bool        // EventFocus
	Pasted  string      // EventPaste
	Quit    EventQuit   // EventQuit
}

func CallEvent(c Cmd) Event       { return Event{Kind: EventCall, Call: c} }
func SeqEvent(cmds []Cmd) Event   { return Event{Kind: EventSeq, Seq: cmds} }
func RenderEvent(partial bool) Event { return Event{Kind: EventRender, Partial: partial} }
func KeyEventOf(k KeyEvent) Event { return Event{Kind: EventKey, Key: k} }
func MouseEventOf(m MouseEvent) Event { return Event{Kind: EventMouse, Mouse: m} }
func ResizeEventOf(r ResizeEvent) Event { return Event{Kind: EventResize, Resize: r} }
func FocusEvent(focused bool) Event { return Event{Kind: EventFocus, Focused: focused} }
func PasteEvent(s string) Event   { return Event{Kind: EventPaste, Pasted: s} }
func QuitEvent(q EventQuit) Event { return Event{Kind: EventQuit, Quit: q} }
