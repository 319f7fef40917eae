package task

// OutKind tags the variants a worker streams back for a running task
// (§4.3: "New(total)", "Adv(succ_delta, bytes_delta)", "Log(line)",
// "Succ", "Fail(reason)").
type OutKind int

const (
	OutNew OutKind = iota
	OutAdv
	OutLog
	OutSucc
	OutFail
)

// Out is the flat tagged-union message a worker sends on its out channel,
// mirroring cha.FilesOp's shape for the same reason: one struct, one
// switch at the consumer, no interface-typed variant zoo.
type Out struct {
	Kind OutKind

	Total int64 // OutNew

	SuccDelta  int64 // OutAdv
	FailDelta  int64 // OutAdv
	BytesDelta int64 // OutAdv

	Line string // OutLog

	Err error // OutFail
}

func NewTotal(total int64) Out { return Out{Kind: OutNew, Total: total} }
func Adv(succDelta, failDelta, bytesDelta int64) Out {
	return Out{Kind: OutAdv, SuccDelta: succDelta, FailDelta: failDelta, BytesDelta: bytesDelta}
}
func Log(line string) Out { return Out{Kind: OutLog, Line: line} }
func Succ() Out           { return Out{Kind: OutSucc} }
func Fail(err error) Out  { return Out{Kind: OutFail, Err: err} }
