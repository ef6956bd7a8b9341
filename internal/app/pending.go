package app

// pendingKind tags the destructive action awaiting confirmation.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingDeleteUser
	pendingDeleteTask
)

// pending is the single confirmation the user may be answering.
type pending struct {
	kind pendingKind
	id   string
}

func deleteUser(id string) pending { return pending{kind: pendingDeleteUser, id: id} }

func deleteTask(id string) pending { return pending{kind: pendingDeleteTask, id: id} }

func (p pending) active() bool { return p.kind != pendingNone }

// prompt is the confirmation dialog body.
func (p pending) prompt() string {
	switch p.kind {
	case pendingDeleteTask:
		return "确定要删除此任务吗？此操作无法撤销。"
	case pendingDeleteUser:
		return "确定要删除该员工账号吗？"
	default:
		return ""
	}
}
