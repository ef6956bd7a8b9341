package state_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/state"
	"github.com/nhle/prodtask/internal/store"
	"github.com/nhle/prodtask/tests/testutil"
)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	kv    *store.SQLiteStore
	clock time.Time
	seq   int
}

func (e *env) now() time.Time { return e.clock }

func (e *env) id() string {
	e.seq++
	return fmt.Sprintf("id-%04d", e.seq)
}

func (e *env) open(t *testing.T) *state.Manager {
	t.Helper()
	m, err := state.Open(context.Background(), e.kv,
		state.WithClock(e.now),
		state.WithIDs(e.id),
	)
	require.NoError(t, err)
	return m
}

func newEnv(t *testing.T) (*env, *state.Manager) {
	t.Helper()
	e := &env{kv: testutil.NewTestStore(t), clock: base}
	return e, e.open(t)
}

func admin(t *testing.T, m *state.Manager) model.User {
	t.Helper()
	u, ok := m.User("u1")
	require.True(t, ok)
	return u
}

func liMing(t *testing.T, m *state.Manager) model.User {
	t.Helper()
	u, ok := m.User("u2")
	require.True(t, ok)
	return u
}

func valveTask() state.TaskInput {
	return state.TaskInput{
		Title:      "检查阀门",
		Priority:   model.PriorityMedium,
		AssigneeID: "u2",
		DueDate:    "2024-01-01",
		CreatorID:  "u1",
	}
}

func TestOpen_SeedsEmptyStorage(t *testing.T) {
	e, m := newEnv(t)

	users := m.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.Equal(t, "admin", users[0].Password)
	assert.Equal(t, "u2", users[1].ID)
	assert.Equal(t, model.RoleEmployee, users[1].Role)
	assert.Equal(t, "123", users[1].Password)

	tasks := m.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, model.StatusInProgress, tasks[0].Status)
	assert.Equal(t, "u2", tasks[0].AssignedToID)
	assert.Empty(t, m.Notifications())

	for _, key := range []string{state.KeyUsers, state.KeyTasks, state.KeyNotifications} {
		_, err := e.kv.Get(context.Background(), key)
		assert.NoError(t, err, key)
	}
}

func TestOpen_BackfillsMissingPasswords(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewTestStore(t)
	require.NoError(t, store.SaveJSON(ctx, kv, state.KeyUsers, []model.User{
		{ID: "a", Name: "Boss", Role: model.RoleAdmin},
		{ID: "b", Name: "Worker", Role: model.RoleEmployee, Password: "pw"},
	}))

	m, err := state.Open(ctx, kv, state.WithDefaultPassword("letmein"))
	require.NoError(t, err)

	a, _ := m.User("a")
	b, _ := m.User("b")
	assert.Equal(t, "letmein", a.Password)
	assert.Equal(t, "pw", b.Password)

	var stored []model.User
	found, err := store.LoadJSON(ctx, kv, state.KeyUsers, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "letmein", stored[0].Password)
}

func TestOpen_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	kv := testutil.NewTestStore(t)
	require.NoError(t, kv.Set(ctx, state.KeyTasks, []byte("{not json")))

	_, err := state.Open(ctx, kv)
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrStorageCorrupt)
}

func TestCollectionsAreIsolated(t *testing.T) {
	_, m := newEnv(t)

	tasks := m.Tasks()
	tasks[0].Title = "changed"
	tasks[0].Feedback = append(tasks[0].Feedback, model.TaskFeedback{ID: "x"})

	users := m.Users()
	users[0].Name = "changed"

	got, ok := m.Task("t1")
	require.True(t, ok)
	assert.NotEqual(t, "changed", got.Title)
	assert.Empty(t, got.Feedback)
	assert.NotEqual(t, "changed", m.Users()[0].Name)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	e, m := newEnv(t)

	u, err := m.CreateUser(ctx, "王芳", "abc")
	require.NoError(t, err)
	assert.Equal(t, model.RoleEmployee, u.Role)
	assert.Equal(t, "abc", u.Password)
	assert.Contains(t, u.Avatar, "seed=")
	require.Len(t, m.Users(), 3)

	reloaded := e.open(t)
	got, ok := reloaded.User(u.ID)
	require.True(t, ok)
	assert.Equal(t, "王芳", got.Name)

	require.NoError(t, m.DeleteUser(ctx, u.ID))
	assert.Len(t, m.Users(), 2)
	_, ok = m.User(u.ID)
	assert.False(t, ok)
}

func TestCreateUser_RejectsBlankFields(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)

	_, err := m.CreateUser(ctx, "   ", "abc")
	require.Error(t, err)
	assert.True(t, state.IsValidation(err))

	var verr *state.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"name"}, verr.Fields)

	_, err = m.CreateUser(ctx, "王芳", "")
	require.ErrorIs(t, err, state.ErrValidation)
	assert.Len(t, m.Users(), 2)
}

func TestDeleteUser_ProtectsAdmins(t *testing.T) {
	_, m := newEnv(t)

	err := m.DeleteUser(context.Background(), "u1")
	require.ErrorIs(t, err, state.ErrProtectedUser)
	assert.Len(t, m.Users(), 2)
}

func TestDeleteUser_UnknownIsNoop(t *testing.T) {
	_, m := newEnv(t)

	require.NoError(t, m.DeleteUser(context.Background(), "ghost"))
	assert.Len(t, m.Users(), 2)
}

func TestDeleteUser_LeavesTasksAlone(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)

	require.NoError(t, m.DeleteUser(ctx, "u2"))
	task, ok := m.Task("t1")
	require.True(t, ok)
	assert.Equal(t, "u2", task.AssignedToID)
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	e, m := newEnv(t)

	task, err := m.CreateTask(ctx, valveTask())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Empty(t, task.Feedback)
	assert.Equal(t, base.UnixMilli(), task.CreatedAt)
	require.Len(t, m.Tasks(), 2)

	ns := m.Notifications()
	require.Len(t, ns, 1)
	assert.Equal(t, "u2", ns[0].UserID)
	assert.Equal(t, task.ID, ns[0].TaskID)
	assert.Equal(t, "新任务分配: 检查阀门", ns[0].Message)
	assert.False(t, ns[0].Read)

	reloaded := e.open(t)
	assert.Len(t, reloaded.Tasks(), 2)
	assert.Len(t, reloaded.Notifications(), 1)
}

func TestCreateTask_DefaultsPriority(t *testing.T) {
	_, m := newEnv(t)

	in := valveTask()
	in.Priority = ""
	task, err := m.CreateTask(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, task.Priority)
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*state.TaskInput)
		field  string
	}{
		{"blank title", func(in *state.TaskInput) { in.Title = " " }, "title"},
		{"no assignee", func(in *state.TaskInput) { in.AssigneeID = "" }, "assignedToId"},
		{"no due date", func(in *state.TaskInput) { in.DueDate = "" }, "dueDate"},
		{"bad priority", func(in *state.TaskInput) { in.Priority = "URGENT" }, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := newEnv(t)
			in := valveTask()
			tt.mutate(&in)

			_, err := m.CreateTask(context.Background(), in)
			var verr *state.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
			assert.Len(t, m.Tasks(), 1)
			assert.Empty(t, m.Notifications())
		})
	}
}

func TestDeleteTask_CascadesNotifications(t *testing.T) {
	ctx := context.Background()
	e, m := newEnv(t)

	first, err := m.CreateTask(ctx, valveTask())
	require.NoError(t, err)
	second, err := m.CreateTask(ctx, valveTask())
	require.NoError(t, err)
	require.NoError(t, m.AddFeedback(ctx, first.ID, liMing(t, m), "阀门有渗漏"))
	require.Len(t, m.Notifications(), 3)

	require.NoError(t, m.DeleteTask(ctx, first.ID))

	_, ok := m.Task(first.ID)
	assert.False(t, ok)
	for _, n := range m.Notifications() {
		assert.NotEqual(t, first.ID, n.TaskID)
	}
	require.Len(t, m.Notifications(), 1)
	assert.Equal(t, second.ID, m.Notifications()[0].TaskID)

	reloaded := e.open(t)
	assert.Len(t, reloaded.Notifications(), 1)
	_, ok = reloaded.Task(first.ID)
	assert.False(t, ok)
}

func TestDeleteTask_UnknownIsNoop(t *testing.T) {
	_, m := newEnv(t)

	require.NoError(t, m.DeleteTask(context.Background(), "nope"))
	assert.Len(t, m.Tasks(), 1)
}

func TestSetTaskStatus_EmployeeCompletionNotifiesCreator(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)

	require.NoError(t, m.SetTaskStatus(ctx, "t1", model.StatusCompleted, liMing(t, m)))

	task, _ := m.Task("t1")
	assert.Equal(t, model.StatusCompleted, task.Status)

	ns := m.Notifications()
	require.Len(t, ns, 1)
	assert.Equal(t, "u1", ns[0].UserID)
	assert.Equal(t, "t1", ns[0].TaskID)
	assert.Equal(t, "员工 李明 (员工) 完成了任务: 组装 402 号单元", ns[0].Message)
}

func TestSetTaskStatus_AdminCompletionIsSilent(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)

	require.NoError(t, m.SetTaskStatus(ctx, "t1", model.StatusCompleted, admin(t, m)))

	task, _ := m.Task("t1")
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Empty(t, m.Notifications())
}

func TestSetTaskStatus_AnyTransition(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)
	emp := liMing(t, m)

	for _, s := range []model.TaskStatus{model.StatusCompleted, model.StatusPending, model.StatusInProgress} {
		require.NoError(t, m.SetTaskStatus(ctx, "t1", s, emp))
		task, _ := m.Task("t1")
		assert.Equal(t, s, task.Status)
	}
}

func TestSetTaskStatus_MissingCreatorIsSilent(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)

	worker, err := m.CreateUser(ctx, "王芳", "abc")
	require.NoError(t, err)
	in := valveTask()
	in.CreatorID = "gone"
	in.AssigneeID = worker.ID
	task, err := m.CreateTask(ctx, in)
	require.NoError(t, err)

	require.NoError(t, m.SetTaskStatus(ctx, task.ID, model.StatusCompleted, worker))
	assert.Len(t, m.Notifications(), 1)
}

func TestSetTaskStatus_RejectsUnknownStatus(t *testing.T) {
	_, m := newEnv(t)

	err := m.SetTaskStatus(context.Background(), "t1", "DONE", admin(t, m))
	require.ErrorIs(t, err, state.ErrValidation)

	task, _ := m.Task("t1")
	assert.Equal(t, model.StatusInProgress, task.Status)
}

func TestAddFeedback_Routing(t *testing.T) {
	ctx := context.Background()
	e, m := newEnv(t)

	require.NoError(t, m.AddFeedback(ctx, "t1", liMing(t, m), "  缺少零件  "))
	e.clock = base.Add(time.Minute)
	require.NoError(t, m.AddFeedback(ctx, "t1", admin(t, m), "明天补货"))

	task, _ := m.Task("t1")
	require.Len(t, task.Feedback, 2)
	assert.Equal(t, "缺少零件", task.Feedback[0].Content)
	assert.Equal(t, "李明 (员工)", task.Feedback[0].UserName)
	assert.Equal(t, "明天补货", task.Feedback[1].Content)
	assert.Equal(t, base.Add(time.Minute).UnixMilli(), task.Feedback[1].Timestamp)

	ns := m.Notifications()
	require.Len(t, ns, 2)
	assert.Equal(t, "u1", ns[0].UserID)
	assert.Equal(t, `员工 李明 (员工) 对任务 "组装 402 号单元" 进行了反馈`, ns[0].Message)
	assert.Equal(t, "u2", ns[1].UserID)
	assert.Equal(t, `管理员对任务 "组装 402 号单元" 进行了回复`, ns[1].Message)
}

func TestAddFeedback_IgnoresBlankAndUnknown(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)

	require.NoError(t, m.AddFeedback(ctx, "t1", liMing(t, m), "   "))
	require.NoError(t, m.AddFeedback(ctx, "ghost", liMing(t, m), "hello"))

	task, _ := m.Task("t1")
	assert.Empty(t, task.Feedback)
	assert.Empty(t, m.Notifications())
}

func TestAddFeedback_GrowsByOne(t *testing.T) {
	ctx := context.Background()
	_, m := newEnv(t)
	emp := liMing(t, m)

	for i := 1; i <= 3; i++ {
		require.NoError(t, m.AddFeedback(ctx, "t1", emp, fmt.Sprintf("note %d", i)))
		task, _ := m.Task("t1")
		assert.Len(t, task.Feedback, i)
	}
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	e, m := newEnv(t)

	_, err := m.CreateTask(ctx, valveTask())
	require.NoError(t, err)
	require.NoError(t, m.SetTaskStatus(ctx, "t1", model.StatusCompleted, liMing(t, m)))

	require.NoError(t, m.MarkAllRead(ctx, "u2"))
	first := m.Notifications()
	require.NoError(t, m.MarkAllRead(ctx, "u2"))
	assert.Equal(t, first, m.Notifications())

	for _, n := range m.Notifications() {
		if n.UserID == "u2" {
			assert.True(t, n.Read)
		} else {
			assert.False(t, n.Read, "other users' notifications stay unread")
		}
	}

	reloaded := e.open(t)
	for _, n := range reloaded.Notifications() {
		assert.Equal(t, n.UserID == "u2", n.Read)
	}
}

func TestReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, m := newEnv(t)

	_, err := m.CreateUser(ctx, "王芳", "abc")
	require.NoError(t, err)
	_, err = m.CreateTask(ctx, valveTask())
	require.NoError(t, err)
	require.NoError(t, m.AddFeedback(ctx, "t1", liMing(t, m), "ok"))

	reloaded := e.open(t)
	assert.Equal(t, m.Users(), reloaded.Users())
	assert.Equal(t, m.Tasks(), reloaded.Tasks())
	assert.Equal(t, m.Notifications(), reloaded.Notifications())
}

func TestEmployees(t *testing.T) {
	_, m := newEnv(t)

	emps := m.Employees()
	require.Len(t, emps, 1)
	assert.Equal(t, "u2", emps[0].ID)
}

var errDiskFull = errors.New("disk full")

// failingKV hides the SQLite batch support so every document is written
// with its own Set, and fails those writes while fail is set.
type failingKV struct {
	store.KV
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errDiskFull
	}
	return f.KV.Set(ctx, key, value)
}

func openFailing(t *testing.T) (*failingKV, *state.Manager) {
	t.Helper()
	e := &env{clock: base}
	kv := &failingKV{KV: testutil.NewTestStore(t)}
	m, err := state.Open(context.Background(), kv, state.WithClock(e.now), state.WithIDs(e.id))
	require.NoError(t, err)
	return kv, m
}

func TestWriteFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	kv, m := openFailing(t)

	_, err := m.CreateTask(ctx, valveTask())
	require.NoError(t, err)
	users, tasks, notifications := m.Users(), m.Tasks(), m.Notifications()
	require.Len(t, notifications, 1)

	kv.fail = true

	_, err = m.CreateUser(ctx, "王芳", "pw")
	require.ErrorIs(t, err, errDiskFull)

	_, err = m.CreateTask(ctx, valveTask())
	require.ErrorIs(t, err, errDiskFull)

	err = m.DeleteTask(ctx, tasks[1].ID)
	require.ErrorIs(t, err, errDiskFull)
	assert.Len(t, multierr.Errors(errors.Unwrap(err)), 2)

	assert.Equal(t, users, m.Users())
	assert.Equal(t, tasks, m.Tasks())
	assert.Equal(t, notifications, m.Notifications())

	kv.fail = false
	require.NoError(t, m.DeleteTask(ctx, tasks[1].ID))
	assert.Len(t, m.Tasks(), 1)
	assert.Empty(t, m.Notifications())
}
