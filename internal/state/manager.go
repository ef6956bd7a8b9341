// Package state owns the users, tasks and notifications of the device and
// every operation that changes them. Each change is written through to the
// key-value store before it becomes visible.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/notify"
	"github.com/nhle/prodtask/internal/store"
	"github.com/nhle/prodtask/internal/validate"
)

// Manager holds the three collections. Collections are never edited in
// place: every mutation builds a new slice, persists it, then swaps it in.
// Mutations on ids that do not exist are silent no-ops.
type Manager struct {
	mu sync.RWMutex

	kv              store.KV
	now             func() time.Time
	newID           func() string
	defaultPassword string
	dispatcher      *notify.Dispatcher
	log             *zap.Logger

	users         []model.User
	tasks         []model.Task
	notifications []model.Notification
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithDefaultPassword sets the password backfilled into users without one.
func WithDefaultPassword(pw string) Option {
	return func(m *Manager) { m.defaultPassword = pw }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// TaskInput carries the fields an administrator fills in to create a task.
type TaskInput struct {
	Title       string         `json:"title" validate:"notblank"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	AssigneeID  string         `json:"assignedToId" validate:"notblank"`
	DueDate     string         `json:"dueDate" validate:"notblank"`
	CreatorID   string         `json:"createdBy"`
}

type userInput struct {
	Name     string `json:"name" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type statusInput struct {
	Status model.TaskStatus `json:"status" validate:"oneof=PENDING IN_PROGRESS COMPLETED"`
}

// Open hydrates a Manager from kv. Absent documents are replaced by the seed
// data (two demo users, one demo task, no notifications) and users without a
// password receive the default one. A document that does not decode aborts
// with ErrStorageCorrupt.
func Open(ctx context.Context, kv store.KV, opts ...Option) (*Manager, error) {
	m := &Manager{
		kv:              kv,
		now:             time.Now,
		newID:           func() string { return uuid.New().String() },
		defaultPassword: "123456",
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.dispatcher = notify.NewDispatcher(m.now, m.newID)

	var dirty []store.Entry

	usersFound, err := load(ctx, kv, KeyUsers, &m.users)
	if err != nil {
		return nil, err
	}
	if !usersFound {
		m.users = seedUsers()
	}
	backfilled := 0
	for i := range m.users {
		if m.users[i].Password == "" {
			m.users[i].Password = m.defaultPassword
			backfilled++
		}
	}
	if !usersFound || backfilled > 0 {
		e, err := store.EncodeJSON(KeyUsers, m.users)
		if err != nil {
			return nil, err
		}
		dirty = append(dirty, e)
	}

	tasksFound, err := load(ctx, kv, KeyTasks, &m.tasks)
	if err != nil {
		return nil, err
	}
	if !tasksFound {
		m.tasks = seedTasks(m.now().UnixMilli())
		e, err := store.EncodeJSON(KeyTasks, m.tasks)
		if err != nil {
			return nil, err
		}
		dirty = append(dirty, e)
	}
	for i := range m.tasks {
		if m.tasks[i].Feedback == nil {
			m.tasks[i].Feedback = []model.TaskFeedback{}
		}
	}

	notifsFound, err := load(ctx, kv, KeyNotifications, &m.notifications)
	if err != nil {
		return nil, err
	}
	if !notifsFound {
		m.notifications = []model.Notification{}
		e, err := store.EncodeJSON(KeyNotifications, m.notifications)
		if err != nil {
			return nil, err
		}
		dirty = append(dirty, e)
	}

	if err := m.write(ctx, dirty...); err != nil {
		return nil, fmt.Errorf("persisting initial state: %w", err)
	}

	m.log.Info("state loaded",
		zap.Int("users", len(m.users)),
		zap.Int("tasks", len(m.tasks)),
		zap.Int("notifications", len(m.notifications)),
		zap.Int("passwords_backfilled", backfilled),
		zap.Bool("seeded", !usersFound || !tasksFound),
	)

	return m, nil
}

func load(ctx context.Context, kv store.KV, key string, dst any) (bool, error) {
	found, err := store.LoadJSON(ctx, kv, key, dst)
	if err != nil {
		if found {
			return true, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
		}
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	return found, nil
}

// write persists entries, atomically when the store supports batches.
func (m *Manager) write(ctx context.Context, entries ...store.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if b, ok := m.kv.(store.Batcher); ok && len(entries) > 1 {
		return b.SetMany(ctx, entries)
	}

	var errs error
	for _, e := range entries {
		errs = multierr.Append(errs, m.kv.Set(ctx, e.Key, e.Value))
	}
	return errs
}

func (m *Manager) encode(key string, v any, entries *[]store.Entry) error {
	e, err := store.EncodeJSON(key, v)
	if err != nil {
		return err
	}
	*entries = append(*entries, e)
	return nil
}

// Users returns a copy of all users in stored order.
func (m *Manager) Users() []model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.User(nil), m.users...)
}

// Employees returns the users with the EMPLOYEE role.
func (m *Manager) Employees() []model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.User
	for _, u := range m.users {
		if u.Role == model.RoleEmployee {
			out = append(out, u)
		}
	}
	return out
}

// User looks up a user by id.
func (m *Manager) User(id string) (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.userIndex(id)
	if i < 0 {
		return model.User{}, false
	}
	return m.users[i], true
}

// Tasks returns a copy of all tasks in stored order.
func (m *Manager) Tasks() []model.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Task, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// Task looks up a task by id.
func (m *Manager) Task(id string) (model.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.taskIndex(id)
	if i < 0 {
		return model.Task{}, false
	}
	return cloneTask(m.tasks[i]), true
}

// Notifications returns a copy of all notifications in stored order.
func (m *Manager) Notifications() []model.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Notification(nil), m.notifications...)
}

// CreateUser adds an employee account. Name and password must not be blank.
func (m *Manager) CreateUser(ctx context.Context, name, password string) (model.User, error) {
	if err := validate.Struct(userInput{Name: name, Password: password}); err != nil {
		return model.User{}, newValidationError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	id := m.newID()
	u := model.User{
		ID:       id,
		Name:     name,
		Role:     model.RoleEmployee,
		Avatar:   avatarURL(name + id[:min(8, len(id))]),
		Password: password,
	}

	users := append(append(make([]model.User, 0, len(m.users)+1), m.users...), u)
	if err := m.saveUsers(ctx, users); err != nil {
		return model.User{}, err
	}

	m.log.Info("user created", zap.String("user_id", u.ID))
	return u, nil
}

// DeleteUser removes an employee account. Tasks and notifications that
// reference it are left as they are. Administrator accounts are refused.
func (m *Manager) DeleteUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.userIndex(userID)
	if i < 0 {
		return nil
	}
	if m.users[i].Role == model.RoleAdmin {
		return ErrProtectedUser
	}

	users := make([]model.User, 0, len(m.users)-1)
	users = append(users, m.users[:i]...)
	users = append(users, m.users[i+1:]...)
	if err := m.saveUsers(ctx, users); err != nil {
		return err
	}

	m.log.Info("user deleted", zap.String("user_id", userID))
	return nil
}

// CreateTask adds a PENDING task and notifies its assignee.
func (m *Manager) CreateTask(ctx context.Context, in TaskInput) (model.Task, error) {
	if err := validate.Struct(in); err != nil {
		return model.Task{}, newValidationError(err)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := model.Task{
		ID:           m.newID(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Priority:     in.Priority,
		AssignedToID: in.AssigneeID,
		CreatedBy:    in.CreatorID,
		DueDate:      strings.TrimSpace(in.DueDate),
		Status:       model.StatusPending,
		CreatedAt:    m.now().UnixMilli(),
		Feedback:     []model.TaskFeedback{},
	}

	tasks := append(append(make([]model.Task, 0, len(m.tasks)+1), m.tasks...), t)
	notifications := m.withNotification(m.dispatcher.TaskAssigned(t))

	var entries []store.Entry
	if err := m.encode(KeyTasks, tasks, &entries); err != nil {
		return model.Task{}, err
	}
	if err := m.encode(KeyNotifications, notifications, &entries); err != nil {
		return model.Task{}, err
	}
	if err := m.write(ctx, entries...); err != nil {
		return model.Task{}, fmt.Errorf("persisting task %s: %w", t.ID, err)
	}
	m.tasks = tasks
	m.notifications = notifications

	m.log.Info("task created",
		zap.String("task_id", t.ID),
		zap.String("assignee_id", t.AssignedToID),
	)
	return cloneTask(t), nil
}

// DeleteTask removes a task together with every notification about it.
func (m *Manager) DeleteTask(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.taskIndex(taskID)
	if i < 0 {
		return nil
	}

	tasks := make([]model.Task, 0, len(m.tasks)-1)
	tasks = append(tasks, m.tasks[:i]...)
	tasks = append(tasks, m.tasks[i+1:]...)

	notifications := make([]model.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		if n.TaskID != taskID {
			notifications = append(notifications, n)
		}
	}

	var entries []store.Entry
	if err := m.encode(KeyTasks, tasks, &entries); err != nil {
		return err
	}
	if err := m.encode(KeyNotifications, notifications, &entries); err != nil {
		return err
	}
	if err := m.write(ctx, entries...); err != nil {
		return fmt.Errorf("deleting task %s: %w", taskID, err)
	}

	removed := len(m.notifications) - len(notifications)
	m.tasks = tasks
	m.notifications = notifications

	m.log.Info("task deleted",
		zap.String("task_id", taskID),
		zap.Int("notifications_removed", removed),
	)
	return nil
}

// SetTaskStatus replaces a task's status. Any status may follow any other.
// When an employee sets COMPLETED the task's creator is notified, provided
// the creator still exists.
func (m *Manager) SetTaskStatus(ctx context.Context, taskID string, status model.TaskStatus, actor model.User) error {
	if err := validate.Struct(statusInput{Status: status}); err != nil {
		return newValidationError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.taskIndex(taskID)
	if i < 0 {
		return nil
	}

	tasks := m.cloneTasks()
	tasks[i].Status = status

	var entries []store.Entry
	if err := m.encode(KeyTasks, tasks, &entries); err != nil {
		return err
	}

	notifications := m.notifications
	if status == model.StatusCompleted && actor.Role == model.RoleEmployee && m.userIndex(tasks[i].CreatedBy) >= 0 {
		notifications = m.withNotification(m.dispatcher.TaskCompleted(tasks[i], actor))
		if err := m.encode(KeyNotifications, notifications, &entries); err != nil {
			return err
		}
	}

	if err := m.write(ctx, entries...); err != nil {
		return fmt.Errorf("updating status of task %s: %w", taskID, err)
	}
	m.tasks = tasks
	m.notifications = notifications

	m.log.Info("task status changed",
		zap.String("task_id", taskID),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID),
	)
	return nil
}

// AddFeedback appends a remark by author to a task and notifies the other
// party. Blank content and unknown tasks are ignored.
func (m *Manager) AddFeedback(ctx context.Context, taskID string, author model.User, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.taskIndex(taskID)
	if i < 0 {
		return nil
	}

	fb := model.TaskFeedback{
		ID:        m.newID(),
		UserID:    author.ID,
		UserName:  author.Name,
		Content:   content,
		Timestamp: m.now().UnixMilli(),
	}

	tasks := m.cloneTasks()
	tasks[i].Feedback = append(tasks[i].Feedback, fb)

	var entries []store.Entry
	if err := m.encode(KeyTasks, tasks, &entries); err != nil {
		return err
	}

	notifications := m.notifications
	if n, ok := m.dispatcher.FeedbackPosted(tasks[i], author); ok {
		notifications = m.withNotification(n)
		if err := m.encode(KeyNotifications, notifications, &entries); err != nil {
			return err
		}
	}

	if err := m.write(ctx, entries...); err != nil {
		return fmt.Errorf("adding feedback to task %s: %w", taskID, err)
	}
	m.tasks = tasks
	m.notifications = notifications

	m.log.Info("feedback added",
		zap.String("task_id", taskID),
		zap.String("author_id", author.ID),
	)
	return nil
}

// MarkAllRead marks every notification addressed to userID as read.
func (m *Manager) MarkAllRead(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	notifications := make([]model.Notification, len(m.notifications))
	for i, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed = true
		}
		notifications[i] = n
	}
	if !changed {
		return nil
	}

	if err := store.SaveJSON(ctx, m.kv, KeyNotifications, notifications); err != nil {
		return fmt.Errorf("marking notifications read for %s: %w", userID, err)
	}
	m.notifications = notifications
	return nil
}

func (m *Manager) saveUsers(ctx context.Context, users []model.User) error {
	if err := store.SaveJSON(ctx, m.kv, KeyUsers, users); err != nil {
		return fmt.Errorf("persisting users: %w", err)
	}
	m.users = users
	return nil
}

func (m *Manager) withNotification(n model.Notification) []model.Notification {
	out := make([]model.Notification, 0, len(m.notifications)+1)
	out = append(out, m.notifications...)
	return append(out, n)
}

func (m *Manager) cloneTasks() []model.Task {
	out := make([]model.Task, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

func (m *Manager) userIndex(id string) int {
	for i, u := range m.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) taskIndex(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTask(t model.Task) model.Task {
	t.Feedback = append(make([]model.TaskFeedback, 0, len(t.Feedback)), t.Feedback...)
	return t
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
