package taskController

import (
	"context"
	"strings"
	"time"

	"policybook/internal/common"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/repositories"
	"policybook/internal/utils"
)

type TaskController struct {
	taskRepo  repositories.TaskRepository
	retention time.Duration
	dates     *utils.DateValidator
	now       func() time.Time
	log       logger.Logger
}

func New(taskRepo repositories.TaskRepository, retention time.Duration) *TaskController {
	return &TaskController{
		taskRepo:  taskRepo,
		retention: retention,
		dates:     utils.NewDateValidator(),
		now:       time.Now,
		log:       logger.New("TaskController"),
	}
}

func (tc *TaskController) WithClock(now func() time.Time) *TaskController {
	tc.now = now
	return tc
}

// PurgeExpired removes completed tasks older than the retention window.
func (tc *TaskController) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := tc.now().UTC().Add(-tc.retention)

	purged, err := tc.taskRepo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, tc.log.Function("PurgeExpired").Err("failed to purge tasks", err, "cutoff", cutoff)
	}
	return purged, nil
}

// List purges expired tasks first so callers never see them.
func (tc *TaskController) List(ctx context.Context, actor Actor, assignee string) ([]Task, error) {
	log := tc.log.Function("List")

	if err := Authorize(actor.Role, OpRead); err != nil {
		return nil, err
	}

	if purged, err := tc.PurgeExpired(ctx); err != nil {
		log.Warn("lazy purge failed", "error", err)
	} else if purged > 0 {
		log.Debug("purged completed tasks", "count", purged)
	}

	tasks, err := tc.taskRepo.List(ctx, strings.TrimSpace(assignee))
	if err != nil {
		return nil, log.Err("failed to list tasks", err, "assignee", assignee)
	}

	return tasks, nil
}

func (tc *TaskController) Create(ctx context.Context, actor Actor, request CreateTaskRequest) (*Task, error) {
	log := tc.log.Function("Create")

	if err := Authorize(actor.Role, OpRead); err != nil {
		return nil, err
	}

	task := &Task{
		Title:       strings.TrimSpace(request.Title),
		Description: strings.TrimSpace(request.Description),
		Assignee:    strings.TrimSpace(request.Assignee),
		Creator:     actor.Login,
		Status:      TaskPending,
		Comments:    []TaskComment{},
	}
	if task.Title == "" {
		return nil, &common.ValidationError{Fields: []string{"title"}}
	}
	if task.Assignee == "" {
		task.Assignee = actor.Login
	}

	if due := strings.TrimSpace(request.DueDate); due != "" {
		parsed, ok := tc.dates.Parse(due)
		if !ok {
			return nil, &common.ValidationError{Fields: []string{"dueDate"}, Message: "invalid due date: " + due}
		}
		task.DueDate = &parsed
	}

	if err := tc.taskRepo.Create(ctx, task); err != nil {
		return nil, log.Err("failed to create task", err, "title", task.Title)
	}

	log.Info("task created", "taskID", task.ID, "assignee", task.Assignee, "creator", actor.Login)
	return task, nil
}

// Complete marks a task done. Only its assignee, its creator or a manager may
// do so. Completing twice keeps the first completion time.
func (tc *TaskController) Complete(ctx context.Context, actor Actor, id int) (*Task, error) {
	log := tc.log.Function("Complete")

	task, err := tc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := canModify(actor, task, "complete task", true); err != nil {
		return nil, err
	}

	if task.Status == TaskCompleted {
		return task, nil
	}

	now := tc.now().UTC()
	task.Status = TaskCompleted
	task.CompletedAt = &now
	if err := tc.taskRepo.Update(ctx, task); err != nil {
		return nil, log.Err("failed to complete task", err, "id", id)
	}

	return task, nil
}

func (tc *TaskController) AddComment(ctx context.Context, actor Actor, id int, text string) (*Task, error) {
	log := tc.log.Function("AddComment")

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &common.ValidationError{Fields: []string{"text"}}
	}

	task, err := tc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	task.Comments = append(task.Comments, TaskComment{
		Author:    actor.Login,
		Text:      text,
		CreatedAt: tc.now().UTC(),
	})
	if err := tc.taskRepo.Update(ctx, task); err != nil {
		return nil, log.Err("failed to add comment", err, "id", id)
	}

	return task, nil
}

// Delete is open to the task's creator and to managers.
func (tc *TaskController) Delete(ctx context.Context, actor Actor, id int) error {
	log := tc.log.Function("Delete")

	task, err := tc.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := canModify(actor, task, "delete task", false); err != nil {
		return err
	}

	if err := tc.taskRepo.Delete(ctx, id); err != nil {
		return log.Err("failed to delete task", err, "id", id)
	}

	log.Info("task deleted", "taskID", id, "user", actor.Login)
	return nil
}

func (tc *TaskController) load(ctx context.Context, actor Actor, id int) (*Task, error) {
	if err := Authorize(actor.Role, OpRead); err != nil {
		return nil, err
	}

	task, err := tc.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, tc.log.Function("load").Err("failed to get task", err, "id", id)
	}
	return task, nil
}

func canModify(actor Actor, task *Task, operation string, assigneeAllowed bool) error {
	if actor.Role.AtLeast(RoleManager) || task.Creator == actor.Login {
		return nil
	}
	if assigneeAllowed && task.Assignee == actor.Login {
		return nil
	}
	return &common.PermissionError{
		Operation: operation,
		Role:      string(actor.Role),
		Required:  string(RoleManager),
	}
}
