package repositories

import (
	"context"
	"errors"
	"time"

	"policybook/internal/common"
	"policybook/internal/database"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/services"

	"gorm.io/gorm"
)

type TaskRepository interface {
	GetByID(ctx context.Context, id int) (*Task, error)
	List(ctx context.Context, assignee string) ([]Task, error)
	Create(ctx context.Context, task *Task) error
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id int) error
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type taskRepository struct {
	db  database.DB
	log logger.Logger
}

func NewTask(db database.DB) TaskRepository {
	return &taskRepository{
		db:  db,
		log: logger.New("taskRepository"),
	}
}

func (r *taskRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *taskRepository) GetByID(ctx context.Context, id int) (*Task, error) {
	var task Task
	err := r.getDB(ctx).First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("task", id)
	}
	if err != nil {
		return nil, r.log.Function("GetByID").Err("failed to get task", err, "id", id)
	}
	return &task, nil
}

// List returns pending tasks first, then by due date. An empty assignee lists
// every task.
func (r *taskRepository) List(ctx context.Context, assignee string) ([]Task, error) {
	query := r.getDB(ctx)
	if assignee != "" {
		query = query.Where("assignee = ?", assignee)
	}

	var tasks []Task
	if err := query.
		Order("CASE status WHEN 'pending' THEN 0 ELSE 1 END").
		Order("due_date IS NULL").
		Order("due_date ASC").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, r.log.Function("List").Err("failed to list tasks", err, "assignee", assignee)
	}

	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *Task) error {
	if task.Comments == nil {
		task.Comments = []TaskComment{}
	}
	if err := r.getDB(ctx).Create(task).Error; err != nil {
		return r.log.Function("Create").Err("failed to create task", err, "title", task.Title)
	}
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task *Task) error {
	if task.Comments == nil {
		task.Comments = []TaskComment{}
	}
	if err := r.getDB(ctx).Save(task).Error; err != nil {
		return r.log.Function("Update").Err("failed to update task", err, "id", task.ID)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int) error {
	result := r.getDB(ctx).Delete(&Task{}, "id = ?", id)
	if result.Error != nil {
		return r.log.Function("Delete").Err("failed to delete task", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return common.NotFound("task", id)
	}
	return nil
}

func (r *taskRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.getDB(ctx).
		Where("status = ? AND completed_at IS NOT NULL AND completed_at < ?", TaskCompleted, cutoff).
		Delete(&Task{})
	if result.Error != nil {
		return 0, r.log.Function("DeleteCompletedBefore").
			Err("failed to purge completed tasks", result.Error, "cutoff", cutoff)
	}
	return result.RowsAffected, nil
}
