package handlers

import (
	"policybook/internal/app"
	taskController "policybook/internal/controllers/task"
	"policybook/internal/handlers/middleware"
	"policybook/internal/logger"
	. "policybook/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TaskHandler struct {
	Handler
	controller taskController.TaskController
}

func NewTaskHandler(app app.App, router fiber.Router) *TaskHandler {
	log := logger.New("handlers").File("task_handler")
	return &TaskHandler{
		controller: *app.TaskController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *TaskHandler) Register() {
	tasks := h.router.Group("/tasks", h.middleware.AuthRequired())
	tasks.Get("/", h.listTasks)
	tasks.Post("/", h.createTask)
	tasks.Post("/:id/complete", h.completeTask)
	tasks.Post("/:id/comments", h.addComment)
	tasks.Delete("/:id", h.deleteTask)
}

func (h *TaskHandler) listTasks(c *fiber.Ctx) error {
	log := h.log.Function("listTasks")
	actor, _ := middleware.ActorFrom(c)

	tasks, err := h.controller.List(c.Context(), actor, c.Query("assignee"))
	if err != nil {
		return h.fail(c, log, "failed to list tasks", err)
	}

	return c.JSON(fiber.Map{"message": "success", "tasks": tasks})
}

func (h *TaskHandler) createTask(c *fiber.Ctx) error {
	log := h.log.Function("createTask")
	actor, _ := middleware.ActorFrom(c)

	var request CreateTaskRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, log, "failed to parse task", err)
	}

	task, err := h.controller.Create(c.Context(), actor, request)
	if err != nil {
		return h.fail(c, log, "failed to create task", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "success", "task": task})
}

func (h *TaskHandler) completeTask(c *fiber.Ctx) error {
	log := h.log.Function("completeTask")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid task id", err)
	}

	task, err := h.controller.Complete(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, log, "failed to complete task", err)
	}

	return c.JSON(fiber.Map{"message": "success", "task": task})
}

func (h *TaskHandler) addComment(c *fiber.Ctx) error {
	log := h.log.Function("addComment")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid task id", err)
	}

	var request TaskCommentRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, log, "failed to parse comment", err)
	}

	task, err := h.controller.AddComment(c.Context(), actor, id, request.Text)
	if err != nil {
		return h.fail(c, log, "failed to add comment", err)
	}

	return c.JSON(fiber.Map{"message": "success", "task": task})
}

func (h *TaskHandler) deleteTask(c *fiber.Ctx) error {
	log := h.log.Function("deleteTask")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid task id", err)
	}

	if err := h.controller.Delete(c.Context(), actor, id); err != nil {
		return h.fail(c, log, "failed to delete task", err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}
