package handlers

import (
	"policybook/internal/app"
	contractController "policybook/internal/controllers/contract"
	"policybook/internal/handlers/middleware"
	"policybook/internal/logger"
	. "policybook/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ContractHandler struct {
	Handler
	controller contractController.ContractController
}

func NewContractHandler(app app.App, router fiber.Router) *ContractHandler {
	log := logger.New("handlers").File("contract_handler")
	return &ContractHandler{
		controller: *app.ContractController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ContractHandler) Register() {
	contracts := h.router.Group("/contracts", h.middleware.AuthRequired())
	contracts.Get("/", h.listContracts)
	contracts.Get("/summary", h.getSummary)
	contracts.Get("/:id", h.getContract)
	contracts.Get("/:id/history", h.getHistory)

	manager := h.middleware.RequireRole(RequiredRole(OpUpdate))
	contracts.Post("/", manager, h.createContract)
	contracts.Put("/:id", manager, h.updateContract)
	contracts.Patch("/:id", manager, h.patchContract)
	contracts.Post("/:id/notes", manager, h.addNote)
	contracts.Post("/:id/archive", h.middleware.RequireRole(RequiredRole(OpArchive)), h.toggleArchive)
	contracts.Delete("/:id", h.middleware.RequireRole(RequiredRole(OpDelete)), h.deleteContract)
}

func (h *ContractHandler) listContracts(c *fiber.Ctx) error {
	log := h.log.Function("listContracts")
	actor, _ := middleware.ActorFrom(c)

	view, ok := ParseContractView(c.Query("view"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "unknown view", "view": c.Query("view")})
	}

	contracts, err := h.controller.List(c.Context(), actor, view, c.Query("q"))
	if err != nil {
		return h.fail(c, log, "failed to list contracts", err)
	}

	return c.JSON(fiber.Map{"message": "success", "view": view, "contracts": contracts})
}

func (h *ContractHandler) getSummary(c *fiber.Ctx) error {
	log := h.log.Function("getSummary")
	actor, _ := middleware.ActorFrom(c)

	summary, err := h.controller.Summary(c.Context(), actor)
	if err != nil {
		return h.fail(c, log, "failed to summarise contracts", err)
	}

	return c.JSON(fiber.Map{"message": "success", "summary": summary})
}

func (h *ContractHandler) getContract(c *fiber.Ctx) error {
	log := h.log.Function("getContract")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid contract id", err)
	}

	contract, err := h.controller.Get(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, log, "failed to get contract", err)
	}

	return c.JSON(fiber.Map{"message": "success", "contract": contract})
}

func (h *ContractHandler) getHistory(c *fiber.Ctx) error {
	log := h.log.Function("getHistory")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid contract id", err)
	}

	history, err := h.controller.History(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, log, "failed to get history", err)
	}

	return c.JSON(fiber.Map{"message": "success", "history": history})
}

func (h *ContractHandler) createContract(c *fiber.Ctx) error {
	log := h.log.Function("createContract")
	actor, _ := middleware.ActorFrom(c)

	var input ContractInput
	if err := c.BodyParser(&input); err != nil {
		return h.badRequest(c, log, "failed to parse contract", err)
	}

	id, err := h.controller.Create(c.Context(), actor, input)
	if err != nil {
		return h.fail(c, log, "failed to create contract", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "success", "id": id})
}

func (h *ContractHandler) updateContract(c *fiber.Ctx) error {
	log := h.log.Function("updateContract")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid contract id", err)
	}

	var input ContractInput
	if err := c.BodyParser(&input); err != nil {
		return h.badRequest(c, log, "failed to parse contract", err)
	}

	if err := h.controller.Update(c.Context(), actor, id, input); err != nil {
		return h.fail(c, log, "failed to update contract", err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}

func (h *ContractHandler) patchContract(c *fiber.Ctx) error {
	log := h.log.Function("patchContract")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid contract id", err)
	}

	var patch ContractPatch
	if err := c.BodyParser(&patch); err != nil {
		return h.badRequest(c, log, "failed to parse contract patch", err)
	}

	if err := h.controller.Patch(c.Context(), actor, id, patch); err != nil {
		return h.fail(c, log, "failed to update contract", err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}

func (h *ContractHandler) addNote(c *fiber.Ctx) error {
	log := h.log.Function("addNote")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid contract id", err)
	}

	var request NoteRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, log, "failed to parse note", err)
	}

	if err := h.controller.AddNote(c.Context(), actor, id, request.Text); err != nil {
		return h.fail(c, log, "failed to add note", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "success"})
}

func (h *ContractHandler) toggleArchive(c *fiber.Ctx) error {
	log := h.log.Function("toggleArchive")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid contract id", err)
	}

	archived, err := h.controller.ToggleArchive(c.Context(), actor, id)
	if err != nil {
		return h.fail(c, log, "failed to toggle archive", err)
	}

	return c.JSON(fiber.Map{"message": "success", "isArchived": archived})
}

func (h *ContractHandler) deleteContract(c *fiber.Ctx) error {
	log := h.log.Function("deleteContract")
	actor, _ := middleware.ActorFrom(c)

	id, err := paramID(c)
	if err != nil {
		return h.fail(c, log, "invalid contract id", err)
	}

	if err := h.controller.Delete(c.Context(), actor, id); err != nil {
		return h.fail(c, log, "failed to delete contract", err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}
