package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"policybook/internal/app"
	"policybook/internal/common"
	importController "policybook/internal/controllers/importer"
	"policybook/internal/handlers/middleware"
	"policybook/internal/logger"
	. "policybook/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ImportHandler struct {
	Handler
	controller importController.ImportController
	maxBytes   int64
}

func NewImportHandler(app app.App, router fiber.Router) *ImportHandler {
	log := logger.New("handlers").File("import_handler")
	return &ImportHandler{
		controller: *app.ImportController,
		maxBytes:   int64(app.Config.ImportMaxUploadMB) << 20,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ImportHandler) Register() {
	h.router.Post("/import",
		h.middleware.AuthRequired(),
		h.middleware.RequireRole(RequiredRole(OpImport)),
		h.importContracts)
}

// importContracts accepts either a multipart upload in field "file" or a JSON
// body of rows, as {"rows": [...]} or a bare array.
func (h *ImportHandler) importContracts(c *fiber.Ctx) error {
	log := h.log.Function("importContracts")
	actor, _ := middleware.ActorFrom(c)

	var (
		result ImportResult
		err    error
	)

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		result, err = h.importFile(c, actor)
	} else {
		result, err = h.importRows(c, actor)
	}
	if err != nil {
		return h.fail(c, log, "import failed", err)
	}

	return c.JSON(fiber.Map{"message": "success", "result": result})
}

func (h *ImportHandler) importFile(c *fiber.Ctx, actor Actor) (ImportResult, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return ImportResult{}, &common.ValidationError{Fields: []string{"file"}, Message: "missing upload field \"file\""}
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return ImportResult{}, &common.ValidationError{
			Fields:  []string{"file"},
			Message: fmt.Sprintf("file is larger than %d MB", h.maxBytes>>20),
		}
	}

	file, err := header.Open()
	if err != nil {
		return ImportResult{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	return h.controller.ImportFile(c.Context(), actor, header.Filename, file)
}

func (h *ImportHandler) importRows(c *fiber.Ctx, actor Actor) (ImportResult, error) {
	var rows []map[string]any

	if bytes.HasPrefix(bytes.TrimSpace(c.Body()), []byte("[")) {
		if err := c.BodyParser(&rows); err != nil {
			return ImportResult{}, &common.ValidationError{Fields: []string{"rows"}, Message: "invalid rows: " + err.Error()}
		}
	} else {
		var request ImportRowsRequest
		if err := c.BodyParser(&request); err != nil {
			return ImportResult{}, &common.ValidationError{Fields: []string{"rows"}, Message: "invalid rows: " + err.Error()}
		}
		rows = request.Rows
	}

	return h.controller.ImportBatch(c.Context(), actor, rows)
}
