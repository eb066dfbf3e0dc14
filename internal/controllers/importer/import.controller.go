package importController

import (
	"context"
	"fmt"
	"io"
	"time"

	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/repositories"
	"policybook/internal/services"
	"policybook/internal/utils"
)

type ImportController struct {
	contractRepo       repositories.ContractRepository
	transactionService *services.TransactionService
	normalizer         normalizer
	now                func() time.Time
	log                logger.Logger
}

func New(
	contractRepo repositories.ContractRepository,
	transactionService *services.TransactionService,
) *ImportController {
	return &ImportController{
		contractRepo:       contractRepo,
		transactionService: transactionService,
		normalizer: normalizer{
			aliases: defaultAliases,
			dates:   utils.NewDateValidator(),
		},
		now: time.Now,
		log: logger.New("ImportController"),
	}
}

func (ic *ImportController) WithClock(now func() time.Time) *ImportController {
	ic.now = now
	return ic
}

// ImportFile parses an uploaded spreadsheet and reconciles its rows.
func (ic *ImportController) ImportFile(
	ctx context.Context,
	actor Actor,
	name string,
	r io.Reader,
) (ImportResult, error) {
	log := ic.log.Function("ImportFile")

	if err := Authorize(actor.Role, OpImport); err != nil {
		log.Warn("permission denied", "user", actor.Login, "role", actor.Role)
		return ImportResult{}, err
	}

	rows, err := utils.ReadSpreadsheet(name, r)
	if err != nil {
		return ImportResult{}, log.Err("failed to read spreadsheet", err, "file", name)
	}

	return ic.ImportBatch(ctx, actor, rows)
}

// ImportBatch upserts rows one at a time keyed on policy and registration
// number. A failing row is counted and reported but never stops the batch.
// Imported changes are not written to contract history.
func (ic *ImportController) ImportBatch(
	ctx context.Context,
	actor Actor,
	rows []map[string]any,
) (ImportResult, error) {
	log := ic.log.Function("ImportBatch")

	if err := Authorize(actor.Role, OpImport); err != nil {
		log.Warn("permission denied", "user", actor.Login, "role", actor.Role)
		return ImportResult{}, err
	}

	result := ImportResult{Errors: []string{}}
	var inserted, updated int

	for i, raw := range rows {
		rowNo := i + 1

		normalized, ok, err := ic.normalizer.normalize(raw, ic.now())
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rowNo, err))
			continue
		}
		if !ok {
			result.SkippedCount++
			continue
		}

		created, err := ic.reconcile(ctx, normalized)
		if err != nil {
			log.Warn("import row failed", "row", rowNo, "policyNo", normalized.PolicyNo, "error", err)
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rowNo, err))
			continue
		}

		result.SuccessCount++
		if created {
			inserted++
		} else {
			updated++
		}
	}

	log.Info("import finished",
		"user", actor.Login,
		"rows", len(rows),
		"inserted", inserted,
		"updated", updated,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount)

	return result, nil
}

// reconcile updates the contract owning the row's business key, or inserts a
// new active contract when there is none.
func (ic *ImportController) reconcile(ctx context.Context, row contractRow) (bool, error) {
	var created bool

	err := ic.transactionService.Execute(ctx, func(txCtx context.Context) error {
		existing, found, err := ic.contractRepo.FindByBusinessKey(txCtx, row.PolicyNo, row.RegistrationNr)
		if err != nil {
			return err
		}

		if found {
			contract := *existing
			applyRow(&contract, row)
			return ic.contractRepo.Update(txCtx, existing.ID, &contract)
		}

		contract := Contract{
			PolicyNo:       row.PolicyNo,
			RegistrationNr: row.RegistrationNr,
			Notes:          []Note{},
			IsArchived:     false,
		}
		applyRow(&contract, row)
		if err := ic.contractRepo.Create(txCtx, &contract); err != nil {
			return err
		}
		created = true
		return nil
	})

	return created, err
}

// applyRow copies the business fields. Notes and the archived flag are left
// alone.
func applyRow(contract *Contract, row contractRow) {
	contract.ClientName = row.ClientName
	contract.Salesperson = row.Salesperson
	contract.InsuranceType = row.InsuranceType
	contract.ValidFrom = row.ValidFrom
	contract.ValidUntil = row.ValidUntil
	contract.YearlyPremium = row.YearlyPremium
	contract.PayoutValue = row.PayoutValue
	contract.LastUpdated = row.LastUpdated
}
