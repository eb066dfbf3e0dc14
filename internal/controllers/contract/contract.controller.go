package contractController

import (
	"context"
	"strings"
	"time"

	"policybook/internal/common"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/repositories"
	"policybook/internal/services"
	"policybook/internal/utils"
)

type ContractController struct {
	contractRepo       repositories.ContractRepository
	historyRepo        repositories.HistoryRepository
	audit              *services.AuditService
	transactionService *services.TransactionService
	dates              *utils.DateValidator
	now                func() time.Time
	log                logger.Logger
}

func New(
	contractRepo repositories.ContractRepository,
	historyRepo repositories.HistoryRepository,
	audit *services.AuditService,
	transactionService *services.TransactionService,
) *ContractController {
	return &ContractController{
		contractRepo:       contractRepo,
		historyRepo:        historyRepo,
		audit:              audit,
		transactionService: transactionService,
		dates:              utils.NewDateValidator(),
		now:                time.Now,
		log:                logger.New("ContractController"),
	}
}

func (cc *ContractController) WithClock(now func() time.Time) *ContractController {
	cc.now = now
	return cc
}

func (cc *ContractController) today() time.Time {
	return DateOnly(cc.now())
}

func (cc *ContractController) authorize(log logger.Logger, actor Actor, op Operation) error {
	if err := Authorize(actor.Role, op); err != nil {
		log.Warn("permission denied", "user", actor.Login, "role", actor.Role, "operation", op)
		return err
	}
	return nil
}

func (cc *ContractController) Create(ctx context.Context, actor Actor, input ContractInput) (int, error) {
	log := cc.log.Function("Create")

	if err := cc.authorize(log, actor, OpCreate); err != nil {
		return 0, err
	}

	contract, err := cc.fromInput(input)
	if err != nil {
		return 0, err
	}
	contract.Notes = []Note{}
	contract.IsArchived = false
	contract.LastUpdated = cc.now().UTC()

	err = cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		if err := cc.ensureKeyAvailable(txCtx, contract.PolicyNo, contract.RegistrationNr, 0); err != nil {
			return err
		}
		if err := cc.contractRepo.Create(txCtx, &contract); err != nil {
			return log.Err("failed to create contract", err, "policyNo", contract.PolicyNo)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	cc.audit.Record(ctx, contract.ID, actor, ActionCreated, services.DetailsFor(ActionCreated))
	log.Info("contract created", "contractID", contract.ID, "user", actor.Login)

	return contract.ID, nil
}

// Update replaces every business field of contract id with input. A nil
// Notes in input keeps the current notes.
func (cc *ContractController) Update(ctx context.Context, actor Actor, id int, input ContractInput) error {
	log := cc.log.Function("Update")

	if err := cc.authorize(log, actor, OpUpdate); err != nil {
		return err
	}

	replacement, err := cc.fromInput(input)
	if err != nil {
		return err
	}

	return cc.applyUpdate(ctx, actor, id, func(current Contract) (Contract, error) {
		if input.Notes == nil {
			replacement.Notes = current.Notes
		} else {
			replacement.Notes = input.Notes
		}
		return replacement, nil
	})
}

// Patch changes only the fields present in patch.
func (cc *ContractController) Patch(ctx context.Context, actor Actor, id int, patch ContractPatch) error {
	log := cc.log.Function("Patch")

	if err := cc.authorize(log, actor, OpUpdate); err != nil {
		return err
	}

	return cc.applyUpdate(ctx, actor, id, func(current Contract) (Contract, error) {
		return cc.applyPatch(current, patch)
	})
}

func (cc *ContractController) AddNote(ctx context.Context, actor Actor, id int, text string) error {
	log := cc.log.Function("AddNote")

	if err := cc.authorize(log, actor, OpUpdate); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return &common.ValidationError{Fields: []string{"text"}}
	}

	return cc.applyUpdate(ctx, actor, id, func(current Contract) (Contract, error) {
		notes := make([]Note, len(current.Notes), len(current.Notes)+1)
		copy(notes, current.Notes)
		current.Notes = append(notes, Note{
			Text:      text,
			Author:    actor.Login,
			CreatedAt: cc.now().UTC(),
		})
		return current, nil
	})
}

// applyUpdate loads contract id, lets build produce the new version and
// persists it when the diff is non-empty.
func (cc *ContractController) applyUpdate(
	ctx context.Context,
	actor Actor,
	id int,
	build func(current Contract) (Contract, error),
) error {
	log := cc.log.Function("applyUpdate")

	var changes []string
	err := cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		current, err := cc.contractRepo.GetByID(txCtx, id)
		if err != nil {
			return log.Err("failed to load contract", err, "id", id)
		}

		next, err := build(*current)
		if err != nil {
			return err
		}
		if err := validateContract(next); err != nil {
			return err
		}

		if next.PolicyNo != current.PolicyNo || next.RegistrationNr != current.RegistrationNr {
			if err := cc.ensureKeyAvailable(txCtx, next.PolicyNo, next.RegistrationNr, id); err != nil {
				return err
			}
		}

		changes = Diff(*current, next)
		if len(changes) == 0 {
			log.Debug("update changes nothing, saving without audit", "id", id)
		}

		next.LastUpdated = cc.now().UTC()
		if err := cc.contractRepo.Update(txCtx, id, &next); err != nil {
			return log.Err("failed to update contract", err, "id", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(changes) > 0 {
		cc.audit.Record(ctx, id, actor, ActionUpdated, services.JoinChanges(changes))
		log.Info("contract updated", "contractID", id, "user", actor.Login, "changes", len(changes))
	}

	return nil
}

// ToggleArchive flips the archived flag and returns the new value.
func (cc *ContractController) ToggleArchive(ctx context.Context, actor Actor, id int) (bool, error) {
	log := cc.log.Function("ToggleArchive")

	if err := cc.authorize(log, actor, OpArchive); err != nil {
		return false, err
	}

	var archived bool
	err := cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		current, err := cc.contractRepo.GetByID(txCtx, id)
		if err != nil {
			return log.Err("failed to load contract", err, "id", id)
		}

		archived = !current.IsArchived
		if err := cc.contractRepo.SetArchived(txCtx, id, archived, cc.now().UTC()); err != nil {
			return log.Err("failed to set archived flag", err, "id", id, "archived", archived)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	action := ActionRestored
	if archived {
		action = ActionArchived
	}
	cc.audit.Record(ctx, id, actor, action, services.DetailsFor(action))
	log.Info("contract archive toggled", "contractID", id, "archived", archived, "user", actor.Login)

	return archived, nil
}

// Delete removes the row for good. History is kept and gains a DELETED entry
// once the row is gone.
func (cc *ContractController) Delete(ctx context.Context, actor Actor, id int) error {
	log := cc.log.Function("Delete")

	if err := cc.authorize(log, actor, OpDelete); err != nil {
		return err
	}

	err := cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		if _, err := cc.contractRepo.GetByID(txCtx, id); err != nil {
			return log.Err("failed to load contract", err, "id", id)
		}
		if err := cc.contractRepo.Delete(txCtx, id); err != nil {
			return log.Err("failed to delete contract", err, "id", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cc.audit.Record(ctx, id, actor, ActionDeleted, services.DetailsFor(ActionDeleted))
	log.Info("contract deleted", "contractID", id, "user", actor.Login)

	return nil
}

func (cc *ContractController) Get(ctx context.Context, actor Actor, id int) (ContractWithStatus, error) {
	log := cc.log.Function("Get")

	if err := cc.authorize(log, actor, OpRead); err != nil {
		return ContractWithStatus{}, err
	}

	contract, err := cc.contractRepo.GetByID(ctx, id)
	if err != nil {
		return ContractWithStatus{}, log.Err("failed to get contract", err, "id", id)
	}

	return WithStatus(*contract, cc.today()), nil
}

// List returns the contracts of one view. Active and ended views are sorted
// by expiry, the archived view by most recent change.
func (cc *ContractController) List(
	ctx context.Context,
	actor Actor,
	view ContractView,
	search string,
) ([]ContractWithStatus, error) {
	log := cc.log.Function("List")

	if err := cc.authorize(log, actor, OpRead); err != nil {
		return nil, err
	}

	filter := ContractFilter{Sort: SortValidUntilAsc, Search: search}
	if view == ViewArchived {
		filter = ContractFilter{Archived: true, Sort: SortLastUpdatedDesc, Search: search}
	}

	contracts, err := cc.contractRepo.List(ctx, filter)
	if err != nil {
		return nil, log.Err("failed to list contracts", err, "view", view)
	}

	today := cc.today()
	result := make([]ContractWithStatus, 0, len(contracts))
	for _, contract := range contracts {
		withStatus := WithStatus(contract, today)
		if withStatus.View == view {
			result = append(result, withStatus)
		}
	}

	return result, nil
}

// History returns the audit trail newest first. It stays readable after the
// contract is deleted.
func (cc *ContractController) History(ctx context.Context, actor Actor, id int) ([]HistoryEntry, error) {
	log := cc.log.Function("History")

	if err := cc.authorize(log, actor, OpRead); err != nil {
		return nil, err
	}

	entries, err := cc.historyRepo.ListByContractID(ctx, id)
	if err != nil {
		return nil, log.Err("failed to list history", err, "contractID", id)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	if _, err := cc.contractRepo.GetByID(ctx, id); err != nil {
		return nil, log.Err("failed to load contract", err, "id", id)
	}

	return []HistoryEntry{}, nil
}

func (cc *ContractController) Summary(ctx context.Context, actor Actor) (ContractSummary, error) {
	log := cc.log.Function("Summary")

	summary := ContractSummary{ByStatus: map[ExpiryStatus]int{
		StatusValid:   0,
		StatusWarning: 0,
		StatusExpired: 0,
	}}

	if err := cc.authorize(log, actor, OpRead); err != nil {
		return summary, err
	}

	today := cc.today()
	for _, archived := range []bool{false, true} {
		contracts, err := cc.contractRepo.List(ctx, ContractFilter{Archived: archived, Sort: SortValidUntilAsc})
		if err != nil {
			return summary, log.Err("failed to list contracts", err, "archived", archived)
		}

		for _, contract := range contracts {
			withStatus := WithStatus(contract, today)
			summary.ByStatus[withStatus.Status]++
			switch withStatus.View {
			case ViewActive:
				summary.Active++
			case ViewEnded:
				summary.Ended++
			case ViewArchived:
				summary.Archived++
			}
		}
	}

	return summary, nil
}

// ensureKeyAvailable fails with a ConflictError when another contract than
// selfID already owns the business key.
func (cc *ContractController) ensureKeyAvailable(ctx context.Context, policyNo, registrationNr string, selfID int) error {
	log := cc.log.Function("ensureKeyAvailable")

	existing, found, err := cc.contractRepo.FindByBusinessKey(ctx, policyNo, registrationNr)
	if err != nil {
		return log.Err("failed to check business key", err, "policyNo", policyNo)
	}
	if !found || existing.ID == selfID {
		return nil
	}

	log.Warn("duplicate business key", "policyNo", policyNo, "registrationNr", registrationNr, "existingID", existing.ID)
	return &common.ConflictError{
		PolicyNo:       policyNo,
		RegistrationNr: registrationNr,
		ExistingID:     existing.ID,
	}
}

func (cc *ContractController) fromInput(input ContractInput) (Contract, error) {
	contract := Contract{
		ClientName:     strings.TrimSpace(input.ClientName),
		Salesperson:    strings.TrimSpace(input.Salesperson),
		InsuranceType:  strings.TrimSpace(input.InsuranceType),
		PolicyNo:       strings.TrimSpace(input.PolicyNo),
		RegistrationNr: strings.TrimSpace(input.RegistrationNr),
		YearlyPremium:  input.YearlyPremium,
		PayoutValue:    input.PayoutValue,
	}

	var missing []string
	if contract.ClientName == "" {
		missing = append(missing, "klientas")
	}
	if contract.PolicyNo == "" {
		missing = append(missing, "policyNo")
	}
	if strings.TrimSpace(input.ValidUntil) == "" {
		missing = append(missing, "galiojaIki")
	}
	if len(missing) > 0 {
		return Contract{}, &common.ValidationError{Fields: missing}
	}

	validUntil, err := cc.parseDate("galiojaIki", input.ValidUntil)
	if err != nil {
		return Contract{}, err
	}
	contract.ValidUntil = validUntil

	contract.ValidFrom = cc.today()
	if strings.TrimSpace(input.ValidFrom) != "" {
		if contract.ValidFrom, err = cc.parseDate("galiojaNuo", input.ValidFrom); err != nil {
			return Contract{}, err
		}
	}

	if err := validateContract(contract); err != nil {
		return Contract{}, err
	}

	return contract, nil
}

func (cc *ContractController) applyPatch(current Contract, patch ContractPatch) (Contract, error) {
	next := current

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&next.ClientName, patch.ClientName)
	setString(&next.Salesperson, patch.Salesperson)
	setString(&next.InsuranceType, patch.InsuranceType)
	setString(&next.PolicyNo, patch.PolicyNo)
	setString(&next.RegistrationNr, patch.RegistrationNr)

	if patch.YearlyPremium != nil {
		next.YearlyPremium = *patch.YearlyPremium
	}
	if patch.PayoutValue != nil {
		next.PayoutValue = *patch.PayoutValue
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	var err error
	if patch.ValidFrom != nil {
		if next.ValidFrom, err = cc.parseDate("galiojaNuo", *patch.ValidFrom); err != nil {
			return Contract{}, err
		}
	}
	if patch.ValidUntil != nil {
		if next.ValidUntil, err = cc.parseDate("galiojaIki", *patch.ValidUntil); err != nil {
			return Contract{}, err
		}
	}

	return next, nil
}

func (cc *ContractController) parseDate(field, value string) (time.Time, error) {
	parsed, ok := cc.dates.Parse(value)
	if !ok {
		return time.Time{}, &common.ValidationError{
			Fields:  []string{field},
			Message: "invalid date for " + field + ": " + value,
		}
	}
	return parsed, nil
}

func validateContract(contract Contract) error {
	var missing []string
	if contract.ClientName == "" {
		missing = append(missing, "klientas")
	}
	if contract.PolicyNo == "" {
		missing = append(missing, "policyNo")
	}
	if contract.ValidUntil.IsZero() {
		missing = append(missing, "galiojaIki")
	}
	if len(missing) > 0 {
		return &common.ValidationError{Fields: missing}
	}

	var negative []string
	if contract.YearlyPremium < 0 {
		negative = append(negative, "metineIsmoka")
	}
	if contract.PayoutValue < 0 {
		negative = append(negative, "ismoka")
	}
	if len(negative) > 0 {
		return &common.ValidationError{
			Fields:  negative,
			Message: "amounts must not be negative: " + strings.Join(negative, ", "),
		}
	}

	return nil
}
