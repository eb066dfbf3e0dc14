package seed

import (
	"time"

	"policybook/config"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/services"

	"gorm.io/gorm"
)

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []User{
		{
			DisplayName: "Ona Onaitė",
			Login:       "ona",
			Password:    "password",
			Role:        RoleManager,
		}, {
			DisplayName: "Petras Petraitis",
			Login:       "petras",
			Password:    "password",
			Role:        RoleManager,
		}, {
			DisplayName: "Guest",
			Login:       "guest",
			Password:    "password",
			Role:        RoleViewer,
		},
	}

	for _, user := range users {
		var existingUser User
		if err := db.First(&existingUser, "login = ?", user.Login).Error; err == nil {
			log.Info("User already exists", "login", user.Login)
			continue
		}
		log.Info("Seeding user", "login", user.Login, "role", user.Role)
		if err := db.Create(&user).Error; err != nil {
			log.Er("failed to create user", err, "login", user.Login)
		}
	}

	today := DateOnly(time.Now())
	contracts := []Contract{
		{
			ClientName:     "UAB Medis",
			Salesperson:    "ona",
			InsuranceType:  "KASKO",
			PolicyNo:       "KAS-1001",
			RegistrationNr: "ABC123",
			ValidFrom:      today.AddDate(-1, 0, 90),
			ValidUntil:     today.AddDate(0, 0, 90),
			YearlyPremium:  420,
			PayoutValue:    18000,
		}, {
			ClientName:     "Jonas Jonaitis",
			Salesperson:    "petras",
			InsuranceType:  "TPVCA",
			PolicyNo:       "TP-2002",
			RegistrationNr: "KLM456",
			ValidFrom:      today.AddDate(-1, 0, 12),
			ValidUntil:     today.AddDate(0, 0, 12),
			YearlyPremium:  96.5,
		}, {
			ClientName:    "Rasa Rasaitė",
			Salesperson:   "ona",
			InsuranceType: "Būsto draudimas",
			PolicyNo:      "BUS-3003",
			ValidFrom:     today.AddDate(-1, 0, -20),
			ValidUntil:    today.AddDate(0, 0, -20),
			YearlyPremium: 130,
			PayoutValue:   95000,
		},
	}

	for _, contract := range contracts {
		var existing Contract
		err := db.First(&existing, "policy_no = ? AND registration_nr = ?", contract.PolicyNo, contract.RegistrationNr).Error
		if err == nil {
			log.Info("Contract already exists", "policyNo", contract.PolicyNo)
			continue
		}

		contract.Notes = []Note{}
		contract.LastUpdated = time.Now().UTC()
		log.Info("Seeding contract", "policyNo", contract.PolicyNo)
		if err := db.Create(&contract).Error; err != nil {
			log.Er("failed to create contract", err, "policyNo", contract.PolicyNo)
			continue
		}

		entry := HistoryEntry{
			ContractID: contract.ID,
			Username:   "system",
			Action:     ActionCreated,
			Details:    services.DetailsFor(ActionCreated),
		}
		if err := db.Create(&entry).Error; err != nil {
			log.Er("failed to create history entry", err, "policyNo", contract.PolicyNo)
		}
	}

	return nil
}
