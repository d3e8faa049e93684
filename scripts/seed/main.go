// Command seed provisions an initial super admin account and the default
// form types so a fresh deployment is usable without manual SQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/repository"
	"github.com/the-local-guys/testtag-api/pkg/config"
	"github.com/the-local-guys/testtag-api/pkg/database"
)

func main() {
	var (
		username string
		password string
		fullName string
		skipForm bool
	)

	flag.StringVar(&username, "username", "admin", "Username for the super admin account")
	flag.StringVar(&password, "password", "", "Password for the super admin account (required)")
	flag.StringVar(&fullName, "full-name", "System Administrator", "Display name for the account")
	flag.BoolVar(&skipForm, "skip-form-types", false, "Skip seeding the default form types")
	flag.Parse()

	if password == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -password <password> [-username admin]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	if existing, err := users.FindByUsername(ctx, username); err == nil && existing != nil {
		log.Printf("user %q already exists, skipping", username)
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		now := time.Now().UTC()
		user := &models.User{
			ID:           uuid.NewString(),
			Username:     username,
			PasswordHash: string(hash),
			FullName:     fullName,
			Role:         models.RoleSuperAdmin,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("create user: %v", err)
		}
		log.Printf("created super admin %q (%s)", username, user.ID)
	}

	if skipForm {
		return
	}

	formTypes := repository.NewFormTypeRepository(db)
	for _, ft := range defaultFormTypes() {
		if existing, err := formTypes.FindByCode(ctx, ft.ServiceType, ft.Code); err == nil && existing != nil {
			continue
		}
		now := time.Now().UTC()
		ft.ID = uuid.NewString()
		ft.CreatedAt = now
		ft.UpdatedAt = now
		if err := formTypes.Create(ctx, &ft); err != nil {
			log.Fatalf("create form type %s: %v", ft.Code, err)
		}
		log.Printf("created form type %s (%s)", ft.Code, ft.ServiceType)
	}
}

func defaultFormTypes() []models.CustomFormType {
	return []models.CustomFormType{
		{Code: "portable_appliance", Name: "Portable Appliance Test", ServiceType: models.ServiceElectrical},
		{Code: "rcd_test", Name: "RCD Test", ServiceType: models.ServiceElectrical},
		{Code: "exit_light_discharge", Name: "Exit Light Discharge Test", ServiceType: models.ServiceEmergencyExitLight},
		{Code: "extinguisher_inspection", Name: "Extinguisher Inspection", ServiceType: models.ServiceFireTesting},
	}
}
