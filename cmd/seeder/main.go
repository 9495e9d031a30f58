package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/config"
	"github.com/foxxcyber/dealer-dashboard/internal/database"
	"github.com/foxxcyber/dealer-dashboard/internal/logging"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
	"github.com/foxxcyber/dealer-dashboard/internal/services"
)

func main() {
	// Command line flags
	vehicles := flag.Int("vehicles", 0, "Number of sample vehicle records to insert")
	storeID := flag.String("store", "S1", "Store id for seeded vehicles and created users")
	days := flag.Int("days", 45, "Spread seeded processing dates over this many past days")
	createUser := flag.String("create-user", "", "Create a user with this username")
	role := flag.String("role", string(models.RoleUser), "Role for -create-user (dealership_user, admin, super_admin)")
	password := flag.String("password", "", "Password for -create-user or -reset-password")
	resetPassword := flag.String("reset-password", "", "Reset the password of this username")
	dryRun := flag.Bool("dry-run", false, "Print seeded vehicles without writing to database")
	screenshots := flag.Bool("screenshots", false, "Upload placeholder screenshots for seeded vehicles (needs S3_ENABLED)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *vehicles == 0 && *createUser == "" && *resetPassword == "" {
		flag.Usage()
		os.Exit(2)
	}

	rows := sampleVehicles(*vehicles, *storeID, *days, time.Now())
	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, v := range rows {
			_ = enc.Encode(v)
		}
		return
	}

	ctx := context.Background()
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	if *createUser != "" {
		r := models.Role(*role)
		if !r.Valid() {
			log.Fatal("invalid role", zap.String("role", *role))
		}
		if len(*password) < 6 {
			log.Fatal("password must be at least 6 characters")
		}
		hash, err := services.HashPassword(*password)
		if err != nil {
			log.Fatal("failed to hash password", zap.Error(err))
		}
		user, err := db.CreateUser(ctx, *createUser, hash, *storeID, r)
		if err != nil {
			log.Fatal("failed to create user", zap.Error(err))
		}
		log.Info("user created", zap.Int("id", user.ID), zap.String("username", user.Username), zap.String("role", string(user.Role)))
	}

	if *resetPassword != "" {
		if len(*password) < 6 {
			log.Fatal("password must be at least 6 characters")
		}
		user, err := db.GetUserByUsername(ctx, *resetPassword)
		if err != nil {
			log.Fatal("failed to find user", zap.String("username", *resetPassword), zap.Error(err))
		}
		hash, err := services.HashPassword(*password)
		if err != nil {
			log.Fatal("failed to hash password", zap.Error(err))
		}
		if err := db.UpdateUserPassword(ctx, user.ID, hash); err != nil {
			log.Fatal("failed to reset password", zap.Error(err))
		}
		log.Info("password reset", zap.String("username", user.Username))
	}

	if *screenshots && len(rows) > 0 {
		if !cfg.S3Enabled {
			log.Fatal("-screenshots needs S3_ENABLED=true")
		}
		storage, err := services.NewStorageService(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			log.Fatal("failed to create storage client", zap.Error(err))
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			log.Fatal("failed to ensure bucket", zap.Error(err))
		}
		n, err := attachScreenshots(ctx, storage, rows, log)
		if err != nil {
			log.Fatal("failed to upload screenshots", zap.Error(err))
		}
		log.Info("screenshots uploaded", zap.Int("count", n), zap.String("bucket", cfg.S3Bucket))
	}

	inserted := 0
	for _, v := range rows {
		if _, err := db.InsertVehicle(ctx, v); err != nil {
			log.Error("failed to insert vehicle", zap.String("stock_number", v.StockNumber), zap.Error(err))
			continue
		}
		inserted++
	}
	if len(rows) > 0 {
		log.Info("vehicles seeded", zap.Int("inserted", inserted), zap.String("store_id", *storeID))
	}
}

var sampleModels = []string{
	"2021 Toyota Camry SE",
	"2019 Honda Accord EX-L",
	"2022 Ford F-150 XLT",
	"2020 Chevrolet Equinox LT",
	"2023 Subaru Outback Premium",
	"2018 Jeep Wrangler Unlimited Sport",
}

var sampleFeatures = []string{
	"Heated Seats", "Navigation System", "Backup Camera", "Sunroof",
	"Apple CarPlay", "Blind Spot Monitor", "Remote Start", "Leather Seats",
}

// sampleVehicles builds n records shaped like the automation system's
// output. About one in ten fails and one in twenty is still processing.
func sampleVehicles(n int, storeID string, days int, now time.Time) []*models.VehicleRecord {
	if days < 1 {
		days = 1
	}
	session := uuid.NewString()
	out := make([]*models.VehicleRecord, 0, n)
	for i := 0; i < n; i++ {
		name := sampleModels[rand.IntN(len(sampleModels))]
		v := &models.VehicleRecord{
			StockNumber:         fmt.Sprintf("S%05d", 10000+i),
			VehicleName:         strPtr(name),
			VIN:                 strPtr(sampleVIN()),
			StoreID:             strPtr(storeID),
			ProcessingDate:      now.Add(-time.Duration(rand.IntN(days*24*60)) * time.Minute),
			ProcessingSessionID: strPtr(session),
			Odometer:            strPtr(fmt.Sprintf("%d", 5000+rand.IntN(90000))),
			DaysInInventory:     strPtr(fmt.Sprintf("%d", rand.IntN(120))),
			ProcessingDuration:  strPtr(fmt.Sprintf("%.1fs", 30+rand.Float64()*90)),
		}

		switch roll := rand.IntN(20); {
		case roll == 0:
			v.ProcessingStatus = strPtr(models.StatusProcessing)
		case roll < 3:
			v.ProcessingStatus = strPtr(models.StatusFailed)
			v.ErrorsEncountered = jsonPtr([]string{"Timed out waiting for window sticker"})
		default:
			v.ProcessingStatus = strPtr(models.StatusCompleted)
			v.ProcessingSuccessful = true
			fillCompleted(v, name)
		}
		out = append(out, v)
	}
	return out
}

func fillCompleted(v *models.VehicleRecord, name string) {
	v.OriginalDescription = strPtr("Clean " + name + ".")
	v.DescriptionUpdated = rand.IntN(4) != 0
	if v.DescriptionUpdated {
		v.AIGeneratedDescription = strPtr("Well equipped " + name + " with a clean history.")
		v.FinalDescription = v.AIGeneratedDescription
	}

	starred := make([]string, 0, 4)
	for _, idx := range rand.Perm(len(sampleFeatures))[:1+rand.IntN(4)] {
		starred = append(starred, sampleFeatures[idx])
	}
	count := len(starred)
	v.StarredFeatures = jsonPtr(starred)
	v.MarkedFeaturesCount = &count
	v.NoFearCertificate = rand.IntN(3) == 0
	v.NoBuildDataFound = rand.IntN(15) == 0

	v.BookValuesProcessed = rand.IntN(5) != 0
	if v.BookValuesProcessed {
		base := 15000 + rand.IntN(25000)
		lift := rand.IntN(1500)
		v.BookValuesBeforeProcessing = jsonPtr(map[string]string{
			"KBB":        fmt.Sprintf("$%d", base),
			"J.D. Power": fmt.Sprintf("$%d", base+400),
		})
		v.BookValuesAfterProcessing = jsonPtr(map[string]string{
			"KBB":        fmt.Sprintf("$%d", base+lift),
			"J.D. Power": fmt.Sprintf("$%d", base+400+lift/2),
		})
	}
	v.MediaTabProcessed = rand.IntN(4) != 0
}

const vinAlphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

func sampleVIN() string {
	b := make([]byte, 17)
	for i := range b {
		b[i] = vinAlphabet[rand.IntN(len(vinAlphabet))]
	}
	return string(b)
}

func strPtr(s string) *string { return &s }

func jsonPtr(v any) *string {
	b, _ := json.Marshal(v)
	s := string(b)
	return &s
}
