// Command provision seeds the device registry: whitelist devices that users
// can later connect, and the virtual mobile device backing a user's phone
// submissions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"farmguardian/internal/models"
	"farmguardian/internal/repository/sqlite"
	"farmguardian/internal/services/devices"
)

func main() {
	dbPath := flag.String("db", filepath.Join("data", "farmguardian.db"), "Database path")
	count := flag.Int("count", 0, "Number of whitelist devices to create")
	crop := flag.String("crop", "", "Target crop preset for created devices")
	mobileUser := flag.Int64("mobile-user", 0, "Create the mobile device for this user id")
	flag.Parse()

	if *count <= 0 && *mobileUser <= 0 {
		fmt.Println("Nothing to do: pass -count and/or -mobile-user")
		return
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewDeviceRepository(db)

	for i := 0; i < *count; i++ {
		dev := &models.Device{
			DeviceUUID: uuid.NewString(),
			Status:     models.DeviceStatusAvailable,
			TargetCrop: *crop,
		}
		id, err := repo.Insert(dev)
		if err != nil {
			log.Fatalf("Failed to insert device: %v", err)
		}
		fmt.Printf("Created device %d: %s\n", id, dev.DeviceUUID)
	}

	if *mobileUser > 0 {
		mobileUUID := devices.MobileDeviceUUID(*mobileUser)

		existing, err := repo.GetByUUID(mobileUUID)
		if err != nil {
			log.Fatalf("Failed to check mobile device: %v", err)
		}
		if existing != nil {
			fmt.Printf("Mobile device for user %d already exists: %s\n", *mobileUser, mobileUUID)
			return
		}

		userID := *mobileUser
		dev := &models.Device{
			DeviceUUID: mobileUUID,
			UserID:     &userID,
			Alias:      "Mobile",
			Status:     models.DeviceStatusConnected,
		}
		id, err := repo.Insert(dev)
		if err != nil {
			log.Fatalf("Failed to insert mobile device: %v", err)
		}
		fmt.Printf("Created mobile device %d for user %d: %s\n", id, userID, mobileUUID)
	}
}
