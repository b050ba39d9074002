package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"reqtrack/backend/internal/filesec"
	"reqtrack/backend/internal/filestore"
	"reqtrack/backend/internal/lifecycle"
	"reqtrack/backend/internal/localization"
	"reqtrack/backend/internal/notify"
	"reqtrack/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// AdminActor is recorded as the acting user for CLI operations.
const AdminActor = "admin-cli"

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for the CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: purge-expired | list-expired | set-status <request_id> <status>")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "purge-expired":
		n, err := purgeExpired(storageSvc)
		if err != nil {
			log.Fatalf("Error purging expired requests: %v", err)
		}
		fmt.Printf("Purged %d expired request(s).\n", n)
	case "list-expired":
		if err := listExpired(storageSvc); err != nil {
			log.Fatalf("Error listing expired requests: %v", err)
		}
	case "set-status":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin set-status <request_id> <status>")
			os.Exit(1)
		}
		if _, err := newEngine(storageSvc).ChangeStatus(os.Args[2], os.Args[3], AdminActor); err != nil {
			log.Fatalf("Error setting status: %v", err)
		}
		fmt.Printf("Request %s set to %s.\n", os.Args[2], os.Args[3])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

// newEngine builds a lifecycle engine wired for CLI use. The admin actor
// has no user record, so deletion goes through the engine's storage path
// directly where needed.
func newEngine(s *storage.Service) *lifecycle.Engine {
	root := os.Getenv("OBJECT_STORE_ROOT")
	if root == "" {
		root = "./data/objects"
	}
	return lifecycle.NewEngine(s, notify.NewService(s), filesec.NewPipeline(),
		filestore.NewDiskStore(root), localization.NewLocalizer())
}

// purgeExpired deletes every request whose retention window has passed.
// Objects and metadata go together; failures skip the request and continue.
func purgeExpired(s *storage.Service) (int, error) {
	expired, err := s.FindExpiredRequests(time.Now())
	if err != nil {
		return 0, err
	}

	root := os.Getenv("OBJECT_STORE_ROOT")
	if root == "" {
		root = "./data/objects"
	}
	objects := filestore.NewDiskStore(root)

	purged := 0
	for _, req := range expired {
		if err := objects.DeleteAll(req.ID); err != nil {
			log.Printf("ERROR: Failed to delete objects for request %s: %v", req.ID, err)
		}
		if err := s.DeleteRequestCascade(req.ID); err != nil {
			log.Printf("ERROR: Failed to delete request %s: %v", req.ID, err)
			continue
		}
		purged++
	}
	return purged, nil
}

func listExpired(s *storage.Service) error {
	expired, err := s.FindExpiredRequests(time.Now())
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		fmt.Println("No expired requests.")
		return nil
	}
	for _, req := range expired {
		fmt.Printf("%s  %s  completed=%s  deletion=%s\n",
			req.ID, req.ReferenceNumber,
			formatTime(req.CompletedAt), formatTime(req.DeletionDate))
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
