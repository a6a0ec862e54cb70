// Command-line tool to clean the database by dropping all tables in the
// public schema and deleting stored resume files.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jinxovich/mosprom-sracaton/internal/database"
	"github.com/jinxovich/mosprom-sracaton/internal/storage"
)

func main() {

	// Warning message
	fmt.Println("WARNING: This command will DROP ALL TABLES in the 'public' schema of your database")
	fmt.Println("and delete every stored resume file.")
	fmt.Println("This action is irreversible. Do you want to continue? (yes/no): ")

	// Ask for confirmation
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	input = strings.TrimSpace(strings.ToLower(input))

	if input != "yes" {
		fmt.Println("Operation cancelled.")
		return
	}

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialize: %v", err)
	}

	// SQL command to drop all tables
	sql := `
	DO $$
		DECLARE
			r RECORD;
		BEGIN
			FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
				EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
			END LOOP;
		END $$;
	`

	// Execute raw SQL
	if err := db.Exec(sql).Error; err != nil {
		log.Fatalf("failed to execute drop command: %v", err)
	}

	fmt.Println("All tables dropped successfully.")

	cleanResumeStore()
}

// cleanResumeStore removes every object under the resume prefix from
// whichever storage backend is configured. Skipped when neither backend
// is configured.
func cleanResumeStore() {
	var store storage.Client
	var err error

	if bucket := os.Getenv("BUCKET_NAME"); bucket != "" {
		store, err = storage.NewCloudStorageClient(bucket)
	} else if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		store, err = storage.NewLocalStorageClient(dir)
	} else {
		fmt.Println("No storage configured, skipping resume cleanup.")
		return
	}
	if err != nil {
		log.Fatalf("Storage failed to initialize: %v", err)
	}

	objects, err := store.ListFiles("resumes/")
	if err != nil {
		log.Fatalf("failed to list resume files: %v", err)
	}

	for _, object := range objects {
		if err := store.DeleteFile(object); err != nil {
			log.Printf("failed to delete %s: %v", object, err)
			continue
		}
	}

	fmt.Printf("Deleted %d resume files.\n", len(objects))
}
