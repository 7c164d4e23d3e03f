package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilesExist(t *testing.T) {
	migrationsDir := "../../migrations"

	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_products_table.sql",
		"00002_create_product_variants_table.sql",
		"00003_create_stock_movements_table.sql",
		"00004_create_stock_movement_entries_table.sql",
		"00005_create_updated_at_trigger.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	migrationsDir := "../../migrations"

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		if !strings.Contains(contentStr, "-- +goose Up") {
			t.Errorf("Migration file %s missing '-- +goose Up' directive", file.Name())
		}
		if !strings.Contains(contentStr, "-- +goose Down") {
			t.Errorf("Migration file %s missing '-- +goose Down' directive", file.Name())
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	migrationsDir := "../../migrations"

	expectedTables := map[string]string{
		"products":               "00001_create_products_table.sql",
		"product_variants":       "00002_create_product_variants_table.sql",
		"stock_movements":        "00003_create_stock_movements_table.sql",
		"stock_movement_entries": "00004_create_stock_movement_entries_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		path := filepath.Join(migrationsDir, migrationFile)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)

		createTableStmt := "CREATE TABLE IF NOT EXISTS " + tableName
		if !strings.Contains(contentStr, createTableStmt) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}

		dropTableStmt := "DROP TABLE IF EXISTS " + tableName
		if !strings.Contains(contentStr, dropTableStmt) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestVariantsTableHasUniqueSizeConstraint(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00002_create_product_variants_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read product_variants migration: %v", err)
	}

	if !strings.Contains(string(content), "UNIQUE (product_id, size)") {
		t.Error("Product variants table missing unique constraint on (product_id, size)")
	}
}

func TestMovementsTableHasStatusConstraint(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00003_create_stock_movements_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read stock_movements migration: %v", err)
	}

	contentStr := string(content)
	for _, status := range []string{"stock in", "stock out"} {
		if !strings.Contains(contentStr, status) {
			t.Errorf("Stock movements status constraint missing value: %s", status)
		}
	}
}

func TestTriggerMigrationUsesStatementBlocks(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00005_create_updated_at_trigger.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read trigger migration: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "-- +goose StatementBegin") {
		t.Error("Trigger migration missing '-- +goose StatementBegin' directive")
	}
	if !strings.Contains(contentStr, "-- +goose StatementEnd") {
		t.Error("Trigger migration missing '-- +goose StatementEnd' directive")
	}
}
