package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"contact-api/internal/domain"
	"contact-api/internal/repository"
	"contact-api/pkg/utils"
)

const usage = "Usage: go run ./cmd/migrate [up|drop|seed|status]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if _, err := conn.Exec(ctx, repository.SubmissionSchema); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ contact_submissions table created successfully")

	case "drop":
		if _, err := conn.Exec(ctx, `DROP TABLE IF EXISTS contact_submissions CASCADE`); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ contact_submissions table dropped successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "status":
		if err := printStatus(ctx, conn); err != nil {
			log.Fatalf("Failed to read status counts: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

type seedSubmission struct {
	firstName, lastName, email, phone, countryCode, company, interests, message string
	status                                                                     domain.SubmissionStatus
	age                                                                        time.Duration
}

var seedSubmissions = []seedSubmission{
	{"Jo", "Lin", "jo@example.com", "5551234567", "+1", "", "Consulting",
		"Hello there, I need help with our rollout plan.", domain.StatusPending, 2 * time.Hour},
	{"Amara", "Okafor", "amara@example.org", "2025550143", "+1", "Okafor &amp; Sons", "Partnership",
		"We would like to discuss a reseller agreement.", domain.StatusRead, 26 * time.Hour},
	{"Lukas", "Meyer", "lukas.meyer@example.de", "15123456789", "+49", "Meyer GmbH", "Support",
		"Our export stopped working after the last update.", domain.StatusResponded, 72 * time.Hour},
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, s := range seedSubmissions {
		reference, err := utils.GenerateReference(utils.DefaultReferencePrefix)
		if err != nil {
			return err
		}
		createdAt := now.Add(-s.age)

		_, err = tx.Exec(ctx, `
			INSERT INTO contact_submissions (id, reference, first_name, last_name, email, phone, country_code,
				company, interests, message, status, ip_address, user_agent, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '127.0.0.1', 'seed', $12, $12)`,
			uuid.NewString(), reference, s.firstName, s.lastName, s.email, s.phone, s.countryCode,
			s.company, s.interests, s.message, string(s.status), createdAt)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", s.email, err)
		}
		fmt.Printf("  Seeded %s (%s)\n", reference, s.status)
	}

	return tx.Commit(ctx)
}

func printStatus(ctx context.Context, conn *pgx.Conn) error {
	rows, err := conn.Query(ctx, `SELECT status, COUNT(*) FROM contact_submissions GROUP BY status ORDER BY status`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return err
		}
		total += count
		fmt.Printf("  %-10s %d\n", status, count)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	fmt.Printf("  %-10s %d\n", "total", total)
	return nil
}
