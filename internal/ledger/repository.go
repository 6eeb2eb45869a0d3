package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrDuplicatePurchase = errors.New("purchase for this ticket already recorded")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Repository is the Postgres projection of issued tickets.
type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "ledger_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// InsertPurchase records one ticket. A second insert for the same ticket code
// returns ErrDuplicatePurchase.
func (r *Repository) InsertPurchase(ctx context.Context, rec *domain.PurchaseRecord) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal purchase items: %w", err)
	}

	id := uuid.New()
	query := `INSERT INTO purchases (id, ticket_code, purchaser, amount, items, purchased_at, recorded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())
	          RETURNING recorded_at`

	err = r.db.QueryRowContext(ctx, query,
		id,
		rec.TicketCode,
		rec.Purchaser,
		rec.Amount.String(),
		itemsJSON,
		rec.PurchasedAt,
	).Scan(&rec.RecordedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePurchase
		}
		return fmt.Errorf("insert purchase: %w", err)
	}

	rec.ID = id.String()
	return nil
}

// ListByPurchaser returns the purchaser's history, newest first.
func (r *Repository) ListByPurchaser(ctx context.Context, purchaser string) ([]domain.PurchaseRecord, error) {
	query := `SELECT id, ticket_code, purchaser, amount, items, purchased_at, recorded_at
	          FROM purchases WHERE purchaser = $1 ORDER BY purchased_at DESC`

	rows, err := r.db.QueryContext(ctx, query, purchaser)
	if err != nil {
		return nil, fmt.Errorf("query purchases by purchaser: %w", err)
	}
	defer rows.Close()

	records := []domain.PurchaseRecord{}
	for rows.Next() {
		var rec domain.PurchaseRecord
		var itemsJSON []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.TicketCode,
			&rec.Purchaser,
			&rec.Amount,
			&itemsJSON,
			&rec.PurchasedAt,
			&rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
			return nil, fmt.Errorf("unmarshal purchase items: %w", err)
		}
		rec.PurchasedAt = rec.PurchasedAt.UTC()
		rec.RecordedAt = rec.RecordedAt.UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
