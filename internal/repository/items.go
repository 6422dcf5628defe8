package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/google/uuid"
)

type ItemFilter struct {
	UserID     string
	Kind       *models.ItemKind
	CategoryID *string
	Recurring  *bool
}

type ItemRepository interface {
	FindByID(ctx context.Context, id string) (models.Item, error)
	FindAll(ctx context.Context, filter ItemFilter) ([]models.Item, error)
	Create(ctx context.Context, item models.Item) (models.Item, error)
	Update(ctx context.Context, item models.Item) error
	Delete(ctx context.Context, id string) error
	// Modify loads the item, applies fn and stores the result in one
	// transaction. An error from fn aborts the write.
	Modify(ctx context.Context, id string, fn func(models.Item) (models.Item, error)) (models.Item, error)
}

type SQLiteItemRepository struct {
	database *sql.DB
}

func NewItemRepository(database *sql.DB) *SQLiteItemRepository {
	return &SQLiteItemRepository{database: database}
}

const itemColumns = `id, user_id, kind, title, description, category_id, priority, location,
	start_time, end_time, anchor_date, recurrence, completed, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var item models.Item
	var categoryID, rule sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&item.ID, &item.UserID, &item.Details.Kind, &item.Details.Title, &item.Details.Description,
		&categoryID, &item.Details.Priority, &item.Details.Location,
		&item.Details.StartTime, &item.Details.EndTime,
		&item.Schedule.Anchor, &rule, &item.Schedule.Completed, &completedAt,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return models.Item{}, err
	}

	item.Details.CategoryID = categoryID.String
	if completedAt.Valid {
		at := completedAt.Time
		item.Schedule.CompletedAt = &at
	}
	if rule.Valid {
		var config recurrence.Config
		if err := json.Unmarshal([]byte(rule.String), &config); err != nil {
			return models.Item{}, fmt.Errorf("decoding recurrence of item %s: %w", item.ID, err)
		}
		item.Schedule.Rule, err = config.Build(item.Schedule.Anchor)
		if err != nil {
			return models.Item{}, fmt.Errorf("building recurrence of item %s: %w", item.ID, err)
		}
	}
	return item, nil
}

func encodeRule(rule *recurrence.Rule) (sql.NullString, error) {
	if rule == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(recurrence.ConfigOf(rule))
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding recurrence: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func (repository *SQLiteItemRepository) FindByID(ctx context.Context, id string) (models.Item, error) {
	return findItem(ctx, repository.database, id)
}

func findItem(ctx context.Context, q querier, id string) (models.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, fmt.Errorf("finding item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("finding item by id: %w", err)
	}

	completions, err := loadCompletions(ctx, q, []string{item.ID})
	if err != nil {
		return models.Item{}, err
	}
	item.Schedule.Completions = completions[item.ID]
	return item, nil
}

func (repository *SQLiteItemRepository) FindAll(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE 1=1"

	var args []any

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Kind != nil {
		query += " AND kind = ?"
		args = append(args, *filter.Kind)
	}
	if filter.CategoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *filter.CategoryID)
	}
	if filter.Recurring != nil {
		if *filter.Recurring {
			query += " AND recurrence IS NOT NULL"
		} else {
			query += " AND recurrence IS NULL"
		}
	}

	query += " ORDER BY anchor_date ASC, start_time ASC, created_at ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding items: %w", err)
	}

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("closing item rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	if len(items) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Schedule.IsRecurring() {
			ids = append(ids, item.ID)
		}
	}
	completions, err := loadCompletions(ctx, repository.database, ids)
	if err != nil {
		return nil, err
	}
	for index := range items {
		items[index].Schedule.Completions = completions[items[index].ID]
	}
	return items, nil
}

func loadCompletions(ctx context.Context, q querier, itemIDs []string) (map[string][]recurrence.Completion, error) {
	completions := make(map[string][]recurrence.Completion, len(itemIDs))
	if len(itemIDs) == 0 {
		return completions, nil
	}

	args := make([]any, len(itemIDs))
	for index, id := range itemIDs {
		args[index] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT item_id, occurrence_date, completed, completed_at FROM item_completions
		WHERE item_id IN (`+placeholders(len(itemIDs))+`) ORDER BY occurrence_date`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("finding completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var completion recurrence.Completion
		var completedAt sql.NullTime
		if err := rows.Scan(&itemID, &completion.Date, &completion.Completed, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning completion: %w", err)
		}
		if completedAt.Valid {
			at := completedAt.Time
			completion.CompletedAt = &at
		}
		completions[itemID] = append(completions[itemID], completion)
	}
	return completions, rows.Err()
}

func (repository *SQLiteItemRepository) Create(ctx context.Context, item models.Item) (models.Item, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	rule, err := encodeRule(item.Schedule.Rule)
	if err != nil {
		return models.Item{}, err
	}

	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return models.Item{}, fmt.Errorf("beginning item transaction: %w", err)
	}
	defer transaction.Rollback()

	_, err = transaction.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Details.Kind, item.Details.Title, item.Details.Description,
		nullString(item.Details.CategoryID), item.Details.Priority, item.Details.Location,
		item.Details.StartTime, item.Details.EndTime,
		item.Schedule.Anchor, rule, item.Schedule.Completed, item.Schedule.CompletedAt,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return models.Item{}, fmt.Errorf("creating item: %w", err)
	}
	if err := writeCompletions(ctx, transaction, item.ID, item.Schedule.Completions); err != nil {
		return models.Item{}, err
	}

	if err := transaction.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("committing item: %w", err)
	}
	return item, nil
}

func (repository *SQLiteItemRepository) Update(ctx context.Context, item models.Item) error {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning item transaction: %w", err)
	}
	defer transaction.Rollback()

	if _, err := updateItem(ctx, transaction, item); err != nil {
		return err
	}
	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing item: %w", err)
	}
	return nil
}

// updateItem rewrites the item row and replaces its completion ledger.
func updateItem(ctx context.Context, q querier, item models.Item) (models.Item, error) {
	item.UpdatedAt = time.Now()

	rule, err := encodeRule(item.Schedule.Rule)
	if err != nil {
		return models.Item{}, err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE items SET kind = ?, title = ?, description = ?, category_id = ?, priority = ?,
			location = ?, start_time = ?, end_time = ?, anchor_date = ?, recurrence = ?,
			completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		item.Details.Kind, item.Details.Title, item.Details.Description,
		nullString(item.Details.CategoryID), item.Details.Priority, item.Details.Location,
		item.Details.StartTime, item.Details.EndTime,
		item.Schedule.Anchor, rule, item.Schedule.Completed, item.Schedule.CompletedAt,
		item.UpdatedAt, item.ID,
	)
	if err != nil {
		return models.Item{}, fmt.Errorf("updating item: %w", err)
	}
	if err := requireAffected(result, fmt.Errorf("updating item %s: %w", item.ID, ErrNotFound)); err != nil {
		return models.Item{}, err
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM item_completions WHERE item_id = ?", item.ID); err != nil {
		return models.Item{}, fmt.Errorf("clearing completions: %w", err)
	}
	if err := writeCompletions(ctx, q, item.ID, item.Schedule.Completions); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

func writeCompletions(ctx context.Context, q querier, itemID string, completions []recurrence.Completion) error {
	for _, completion := range completions {
		_, err := q.ExecContext(ctx,
			"INSERT INTO item_completions (item_id, occurrence_date, completed, completed_at) VALUES (?, ?, ?, ?)",
			itemID, completion.Date, completion.Completed, completion.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("recording completion %s: %w", completion.Date, err)
		}
	}
	return nil
}

func (repository *SQLiteItemRepository) Modify(ctx context.Context, id string, fn func(models.Item) (models.Item, error)) (models.Item, error) {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return models.Item{}, fmt.Errorf("beginning item transaction: %w", err)
	}
	defer transaction.Rollback()

	current, err := findItem(ctx, transaction, id)
	if err != nil {
		return models.Item{}, err
	}

	modified, err := fn(current)
	if err != nil {
		return models.Item{}, err
	}
	modified.ID = current.ID
	modified.UserID = current.UserID
	modified.CreatedAt = current.CreatedAt

	updated, err := updateItem(ctx, transaction, modified)
	if err != nil {
		return models.Item{}, err
	}
	if err := transaction.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("committing item: %w", err)
	}
	return updated, nil
}

func (repository *SQLiteItemRepository) Delete(ctx context.Context, id string) error {
	result, err := repository.database.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireAffected(result, fmt.Errorf("deleting item %s: %w", id, ErrNotFound))
}
