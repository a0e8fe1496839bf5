package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// ClientRepository manages persistence for therapy clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = "id, full_name, team_id, required_qualification_ids, allied_health_needs, active, created_at, updated_at"

// List returns clients matching filters along with total count.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	base := "FROM clients WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeamID != "" {
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", len(args)+1))
		args = append(args, filter.TeamID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", clientColumns, base, size, offset)
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	if err := decodeClients(clients); err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	return clients, total, nil
}

// ListActive returns every active client for a registry snapshot.
func (r *ClientRepository) ListActive(ctx context.Context) ([]models.Client, error) {
	query := fmt.Sprintf("SELECT %s FROM clients WHERE active = TRUE ORDER BY id", clientColumns)
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	if err := decodeClients(clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// FindByID fetches a client by id.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	query := fmt.Sprintf("SELECT %s FROM clients WHERE id = $1", clientColumns)
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		return nil, err
	}
	clients := []models.Client{client}
	if err := decodeClients(clients); err != nil {
		return nil, err
	}
	return &clients[0], nil
}

func decodeClients(clients []models.Client) error {
	for i := range clients {
		c := &clients[i]
		if len(c.RawQualifications) > 0 {
			if err := json.Unmarshal(c.RawQualifications, &c.RequiredQualificationIDs); err != nil {
				return fmt.Errorf("decode client %s qualifications: %w", c.ID, err)
			}
		}
		if len(c.RawAlliedHealthNeeds) > 0 {
			if err := json.Unmarshal(c.RawAlliedHealthNeeds, &c.AlliedHealthNeeds); err != nil {
				return fmt.Errorf("decode client %s allied health needs: %w", c.ID, err)
			}
		}
	}
	return nil
}
