package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// DirectoryRepository reads departments, incident types and priorities.
type DirectoryRepository interface {
	GetDepartmentByID(ctx context.Context, id int64) (*domain.Department, error)
	GetIncidentTypeByID(ctx context.Context, id int64) (*domain.IncidentType, error)
	GetPriorityByID(ctx context.Context, id int64) (*domain.Priority, error)
	ListIncidentTypes(ctx context.Context, departmentID int64) ([]domain.IncidentType, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
}

type directoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository builds repository.
func NewDirectoryRepository(pool *pgxpool.Pool) DirectoryRepository {
	return &directoryRepository{pool: pool}
}

func (r *directoryRepository) GetDepartmentByID(ctx context.Context, id int64) (*domain.Department, error) {
	const query = `SELECT id, name, is_active FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(&dept.ID, &dept.Name, &dept.IsActive); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *directoryRepository) GetIncidentTypeByID(ctx context.Context, id int64) (*domain.IncidentType, error) {
	const query = `SELECT id, department_id, name, is_active FROM incident_types WHERE id=$1`
	var incident domain.IncidentType
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.DepartmentID,
		&incident.Name,
		&incident.IsActive,
	); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *directoryRepository) GetPriorityByID(ctx context.Context, id int64) (*domain.Priority, error) {
	const query = `SELECT id, name, due_days FROM priorities WHERE id=$1`
	var priority domain.Priority
	if err := r.pool.QueryRow(ctx, query, id).Scan(&priority.ID, &priority.Name, &priority.DueDays); err != nil {
		return nil, err
	}
	return &priority, nil
}

func (r *directoryRepository) ListIncidentTypes(ctx context.Context, departmentID int64) ([]domain.IncidentType, error) {
	const query = `SELECT id, department_id, name, is_active FROM incident_types WHERE department_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IncidentType
	for rows.Next() {
		var incident domain.IncidentType
		if err := rows.Scan(&incident.ID, &incident.DepartmentID, &incident.Name, &incident.IsActive); err != nil {
			return nil, err
		}
		result = append(result, incident)
	}
	return result, rows.Err()
}

func (r *directoryRepository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	const query = `SELECT id, name, is_active FROM departments ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.IsActive); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
