package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

// SpecialistRepo reads the seeded specialists/diseases reference tables.
type SpecialistRepo struct {
	db *sql.DB
}

func NewSpecialistRepo(db *sql.DB) *SpecialistRepo {
	return &SpecialistRepo{db: db}
}

// FindByDisease matches the disease name as a case-insensitive substring.
func (r *SpecialistRepo) FindByDisease(ctx context.Context, disease string) (*model.Specialist, error) {
	const query = `SELECT s.id, s.name, s.description
FROM specialists s
JOIN diseases d ON d.specialist_id = s.id
WHERE LOWER(d.name) LIKE $1
ORDER BY d.id
LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, "%"+strings.ToLower(strings.TrimSpace(disease))+"%")
	return scanSpecialist(row)
}

// FindBySymptoms picks the specialist owning the most diseases that mention
// any of the given symptoms.
func (r *SpecialistRepo) FindBySymptoms(ctx context.Context, symptoms []string) (*model.Specialist, error) {
	var conds []string
	var args []interface{}
	for _, s := range symptoms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("LOWER(d.symptoms) LIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return nil, appErr.ErrNotFound
	}
	query := `SELECT s.id, s.name, s.description
FROM specialists s
JOIN diseases d ON d.specialist_id = s.id
WHERE ` + strings.Join(conds, " OR ") + `
GROUP BY s.id, s.name, s.description
ORDER BY COUNT(DISTINCT d.id) DESC, s.id
LIMIT 1`
	return scanSpecialist(r.db.QueryRowContext(ctx, query, args...))
}

func scanSpecialist(row *sql.Row) (*model.Specialist, error) {
	var sp model.Specialist
	if err := row.Scan(&sp.ID, &sp.Name, &sp.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &sp, nil
}
