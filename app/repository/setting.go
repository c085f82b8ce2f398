package repository

import "context"

// SettingRepository reads the key→value settings table the dashboard writes.
// Batch jobs snapshot it once per run into an entity.BillingConfig.
type SettingRepository struct {
	db DBTX
}

func NewSettingRepository(db DBTX) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		settings[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return settings, nil
}
