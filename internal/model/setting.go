package model

import "time"

const (
	SettingProgramEndDate  = "program_end_date"
	SettingMaintenanceMode = "maintenance_mode"
)

type Setting struct {
	Key       string    `db:"setting_key" json:"key"`
	Value     string    `db:"setting_value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
