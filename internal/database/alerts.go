package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/shopspring/decimal"
)

const settingAlertCooldown = "alert_cooldown"

// GetAllThresholds fetches every stored threshold keyed by symbol
func (d *DB) GetAllThresholds() (map[string]types.AlertThreshold, error) {
	rows, err := d.db.Query(`SELECT symbol, high, low FROM alert_thresholds;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer rows.Close()

	thresholds := make(map[string]types.AlertThreshold)
	for rows.Next() {
		var symbol string
		var high, low sql.NullString
		if err := rows.Scan(&symbol, &high, &low); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		t := types.AlertThreshold{Symbol: symbol}
		if t.High, err = parseNullDecimal(high); err != nil {
			return nil, fmt.Errorf("invalid high threshold for %s: %w", symbol, err)
		}
		if t.Low, err = parseNullDecimal(low); err != nil {
			return nil, fmt.Errorf("invalid low threshold for %s: %w", symbol, err)
		}
		thresholds[symbol] = t
	}

	return thresholds, rows.Err()
}

// ReplaceThresholds stores exactly the given thresholds
func (d *DB) ReplaceThresholds(thresholds map[string]types.AlertThreshold) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM alert_thresholds;`); err != nil {
		return fmt.Errorf("failed to clear thresholds: %w", err)
	}
	for symbol, t := range thresholds {
		if t.Empty() {
			continue
		}
		_, err := tx.Exec(`INSERT INTO alert_thresholds (symbol, high, low) VALUES (?, ?, ?);`,
			symbol, nullDecimal(t.High), nullDecimal(t.Low))
		if err != nil {
			return fmt.Errorf("failed to insert threshold for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

// SetSetting stores a key/value setting
func (d *DB) SetSetting(key, value string) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?);`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// GetSetting returns a setting and whether it exists
func (d *DB) GetSetting(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM settings WHERE key = ?;`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// ThresholdStore keeps alert configuration in sqlite
type ThresholdStore struct {
	DB              *DB
	DefaultCooldown time.Duration
}

// Load returns the stored thresholds and cooldown
func (s *ThresholdStore) Load() (types.AlertConfig, error) {
	thresholds, err := s.DB.GetAllThresholds()
	if err != nil {
		return types.AlertConfig{}, err
	}

	cooldown := s.DefaultCooldown
	value, found, err := s.DB.GetSetting(settingAlertCooldown)
	if err != nil {
		return types.AlertConfig{}, err
	}
	if found {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return types.AlertConfig{}, fmt.Errorf("invalid %s setting %q: %w", settingAlertCooldown, value, err)
		}
		cooldown = time.Duration(seconds) * time.Second
	}

	return types.AlertConfig{Thresholds: thresholds, Cooldown: cooldown}, nil
}

// Save replaces the stored thresholds
func (s *ThresholdStore) Save(thresholds map[string]types.AlertThreshold) error {
	return s.DB.ReplaceThresholds(thresholds)
}

// SaveCooldown stores the cooldown in whole seconds
func (s *ThresholdStore) SaveCooldown(d time.Duration) error {
	return s.DB.SetSetting(settingAlertCooldown, strconv.Itoa(int(d/time.Second)))
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
