package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type thresholdEntry struct {
	High *float64 `mapstructure:"high"`
	Low  *float64 `mapstructure:"low"`
}

// FileStore keeps alert thresholds in the JSON config file.
// Save and SaveCooldown only touch their own key; everything else in the file is kept as is.
type FileStore struct {
	Path            string
	DefaultCooldown time.Duration
}

// Load reads alert_thresholds and alert_cooldown from the file
func (s *FileStore) Load() (types.AlertConfig, error) {
	cfg := types.AlertConfig{
		Thresholds: make(map[string]types.AlertThreshold),
		Cooldown:   s.DefaultCooldown,
	}

	v := viper.New()
	v.SetConfigFile(s.Path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return cfg, errors.Wrapf(err, "could not read %s", s.Path)
	}

	var entries map[string]thresholdEntry
	if err := v.UnmarshalKey("alert_thresholds", &entries); err != nil {
		return cfg, errors.Wrap(err, "invalid alert_thresholds")
	}
	for symbol, e := range entries {
		// viper lower-cases map keys
		symbol = strings.ToUpper(symbol)
		t := types.AlertThreshold{Symbol: symbol}
		if e.High != nil {
			d := decimal.NewFromFloat(*e.High)
			t.High = &d
		}
		if e.Low != nil {
			d := decimal.NewFromFloat(*e.Low)
			t.Low = &d
		}
		if t.Empty() {
			continue
		}
		cfg.Thresholds[symbol] = t
	}

	if v.IsSet("alert_cooldown") {
		cfg.Cooldown = time.Duration(v.GetInt("alert_cooldown")) * time.Second
	}
	return cfg, nil
}

// Save writes thresholds back into the file
func (s *FileStore) Save(thresholds map[string]types.AlertThreshold) error {
	entries := make(map[string]map[string]json.RawMessage, len(thresholds))
	for symbol, t := range thresholds {
		if t.Empty() {
			continue
		}
		entry := make(map[string]json.RawMessage)
		if t.High != nil {
			entry["high"] = json.RawMessage(t.High.String())
		}
		if t.Low != nil {
			entry["low"] = json.RawMessage(t.Low.String())
		}
		entries[symbol] = entry
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "could not encode alert_thresholds")
	}
	if err := s.update("alert_thresholds", encoded); err != nil {
		return err
	}

	log.Infof("📄 Alert thresholds saved to %s", s.Path)
	return nil
}

// SaveCooldown writes alert_cooldown in whole seconds
func (s *FileStore) SaveCooldown(d time.Duration) error {
	seconds := strconv.FormatInt(int64(d/time.Second), 10)
	if err := s.update("alert_cooldown", json.RawMessage(seconds)); err != nil {
		return err
	}

	log.Infof("📄 Alert cooldown %s saved to %s", d, s.Path)
	return nil
}

// update replaces one top-level key and atomically rewrites the file with its original mode
func (s *FileStore) update(key string, value json.RawMessage) error {
	doc := make(map[string]json.RawMessage)
	mode := os.FileMode(0o644)
	raw, err := os.ReadFile(s.Path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return errors.Wrapf(err, "could not parse %s", s.Path)
		}
		info, err := os.Stat(s.Path)
		if err != nil {
			return errors.Wrapf(err, "could not stat %s", s.Path)
		}
		mode = info.Mode().Perm()
	case os.IsNotExist(err):
	default:
		return errors.Wrapf(err, "could not read %s", s.Path)
	}
	doc[key] = value

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "could not encode config")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".config-*.json")
	if err != nil {
		return errors.Wrap(err, "could not create temp config")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not write temp config")
	}
	// CreateTemp always uses 0600
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not set temp config mode")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "could not write temp config")
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return errors.Wrapf(err, "could not replace %s", s.Path)
	}
	return nil
}
