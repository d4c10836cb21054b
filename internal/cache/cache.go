package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/whatson-app/whatson-cli/internal/model"
)

// ZonesMeta describes the cached zone directory snapshot.
type ZonesMeta struct {
	LastFetched time.Time `json:"lastFetched"`
	Endpoint    string    `json:"endpoint"`
	TotalZones  int       `json:"totalZones"`
}

// ZonesTTL is how long a cached directory is served without a warning.
// The directory changes rarely; a day-old copy is fine for town resolution.
const ZonesTTL = 24 * time.Hour

// GetCacheDir returns the cache directory path, creating it if needed.
func GetCacheDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	cacheDir := filepath.Join(homeDir, ".cache", "whatson")
	if err = os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return cacheDir, nil
}

// APILogPath returns the path of the structured API request log.
func APILogPath() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "api.log"), nil
}

// ReadZonesMeta reads the zone cache metadata. Returns (nil, nil) when no
// cache exists yet.
func ReadZonesMeta() (*ZonesMeta, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(cacheDir, "zones_meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read zone cache metadata: %w", err)
	}
	var meta ZonesMeta
	if err = json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse zone cache metadata: %w", err)
	}
	return &meta, nil
}

// ReadZones reads the cached zone directory. Returns (nil, nil) when no
// cache exists yet.
func ReadZones() ([]model.Zone, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(cacheDir, "zones.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read zone cache: %w", err)
	}
	var zones []model.Zone
	if err = json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("failed to parse zone cache: %w", err)
	}
	return zones, nil
}

// WriteZones writes the zone directory and its metadata atomically
// (temp file + rename), so a crash mid-write never leaves a torn cache.
func WriteZones(zones []model.Zone, endpoint string) error {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return err
	}

	zonesPath := filepath.Join(cacheDir, "zones.json")
	data, err := json.Marshal(zones)
	if err != nil {
		return fmt.Errorf("failed to marshal zones: %w", err)
	}
	if err = writeAtomic(zonesPath, data, 0644); err != nil {
		return err
	}

	meta := ZonesMeta{
		LastFetched: time.Now(),
		Endpoint:    endpoint,
		TotalZones:  len(zones),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal zone metadata: %w", err)
	}
	return writeAtomic(filepath.Join(cacheDir, "zones_meta.json"), metaData, 0644)
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}
