package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/verdantpeak/cultivation-engine/pkg/combat"
)

// Enemy template operations (filesystem-backed)

func (r *RedisStorage) GetEnemyTemplate(ctx context.Context, templateID string) (*combat.Enemy, error) {
	path := filepath.Join(r.dataDir, "enemies", templateID+".json")
	r.logger.Debug("Loading enemy template", "templateID", templateID, "full_path", path)

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Error("Enemy template file not found", "path", path, "error", err)
			return nil, fmt.Errorf("enemy template not found: %s", templateID)
		}
		return nil, fmt.Errorf("failed to read enemy template file: %w", err)
	}

	var e combat.Enemy
	if err := json.Unmarshal(file, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enemy template: %w", err)
	}

	return &e, nil
}

func (r *RedisStorage) ListEnemyTemplates(ctx context.Context) (map[string]string, error) {
	enemiesDir := filepath.Join(r.dataDir, "enemies")
	enemies := make(map[string]string)

	if _, err := os.Stat(enemiesDir); os.IsNotExist(err) {
		r.logger.Debug("Enemies directory does not exist", "path", enemiesDir)
		return enemies, nil // Return empty map if directory doesn't exist
	}

	err := filepath.WalkDir(enemiesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read enemy template file", "path", path, "error", err)
			return nil
		}

		var e combat.Enemy
		if err := json.Unmarshal(file, &e); err != nil {
			r.logger.Warn("Failed to unmarshal enemy template file", "path", path, "error", err)
			return nil
		}

		templateID := strings.TrimSuffix(filepath.Base(path), ".json")
		enemies[e.Name] = templateID
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk enemies directory", "error", err)
		return nil, fmt.Errorf("failed to list enemy templates: %w", err)
	}

	return enemies, nil
}
