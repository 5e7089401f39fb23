// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the file probed in the working directory when no
// explicit config path is given.
const DefaultFile = "kwrules.yaml"

var (
	// Global is a singleton instance
	Global KwrulesConfig
	once   sync.Once
)

// Load ensures the config is loaded into the Global variable. The
// first call wins; later calls return its result path unchanged.
func Load(path string) error {
	var err error
	once.Do(func() {
		err = loadInternal(path)
	})
	return err
}

func loadInternal(path string) error {
	cfg, err := loadFrom(path)
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

// loadFrom reads a config file over the built-in defaults. An empty
// path probes DefaultFile in the working directory; that file being
// absent is not an error, while an explicitly named file must exist.
func loadFrom(path string) (KwrulesConfig, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read the config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
