package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/hindsight-lab/hindsight/internal/config"
)

const (
	schemaName       = "hindsight-config.json"
	sampleConfigName = "hindsight-config.yaml"
)

func main() {
	cfg := config.Default()

	schemaPath := filepath.Join("./config", schemaName)
	sampleConfigPath := filepath.Join("./config", sampleConfigName)

	if err := generateSchemaFile(cfg, schemaPath); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	// Write a sample config next to the schema, but never clobber one
	// the user already edited.
	if _, err := os.Stat(sampleConfigPath); os.IsNotExist(err) {
		if err := generateSampleConfig(cfg, sampleConfigPath); err != nil {
			log.Fatalf("Failed to generate sample config: %v", err)
		}

		log.Printf("Sample config successfully generated at %s", sampleConfigPath)
	}
}

// generateSchemaFile writes the JSON schema of cfg to path, creating the
// parent directory when needed.
func generateSchemaFile(cfg config.Config, path string) error {
	schemaJSON, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes cfg as YAML prefixed with a
// yaml-language-server directive pointing at the schema.
func generateSampleConfig(cfg config.Config, path string) error {
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	return nil
}
