package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/dyluth/ember/internal/config"
	"github.com/dyluth/ember/internal/printer"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// DefaultDevice is used when no device name is given.
const DefaultDevice = "spark-01"

var deviceNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes spark.yml into the current directory.
// If force is true, an existing spark.yml is replaced.
func Initialize(device string, force bool) error {
	return InitializeIn(".", device, force)
}

// InitializeIn writes spark.yml into dir.
func InitializeIn(dir, device string, force bool) error {
	if device == "" {
		device = DefaultDevice
	}
	if !deviceNameRe.MatchString(device) {
		return fmt.Errorf("invalid device name %q: use letters, digits, '.', '_' or '-'", device)
	}

	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	} else if err := CheckExisting(dir); err != nil {
		return err
	}

	files, err := getTemplateFiles(device)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := writeFiles(dir, files); err != nil {
		return err
	}

	return validateCreatedFiles(dir)
}

// handleForce removes an existing spark.yml if --force was specified
func handleForce(dir string) error {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		printer.Warning("Removing existing %s...\n", config.FileName)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.FileName, err)
		}
	}
	return nil
}

// getTemplateFiles reads and renders all template files
func getTemplateFiles(device string) ([]FileInfo, error) {
	tmpl, err := templatesFS.ReadFile("templates/spark.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read spark.yml template: %w", err)
	}

	return []FileInfo{{
		Path:        config.FileName,
		Content:     bytes.ReplaceAll(tmpl, []byte("{{DEVICE}}"), []byte(device)),
		Permissions: 0644,
	}}, nil
}

// writeFiles writes all rendered files to disk
func writeFiles(dir string, files []FileInfo) error {
	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles checks spark.yml is valid YAML and loads as a config
func validateCreatedFiles(dir string) error {
	path := filepath.Join(dir, config.FileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read created %s: %w", config.FileName, err)
	}

	var yamlData interface{}
	if err := yaml.Unmarshal(content, &yamlData); err != nil {
		return fmt.Errorf("created %s is not valid YAML: %w", config.FileName, err)
	}

	if _, err := config.LoadWithEnv(path, map[string]string{}); err != nil {
		return fmt.Errorf("created %s does not validate: %w", config.FileName, err)
	}

	return nil
}

// PrintSuccess prints the success message
func PrintSuccess(device string) {
	if device == "" {
		device = DefaultDevice
	}
	printer.Success("\nInitialized spark device %q\n", device)
	printer.Println("\nCreated:")
	printer.Println("  ✓ " + config.FileName)
	printer.Println("\nNext steps:")
	printer.Println("  1. Run 'ember serve' to start the console")
	printer.Println("  2. Run 'spark --config spark.yml' to connect the device")
	printer.Println("  3. Uncomment blackboard.redis_url to record events for 'ember events'")
}
