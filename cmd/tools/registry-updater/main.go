// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"os"

	"room-redesign-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

var rootCmd = &cobra.Command{
	Use:   "registry-updater",
	Short: "Maintain the activity registry of the room design workers",
	Long: `registry-updater edits configs/activity-registry.json, the catalogue of job
types the worker manager serves, their schemas, error codes and timeouts.

Examples:
  registry-updater sync
  registry-updater add --id tag-room-style --displayName "Tag Room Style" --category generation --taskType tag-room-style
  registry-updater update --id refine-room-design --field status --value verified
  registry-updater validate --path configs/activity-registry.json`,
	SilenceUsage: true,
}

var (
	addID, addDisplayName, addDescription, addCategory, addTaskType, addVersion, addStatus, addTimeout string
	updateID, updateField, updateValue                                                                 string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new activity to the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadOrCreate(registryPath)
		if err != nil {
			return err
		}

		activity := registry.Activity{
			ID:                   addID,
			DisplayName:          addDisplayName,
			Description:          addDescription,
			Category:             addCategory,
			Version:              addVersion,
			TaskType:             addTaskType,
			ImplementationStatus: addStatus,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              addTimeout,
			Workflows:            []string{},
			Tags:                 []string{},
		}
		if err := reg.Add(activity); err != nil {
			return err
		}
		if err := registry.SaveRegistry(reg, registryPath); err != nil {
			return err
		}
		fmt.Printf("Added activity: %s\n", addID)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update one field of an existing activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.UpdateField(updateID, updateField, updateValue); err != nil {
			return err
		}
		if err := registry.SaveRegistry(reg, registryPath); err != nil {
			return err
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", updateID, updateField, updateValue)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the built-in activities from the worker packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadOrCreate(registryPath)
		if err != nil {
			return err
		}
		registry.Sync(reg)
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("synced registry is invalid: %w", err)
		}
		if err := registry.SaveRegistry(reg, registryPath); err != nil {
			return err
		}
		fmt.Printf("Synced %d activities into %s\n", len(reg.Activities), registryPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "Path to registry file")

	addCmd.Flags().StringVar(&addID, "id", "", "Activity ID (e.g., refine-room-design)")
	addCmd.Flags().StringVar(&addDisplayName, "displayName", "", "Display name")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Description")
	addCmd.Flags().StringVar(&addCategory, "category", registry.CategoryGeneration, "Category")
	addCmd.Flags().StringVar(&addTaskType, "taskType", "", "Zeebe job type")
	addCmd.Flags().StringVar(&addVersion, "version", "1.0.0", "Version")
	addCmd.Flags().StringVar(&addStatus, "status", registry.StatusPlanned, "Implementation status (planned, in-progress, completed, verified)")
	addCmd.Flags().StringVar(&addTimeout, "timeout", "10s", "Job timeout")
	for _, name := range []string{"id", "displayName", "taskType"} {
		_ = addCmd.MarkFlagRequired(name)
	}

	updateCmd.Flags().StringVar(&updateID, "id", "", "Activity ID to update")
	updateCmd.Flags().StringVar(&updateField, "field", "", "Field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	updateCmd.Flags().StringVar(&updateValue, "value", "", "New value for the field")
	for _, name := range []string{"id", "field", "value"} {
		_ = updateCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(addCmd, updateCmd, validateCmd, syncCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
