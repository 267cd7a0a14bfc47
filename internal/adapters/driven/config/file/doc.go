// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - SettingsStore: TOML-based application settings (~/.responsa/config.toml)
//   - PromptStore: user-editable prompt templates with embedded defaults
//     and optional fsnotify-based hot reload
package file
