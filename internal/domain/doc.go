// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (key agreement values, key matrices, profiles) and
// contracts (interfaces) only.
package domain
