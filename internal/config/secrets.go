package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir is where Docker mounts secrets.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла в стандартном пути Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// readSecretOrEnv falls back to envName for local runs without Docker secrets.
func readSecretOrEnv(secretName, envName string) (string, bool) {
	if v, err := ReadSecret(secretName); err == nil {
		return v, true
	}
	if v, ok := os.LookupEnv(envName); ok && v != "" {
		return v, true
	}
	return "", false
}
