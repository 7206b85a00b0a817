package config

import (
	"os"
	"strings"
)

const envFileName = ".env"

func initEnvFile() {
	if err := ensureEnvFile(); err != nil {
		return
	}
	_ = loadEnvFile()
}

func ensureEnvFile() error {
	if _, err := os.Stat(envFileName); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	content := []string{
		"KNOTES_DB_PATH=knotes.db",
		"KNOTES_LISTEN_ADDR=127.0.0.1:8080",
		"",
	}
	return os.WriteFile(envFileName, []byte(strings.Join(content, "\n")), 0o600)
}

func loadEnvFile() error {
	data, err := os.ReadFile(envFileName)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		val = strings.Trim(val, "\"")
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
	return nil
}
