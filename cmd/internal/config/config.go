// Package config centralizes the viper/godotenv wiring shared by every
// gridlock subcommand, following the pattern in the teacher's
// cmd/util/util.go: .env files are loaded before flags are parsed, and
// environment variables use a GRIDLOCK_ prefix with "-" replaced by "_".
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/gridlock/internal/gridlog"
)

const wrapWidth = 60

// Init loads local .env files and wires viper's environment variable
// handling. Safe to call multiple times; missing .env files are not an
// error.
func Init() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("gridlock")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindFlags binds a command's flags into viper so GetString/GetInt/...
// see flag values with environment variables as fallback.
func BindFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// Logger builds a gridlog.Logger for name at the level configured via
// the shared "log-level" persistent flag (GRIDLOCK_LOG_LEVEL).
func Logger(name string) (*gridlog.Logger, error) {
	level, err := gridlog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	return gridlog.New(name, level), nil
}

// Wrap wraps help text at wrapWidth characters, the way
// cmd/util.WrapString wraps flag descriptions in the teacher repo.
func Wrap(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	var lines []string
	start, lineLen := 0, 0

	for i, word := range fields {
		grow := len(word)
		if lineLen > 0 {
			grow++ // separating space
		}
		if lineLen > 0 && lineLen+grow > wrapWidth {
			lines = append(lines, strings.Join(fields[start:i], " "))
			start, lineLen = i, len(word)
			continue
		}
		lineLen += grow
	}
	lines = append(lines, strings.Join(fields[start:], " "))

	return strings.Join(lines, "\n")
}
