// Package flagx helps several configuration layers share os.Args without
// tripping over each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns only the allowed flags (and their values) from args.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// The result is never nil. A flag whose next argument starts with "-" is kept
// without a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFiles extracts the config file locations from args:
// -c/-config for the JSON file and -env for the dotenv file.
// Missing flags yield empty strings; every other argument is ignored.
func ConfigFiles(args []string) (jsonPath, envPath string) {
	filtered := FilterArgs(args, []string{"-c", "-config", "-env"})

	fs := flag.NewFlagSet("config-files", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&jsonPath, "config", "", "path to JSON config file")
	fs.StringVar(&jsonPath, "c", "", "path to JSON config file (short)")
	fs.StringVar(&envPath, "env", "", "path to .env file")
	_ = fs.Parse(filtered)

	return jsonPath, envPath
}
