// Package flagx lets several components parse their own subset of the
// command line without tripping over each other's flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the arguments that belong to allowedFlags, each
// optionally followed by its value. See Filter for the accepted forms.
func FilterArgs(args []string, allowedFlags []string) []string {
	return Filter(args, allowedFlags, nil)
}

// Filter keeps only the known flags from args.
//
// valued flags take a value, either as the next argument ("-d cinema.db")
// or joined with '=' ("-d=cinema.db"). switches are boolean flags: they never
// consume the next argument, so only "-m" and "-m=false" forms are kept.
//
// The result is never nil.
func Filter(args []string, valued []string, switches []string) []string {
	withValue := make(map[string]struct{}, len(valued))
	for _, f := range valued {
		withValue[f] = struct{}{}
	}
	isSwitch := make(map[string]struct{}, len(switches))
	for _, f := range switches {
		isSwitch[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			_, v := withValue[name]
			_, s := isSwitch[name]
			if v || s {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := isSwitch[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := withValue[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFile extracts the JSON config path given with -c, -config or
// --config. The last occurrence wins; an empty string means none was given.
func ConfigFile(args []string) string {
	var path string

	filtered := FilterArgs(args, []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(filtered)

	return path
}
