package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"

	"dio.wtf/joypair/joycontrol/cmd"
	"dio.wtf/joypair/joycontrol/log"
)

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configCandidatePaths(userCfg)

	var cli cmd.CLI
	ctx := kong.Parse(&cli,
		kong.Name("joypair"),
		kong.Description("Pairs a Linux Bluetooth adapter with a Nintendo Switch as a Pro Controller."),
		kong.UsageOnError(),
		// Flags and env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closer, err := log.New(cli.Log.Level, cli.Log.File)
	if nil != err {
		fmt.Fprintln(os.Stderr, "failed to setup logger:", err)
		os.Exit(2)
	}
	defer closer.Close()

	ctx.BindTo(logger, (*log.Logger)(nil))
	ctx.FatalIfErrorf(ctx.Run())
}

func findUserConfig(args []string) string {
	for i, a := range args {
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("JOYPAIR_CONFIG")
}

// configCandidatePaths sorts the config files to try by format. A file given
// on the command line is the only candidate; otherwise the system wide and
// per user locations are tried, later ones winning.
func configCandidatePaths(userCfg string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(path string) {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			jsonPaths = append(jsonPaths, path)
		case ".toml":
			tomlPaths = append(tomlPaths, path)
		default:
			yamlPaths = append(yamlPaths, path)
		}
	}

	if userCfg != "" {
		add(userCfg)
		return
	}

	dirs := []string{filepath.Join(string(os.PathSeparator), "etc", "joypair")}
	if dir, err := os.UserConfigDir(); nil == err {
		dirs = append(dirs, filepath.Join(dir, "joypair"))
	}
	for _, dir := range dirs {
		for _, name := range []string{"config.json", "config.yaml", "config.yml", "config.toml"} {
			add(filepath.Join(dir, name))
		}
	}
	return
}
