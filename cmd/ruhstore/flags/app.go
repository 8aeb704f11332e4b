// Copyright 2025 Ruh App, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flags

import (
	"github.com/spf13/pflag"
)

// App holds the general flags shared by every subcommand.
type App struct {
	Version  bool
	Verbose  bool
	LogLevel string
	LogJSON  bool
	Config   string
	DataDir  string
}

func NewApp() *App {
	return &App{}
}

func (f *App) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.BoolVarP(&f.Version, "version", "V",
		false,
		"Display version information.")
	flagSet.BoolVarP(&f.Verbose, "verbose", "v",
		false,
		"Enable more detailed logging.")
	flagSet.StringVar(&f.LogLevel, "log-level",
		"debug",
		"Determine log level for --verbose output. Log levels are: debug, info, warn, error.")
	flagSet.BoolVar(&f.LogJSON, "log-json",
		false,
		"Set output in JSON format for parsing by external tools.")
	flagSet.StringVar(&f.Config, "config",
		"",
		"Path to YAML configuration file.")
	flagSet.StringVarP(&f.DataDir, "data-dir", "d",
		"",
		"Path to the offline store data directory. Overrides the configuration file.")

	return flagSet
}
