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

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ruh-app/offline-go/cmd/ruhstore/app"
	"github.com/ruh-app/offline-go/cmd/ruhstore/flags"
	"github.com/spf13/cobra"
)

const (
	VersionDev     = "dev"
	welcomeMessage = "Welcome to the Ruh offline store CLI tool!"
)

// Cmd represents the base command when called without any subcommands
type Cmd struct {
	// Version params.
	appVersion string
	commitHash string

	// Root flags
	flagsApp *flags.App

	// Subcommand flags.
	flagUnsynced bool

	Logger *slog.Logger
}

func NewCmd(appVersion, commitHash string) (*cobra.Command, *Cmd) {
	c := &Cmd{
		appVersion: appVersion,
		commitHash: commitHash,

		flagsApp: flags.NewApp(),
	}

	rootCmd := &cobra.Command{
		Use:   "ruhstore",
		Short: "Ruh offline store CLI tool",
		Long:  welcomeMessage,
		RunE:  c.run,
	}

	// Disable sorting
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().AddFlagSet(c.flagsApp.NewFlagSet())

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-collection record counts",
		RunE:  c.runStatus,
	}

	listCmd := &cobra.Command{
		Use:   "list <chat|wellness|favorites>",
		Short: "Print the records of one collection",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runList,
	}
	listCmd.Flags().BoolVar(&c.flagUnsynced, "unsynced",
		false,
		"Print only records that have not synced yet.")

	pruneCmd := &cobra.Command{
		Use:   "prune [chat|wellness|favorites|all]",
		Short: "Remove synced records, keeping the unsynced ones",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.runPrune,
	}

	clearCmd := &cobra.Command{
		Use:   "clear <chat|wellness|favorites|all>",
		Short: "Drop a whole collection, unsynced records included",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runClear,
	}

	rootCmd.AddCommand(statusCmd, listCmd, pruneCmd, clearCmd)

	return rootCmd, c
}

func (c *Cmd) run(cmd *cobra.Command, _ []string) error {
	// Show version.
	if c.flagsApp.Version {
		c.printVersion()

		return nil
	}

	return cmd.Help()
}

func (c *Cmd) runStatus(cmd *cobra.Command, _ []string) error {
	rs, err := c.newApp()
	if err != nil {
		return err
	}

	return rs.Status(cmd.Context(), c.flagsApp.LogJSON)
}

func (c *Cmd) runList(cmd *cobra.Command, args []string) error {
	rs, err := c.newApp()
	if err != nil {
		return err
	}

	return rs.List(cmd.Context(), args[0], c.flagUnsynced, c.flagsApp.LogJSON)
}

func (c *Cmd) runPrune(cmd *cobra.Command, args []string) error {
	collection := app.CollectionAll
	if len(args) > 0 {
		collection = args[0]
	}

	rs, err := c.newApp()
	if err != nil {
		return err
	}

	return rs.Prune(cmd.Context(), collection, c.flagsApp.LogJSON)
}

func (c *Cmd) runClear(cmd *cobra.Command, args []string) error {
	rs, err := c.newApp()
	if err != nil {
		return err
	}

	return rs.Clear(cmd.Context(), args[0])
}

func (c *Cmd) newApp() (*app.RuhStore, error) {
	logger, err := app.NewLogger(c.flagsApp.LogLevel, c.flagsApp.Verbose, c.flagsApp.LogJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	// After initialization replace logger.
	c.Logger = logger

	cfg, err := app.LoadConfig(c.flagsApp)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	rs, err := app.NewRuhStore(cfg, c.appVersion, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	return rs, nil
}

func (c *Cmd) printVersion() {
	version := c.appVersion
	if c.appVersion == VersionDev {
		version += " (" + c.commitHash + ")"
	}

	fmt.Printf("version: %s\n", version)
}
