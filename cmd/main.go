/*
Copyright 2025 Mosolo Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mosolohq/mosolo"
	"github.com/mosolohq/mosolo/config"
	"github.com/mosolohq/mosolo/database"
	"github.com/mosolohq/mosolo/internal/alert"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type CLI struct {
	cmd *cobra.Command
}

// coreInstance holds the wallet core and its configuration for command
// handlers.
type coreInstance struct {
	core *mosolo.Mosolo
	cnf  *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and wires up the core before any command runs.
func preRun(app *coreInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("mosolo.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newCore, err := setupCore(cnf)
		if err != nil {
			alert.NotifyError(err)
			log.Fatal(err)
		}

		app.core = newCore
		app.cnf = cnf

		return nil
	}
}

func setupCore(cfg *config.Configuration) (*mosolo.Mosolo, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newCore, err := mosolo.NewMosolo(db)
	if err != nil {
		return nil, fmt.Errorf("error creating wallet core: %v", err)
	}
	return newCore, nil
}

func NewCLI() *CLI {
	var configFile string
	b := &coreInstance{}

	var rootCmd = &cobra.Command{
		Use:   "mosolo",
		Short: "P2P wallet transfer core",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./mosolo.json", "Configuration file for the wallet core")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))
	rootCmd.AddCommand(sweepCommands(b))

	return &CLI{cmd: rootCmd}
}

func (w CLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
