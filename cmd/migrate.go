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
	"log"

	"github.com/mosolohq/mosolo/database"
	"github.com/spf13/cobra"
)

func migrateCommands(b *coreInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "apply migrations",
		Run: func(cmd *cobra.Command, args []string) {
			_, err := database.ConnectDB(b.cnf.DataSource.Dns)
			if err != nil {
				log.Fatalf("Error running migrations: %v", err)
			}
			log.Println("migrations applied ✅")
		},
	})

	return cmd
}
