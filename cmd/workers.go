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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/mosolohq/mosolo"
	"github.com/mosolohq/mosolo/config"
	redis_db "github.com/mosolohq/mosolo/internal/redis-db"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"
)

// processNotification consumes a queued notification task and persists it
// for the owning account.
func processNotification(b *coreInstance) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload mosolo.NotificationPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logrus.Error("unmarshalling notification payload: ", err)
			return err
		}
		if err := b.core.RecordQueuedNotification(ctx, &payload.Data); err != nil {
			logrus.WithFields(logrus.Fields{
				"notification": payload.Data.NotificationID,
				"account":      payload.Data.AccountID,
			}).Error("recording notification: ", err)
			return err
		}
		return nil
	}
}

// sweepCommands returns the one-shot command that flips money requests past
// their expiry window to EXPIRED. Scheduling it belongs to the operator.
func sweepCommands(b *coreInstance) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "expire stale money requests",
		Run: func(cmd *cobra.Command, args []string) {
			expired, err := b.core.SweepExpiredRequests(context.Background())
			if err != nil {
				log.Fatalf("Error expiring money requests: %v", err)
			}
			log.Printf("expired %d money requests", expired)
		},
	}
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(fmt.Sprintf("redis://%s", conf.Redis.Dns), conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, asynq.RedisClientOpt{}, fmt.Errorf("error parsing Redis URL: %w", err)
	}

	redisClientOpt := asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}

	srv := asynq.NewServer(redisClientOpt, asynq.Config{
		Concurrency: 1,
		Queues:      queues,
	})
	return srv, redisClientOpt, nil
}

// serveMonitoring exposes the asynqmon dashboard for queue inspection.
func serveMonitoring(redisClientOpt asynq.RedisClientOpt) {
	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/monitoring",
		RedisConnOpt: redisClientOpt,
	})
	mux := http.NewServeMux()
	mux.Handle(h.RootPath()+"/", h)

	go func() {
		if err := http.ListenAndServe(":5003", mux); err != nil && err != http.ErrServerClosed {
			log.Printf("monitoring server stopped: %v", err)
		}
	}()
}

// workerCommands returns the command that runs the notification consumers.
func workerCommands(b *coreInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start mosolo workers",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			logrus.AddHook(&apmlogrus.Hook{})

			queues := mosolo.NotificationQueueNames(conf)
			srv, redisClientOpt, err := initializeWorkerServer(conf, queues)
			if err != nil {
				log.Fatal(err)
			}

			serveMonitoring(redisClientOpt)

			mux := asynq.NewServeMux()
			handler := processNotification(b)
			for queueName := range queues {
				mux.HandleFunc(queueName, handler)
			}

			log.Println("starting worker server")
			if err := srv.Run(mux); err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}
