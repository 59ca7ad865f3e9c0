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

package mosolo

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"

	"github.com/hibiken/asynq"
	"github.com/mosolohq/mosolo/config"
	redis_db "github.com/mosolohq/mosolo/internal/redis-db"
	"github.com/mosolohq/mosolo/model"
)

// Queue carries notification fan-out tasks over redis.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// NotificationPayload is the task body for a notification write.
type NotificationPayload struct {
	Data model.Notification
}

// NewQueue initializes a new Queue instance from the redis configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(fmt.Sprintf("redis://%s", conf.Redis.Dns), conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// Enqueue pushes a notification onto the queue partition owned by its
// recipient account. All of one account's notifications land in the same
// partition, so workers deliver them in order.
func (q *Queue) Enqueue(ctx context.Context, notification *model.Notification) error {
	payload, err := json.Marshal(NotificationPayload{Data: *notification})
	if err != nil {
		return err
	}
	info, err := q.Client.EnqueueContext(ctx, q.getTask(notification, payload), asynq.MaxRetry(5))
	if err != nil {
		log.Println(err, info)
		return err
	}
	return nil
}

// getTask assigns a notification task to a queue partition by hashing the
// owning account id, keeping per-account delivery serial while spreading
// load across partitions.
func (q *Queue) getTask(notification *model.Notification, payload []byte) *asynq.Task {
	cnf, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config: %v", err)
		queueName := "new:notification_1"
		return asynq.NewTask(queueName, payload, asynq.TaskID(notification.NotificationID), asynq.Queue(queueName))
	}
	queueIndex := hashAccountID(notification.AccountID) % cnf.Queue.NumberOfQueues
	queueName := fmt.Sprintf("%s_%d", cnf.Queue.NotificationQueue, queueIndex+1)

	taskOptions := []asynq.Option{asynq.TaskID(notification.NotificationID), asynq.Queue(queueName)}
	return asynq.NewTask(queueName, payload, taskOptions...)
}

// hashAccountID returns a consistent hash value for a string account ID.
func hashAccountID(accountID string) int {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(accountID))
	return int(hasher.Sum32())
}

// NotificationQueueNames returns every partition name mapped to equal
// priority, in the shape asynq's server config expects.
func NotificationQueueNames(conf *config.Configuration) map[string]int {
	queues := make(map[string]int, conf.Queue.NumberOfQueues)
	for i := 1; i <= conf.Queue.NumberOfQueues; i++ {
		queues[fmt.Sprintf("%s_%d", conf.Queue.NotificationQueue, i)] = 1
	}
	return queues
}
