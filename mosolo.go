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
	"fmt"

	"github.com/mosolohq/mosolo/config"
	"github.com/mosolohq/mosolo/database"
	"github.com/mosolohq/mosolo/internal/exchange"
	redis_db "github.com/mosolohq/mosolo/internal/redis-db"
	"github.com/redis/go-redis/v9"
)

// Mosolo is the wallet transfer core. It owns the datasource, the redis
// client backing locks and queues, and the rate source used for currency
// conversion.
type Mosolo struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	rates      exchange.RateSource
}

// NewMosolo initializes the transfer core with the provided datasource.
// Redis, the task queue and the rate feed client come from configuration.
func NewMosolo(db database.IDataSource) (*Mosolo, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)
	rates := exchange.NewFeedClient(configuration)
	return &Mosolo{datasource: db, queue: newQueue, redis: redisClient.Client(), rates: rates}, nil
}
