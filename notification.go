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
	"fmt"
	"time"

	"github.com/mosolohq/mosolo/internal/alert"
	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
	"github.com/sirupsen/logrus"
)

// notify enqueues one notification, best-effort. Failures are logged and
// alerted, never returned: a dropped notification must not fail the
// operation that produced it.
func (m *Mosolo) notify(ctx context.Context, notification *model.Notification) {
	notification.NotificationID = model.GenerateUUIDWithSuffix("not")
	notification.CreatedAt = time.Now()
	if err := m.queue.Enqueue(ctx, notification); err != nil {
		logrus.WithFields(logrus.Fields{
			"account": notification.AccountID,
			"type":    notification.Type,
		}).Error("failed to enqueue notification: ", err)
		alert.NotifyError(err)
	}
}

// fanOutTransferNotifications tells both parties about a completed transfer.
func (m *Mosolo) fanOutTransferNotifications(ctx context.Context, receipt *model.TransferReceipt, input *model.NewTransfer) {
	m.notify(ctx, &model.Notification{
		AccountID:   input.SenderID,
		Type:        model.NotificationTransferSent,
		Title:       "Transfer sent",
		Message:     fmt.Sprintf("You sent %s", model.FormatMinor(receipt.AmountSent, receipt.SenderCurrency)),
		Amount:      receipt.AmountSent,
		Currency:    receipt.SenderCurrency,
		ReferenceID: receipt.TransferID,
	})
	m.notify(ctx, &model.Notification{
		AccountID:   input.RecipientID,
		Type:        model.NotificationTransferReceived,
		Title:       "Money received",
		Message:     fmt.Sprintf("You received %s", model.FormatMinor(receipt.AmountReceived, receipt.RecipientCurrency)),
		Amount:      receipt.AmountReceived,
		Currency:    receipt.RecipientCurrency,
		ReferenceID: receipt.TransferID,
	})
}

// RecordQueuedNotification persists a notification consumed from the queue.
// Called by the worker process once a notification task is dequeued.
func (m *Mosolo) RecordQueuedNotification(ctx context.Context, notification *model.Notification) error {
	_, err := m.datasource.RecordNotification(ctx, notification)
	return err
}

// ListNotifications pages the caller's own notifications, newest first.
func (m *Mosolo) ListNotifications(ctx context.Context, callerID, accountID string, limit, offset int) ([]model.Notification, error) {
	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	if callerID != accountID {
		return nil, apierror.NewAPIError(apierror.ErrPermissionDenied, "Notifications are only visible to their owner", nil)
	}
	limit = boundPageSize(limit)
	return m.datasource.ListNotifications(ctx, accountID, limit, offset)
}

// MarkNotificationRead flips the caller's own notification to read.
func (m *Mosolo) MarkNotificationRead(ctx context.Context, callerID, notificationID string) error {
	if callerID == "" {
		return apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	return m.datasource.MarkNotificationRead(ctx, notificationID, callerID)
}
