package database

import (
	"context"
	"fmt"

	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
)

const notificationColumns = `notification_id, account_id, type, COALESCE(title, ''), COALESCE(message, ''), COALESCE(amount, 0), COALESCE(currency, ''), COALESCE(reference_id, ''), is_read, created_at`

func (d Datasource) RecordNotification(ctx context.Context, notification *model.Notification) (*model.Notification, error) {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO notifications(notification_id, account_id, type, title, message, amount, currency, reference_id, is_read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		notification.NotificationID, notification.AccountID, notification.Type, notification.Title,
		notification.Message, notification.Amount, notification.Currency, notification.ReferenceID,
		notification.Read, notification.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record notification", err)
	}
	return notification, nil
}

func (d Datasource) ListNotifications(ctx context.Context, accountID string, limit, offset int) ([]model.Notification, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, notificationColumns), accountID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve notifications", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		notification := model.Notification{}
		err := rows.Scan(
			&notification.NotificationID,
			&notification.AccountID,
			&notification.Type,
			&notification.Title,
			&notification.Message,
			&notification.Amount,
			&notification.Currency,
			&notification.ReferenceID,
			&notification.Read,
			&notification.CreatedAt,
		)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan notification", err)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over notifications", err)
	}
	return notifications, nil
}

// MarkNotificationRead flips the read flag for the owner only. A stranger's
// notification id matches zero rows and surfaces as not found.
func (d Datasource) MarkNotificationRead(ctx context.Context, notificationID, accountID string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE notification_id = $1 AND account_id = $2
	`, notificationID, accountID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update notification", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Notification with ID '%s' not found", notificationID), nil)
	}
	return nil
}
