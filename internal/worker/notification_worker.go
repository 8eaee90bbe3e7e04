package worker

import (
	"github.com/claimdesk/claim-service/internal/service"
)

// StartNotificationWorker registers claim notification handlers on the dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
