package services

import (
	"context"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
)

// Actor is the signed-in user on whose behalf a service call runs. Role is
// empty when the principal has no teacher record.
type Actor struct {
	UID  string
	Role models.StaffRole
}

func (a Actor) CanManage() bool {
	return models.HasManagementRole(a.Role)
}

// requireManager fails with a PermissionError unless actor holds a
// management role.
func requireManager(ctx context.Context, logger *ServiceLogger, actor Actor, resource, resourceID, action string) error {
	if actor.CanManage() {
		return nil
	}
	permErr := NewPermissionError(actor.UID, resourceID, resource, action, "management role required")
	logger.LogPermissionDenied(ctx, action, permErr)
	return permErr
}

// requireSignedIn fails unless the actor carries a principal id.
func requireSignedIn(actor Actor) error {
	if actor.UID == "" {
		return ErrUnauthorized
	}
	return nil
}
