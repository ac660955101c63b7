package usecases

import "project_canvass/internal/entities"

// TenantOf resolves the visited-state partition an identity writes into.
// Every read or write of canvassing status must go through this one helper;
// a second derivation elsewhere would silently break tenant isolation.
func TenantOf(id *entities.Identity) int {
	if id.MainAdminID != 0 {
		return id.MainAdminID
	}
	return id.UserID
}
