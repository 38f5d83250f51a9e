package entity

// Roles conocidos por el motor. El rol y el alcance llegan ya autenticados en el token.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleStateAdmin = "STATE_ADMIN"
	RoleOEMAdmin   = "OEM_ADMIN"
	RoleDealer     = "DEALER"
)

// Actor usuario autenticado con su rol y, según el rol, un estado, OEM o dealer asociado.
type Actor struct {
	UserID    string
	Role      string
	StateCode string
	OEMCode   string
	DealerID  string
}

// IsAdmin indica si el actor tiene alcance global.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleSuperAdmin || a.Role == RoleAdmin
}

// CanManage indica si el actor puede emitir lotes o registrar movimientos en el alcance.
func (a Actor) CanManage(s Scope) bool {
	switch a.Role {
	case RoleSuperAdmin, RoleAdmin:
		return true
	case RoleStateAdmin:
		return a.StateCode != "" && a.StateCode == s.StateCode
	case RoleOEMAdmin:
		return a.OEMCode != "" && a.OEMCode == s.OEMCode
	}
	return false
}

// CanView indica si el actor puede consultar datos del alcance.
func (a Actor) CanView(s Scope) bool {
	if a.CanManage(s) {
		return true
	}
	if a.Role == RoleDealer {
		return (a.StateCode == "" || a.StateCode == s.StateCode) &&
			(a.OEMCode == "" || a.OEMCode == s.OEMCode)
	}
	return false
}

// BindState devuelve el estado forzado por el rol, o el pedido si el rol no lo restringe.
func (a Actor) BindState(requested string) string {
	if (a.Role == RoleStateAdmin || a.Role == RoleDealer) && a.StateCode != "" {
		return a.StateCode
	}
	return requested
}

// BindOEM devuelve el OEM forzado por el rol, o el pedido si el rol no lo restringe.
func (a Actor) BindOEM(requested string) string {
	if (a.Role == RoleOEMAdmin || a.Role == RoleDealer) && a.OEMCode != "" {
		return a.OEMCode
	}
	return requested
}
