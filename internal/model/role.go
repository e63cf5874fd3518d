package model

import "time"

// Organization roles ordered from lowest to highest tier.
const (
	RoleAnggota  = "anggota"  // plain member
	RoleStaf     = "staf"     // staff, records daily movements
	RoleLogistik = "logistik" // warehouse/logistics duties
	RoleAdmin    = "admin"
	RolePemilik  = "pemilik" // organization owner
)

// DeleteWindow is how long a logistik member may still delete a
// transaction after it was recorded.
const DeleteWindow = 60 * time.Minute

var roleTiers = map[string]int{
	RoleAnggota:  1,
	RoleStaf:     2,
	RoleLogistik: 3,
	RoleAdmin:    4,
	RolePemilik:  5,
}

// RoleTier returns the numeric tier of a role. Unknown roles get tier 0
// and therefore fail every gate.
func RoleTier(role string) int {
	return roleTiers[role]
}

// ValidRole reports whether role is one of the defined organization roles.
func ValidRole(role string) bool {
	_, ok := roleTiers[role]
	return ok
}

// MeetsMinimum reports whether role is at least minRole in the hierarchy.
func MeetsMinimum(role, minRole string) bool {
	tier := RoleTier(role)
	return tier > 0 && tier >= RoleTier(minRole)
}

// CanDeleteTransaction decides whether role may delete a ledger entry
// created at createdAt. Admin and pemilik always may; logistik only while
// the entry is younger than DeleteWindow; lower tiers never.
func CanDeleteTransaction(role string, createdAt, now time.Time) bool {
	switch tier := RoleTier(role); {
	case tier >= roleTiers[RoleAdmin]:
		return true
	case tier == roleTiers[RoleLogistik]:
		return now.Sub(createdAt) < DeleteWindow
	default:
		return false
	}
}

// CanActOnOthersRequests reports whether role may fulfill stock requests,
// or cancel requests raised by other members.
func CanActOnOthersRequests(role string) bool {
	return RoleTier(role) >= roleTiers[RoleLogistik]
}
