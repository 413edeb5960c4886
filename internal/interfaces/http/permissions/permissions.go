package permissions

import "fmt"

const (
	// RoleParticipant is granted to any address taking part in markets or
	// oracle conditions. The address in the token is the caller identity.
	RoleParticipant = "participant"
	// RoleOperator is granted to the operator of the daemon. An operator
	// can do everything a participant can.
	RoleOperator = "operator"
)

var roles = map[string]int{
	RoleParticipant: 1,
	RoleOperator:    2,
}

// IsValidRole returns whether the given role is known.
func IsValidRole(role string) bool {
	_, ok := roles[role]
	return ok
}

// IsAllowed returns whether the given role satisfies the required one.
func IsAllowed(role, required string) bool {
	have, ok := roles[role]
	if !ok {
		return false
	}
	return have >= roles[required]
}

// Route returns the key identifying a route in the permission maps.
func Route(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}

// Whitelist returns the routes that anyone can call without a token. These
// are the read-only routes plus the permissionless transitions that only
// depend on time or on oracle state.
func Whitelist() map[string]struct{} {
	return map[string]struct{}{
		Route("GET", "/health"):                                                 {},
		Route("GET", "/metrics"):                                                {},
		Route("GET", "/v1/markets"):                                             {},
		Route("GET", "/v1/markets/:id"):                                         {},
		Route("POST", "/v1/markets/:id/cancel"):                                 {},
		Route("POST", "/v1/markets/:id/finalize"):                               {},
		Route("POST", "/v1/markets/:id/oracle-settle"):                          {},
		Route("GET", "/v1/oracles"):                                             {},
		Route("GET", "/v1/oracles/:oracle_id/conditions/:condition_id"):         {},
		Route("POST", "/v1/oracles/price/conditions/:condition_id/resolve"):     {},
		Route("POST", "/v1/oracles/optimistic/conditions/:condition_id/settle"): {},
		Route("GET", "/v1/custody/balances/:party"):                             {},
	}
}

// AllPermissionsByRoute returns the role required by every restricted
// route.
func AllPermissionsByRoute() map[string]string {
	return map[string]string{
		Route("POST", "/v1/markets"):                                                RoleParticipant,
		Route("POST", "/v1/markets/:id/accept"):                                     RoleParticipant,
		Route("POST", "/v1/markets/:id/propose"):                                    RoleParticipant,
		Route("POST", "/v1/markets/:id/challenge"):                                  RoleParticipant,
		Route("POST", "/v1/markets/:id/adjudicate"):                                 RoleParticipant,
		Route("POST", "/v1/markets/:id/peg"):                                        RoleParticipant,
		Route("POST", "/v1/markets/:id/claim"):                                      RoleParticipant,
		Route("POST", "/v1/oracles/price/conditions"):                               RoleOperator,
		Route("POST", "/v1/oracles/price/prices"):                                   RoleOperator,
		Route("POST", "/v1/oracles/optimistic/conditions"):                          RoleOperator,
		Route("POST", "/v1/oracles/optimistic/conditions/:condition_id/assert"):     RoleParticipant,
		Route("POST", "/v1/oracles/optimistic/conditions/:condition_id/dispute"):    RoleParticipant,
		Route("POST", "/v1/oracles/optimistic/conditions/:condition_id/escalation"): RoleOperator,
		Route("POST", "/v1/oracles/manual/conditions"):                              RoleOperator,
		Route("POST", "/v1/oracles/manual/conditions/:condition_id/attest"):         RoleParticipant,
		Route("GET", "/v1/webhooks"):                                                RoleOperator,
		Route("POST", "/v1/webhooks"):                                               RoleOperator,
		Route("DELETE", "/v1/webhooks/:id"):                                         RoleOperator,
		Route("POST", "/v1/custody/credit"):                                         RoleOperator,
	}
}
