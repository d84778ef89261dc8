package domain

import "sort"

// Permission is a capability token held by the acting principal.
type Permission string

const (
	PermCompleteTicket      Permission = "COMPLETAR_TICKET"
	PermReopenTicket        Permission = "REABRIR_TICKET"
	PermCloseTicket         Permission = "CERRAR_TICKET"
	PermMarkNotAuthorized   Permission = "TICKET_NO_AUTORIZADO"
	PermReassignUser        Permission = "REASIGNAR_USUARIO"
	PermReassignDepartment  Permission = "REASIGNAR_DEPARTAMENTO"
	PermAddCommitmentDate   Permission = "AGREGAR_FECHA_COMPROMISO"
	PermEditTicket          Permission = "EDITAR_TICKET"
	PermViewTrash           Permission = "VER_PAPELERA"
)

// PermissionSet is an immutable set of capability tokens. Operations on
// the lifecycle machine receive one explicitly; the machine never looks
// up permissions on its own.
type PermissionSet struct {
	tokens map[Permission]struct{}
}

// NewPermissionSet builds a set from the given tokens.
func NewPermissionSet(perms ...Permission) PermissionSet {
	tokens := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		tokens[p] = struct{}{}
	}
	return PermissionSet{tokens: tokens}
}

// Has reports whether the set contains the token.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.tokens[p]
	return ok
}

// Len returns the number of tokens held.
func (s PermissionSet) Len() int {
	return len(s.tokens)
}

// List returns the tokens in stable order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s.tokens))
	for p := range s.tokens {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
