// Package campaign implements campaign lifecycle management.
//
// The service layer owns launching: creating the target set (one record
// per recipient, serialized by a distributed lock so concurrent launch
// requests cannot duplicate it), transitioning the campaign to running,
// and emitting the launch notification. It depends on repository
// interfaces defined in this package and should never import from
// handler code.
//
// Repository implementations live in repository/postgres/.
package campaign
