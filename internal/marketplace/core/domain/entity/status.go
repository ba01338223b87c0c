package entity

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusCustoms    OrderStatus = "Customs"
	StatusCleared    OrderStatus = "Cleared"
	StatusDelivered  OrderStatus = "Delivered"
	StatusRejected   OrderStatus = "Rejected"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionShip    Action = "ship"
	ActionArrive  Action = "arrive"
	ActionClear   Action = "clear"
	ActionDeliver Action = "deliver"
)

type statusInfo struct {
	step   int
	text   string
	detail string
}

var statuses = map[OrderStatus]statusInfo{
	StatusPending:    {1, "Order & Approval", "Order received"},
	StatusProcessing: {2, "Processing", "Order approved, preparing shipment"},
	StatusShipped:    {3, "Shipped", "In transit to Brazil"},
	StatusCustoms:    {4, "Customs", "Awaiting customs clearance"},
	StatusCleared:    {5, "Cleared", "Cleared customs, out for delivery"},
	StatusDelivered:  {6, "Delivered", "Delivered to customer"},
	StatusRejected:   {0, "Rejected", "Order rejected"},
}

type transitionKey struct {
	from   OrderStatus
	action Action
}

var transitions = map[transitionKey]OrderStatus{
	{StatusPending, ActionApprove}: StatusProcessing,
	{StatusPending, ActionReject}:  StatusRejected,
	{StatusProcessing, ActionShip}: StatusShipped,
	{StatusShipped, ActionArrive}:  StatusCustoms,
	{StatusCustoms, ActionClear}:   StatusCleared,
	{StatusCustoms, ActionReject}:  StatusRejected,
	{StatusCleared, ActionDeliver}: StatusDelivered,
	{StatusCleared, ActionReject}:  StatusRejected,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for status := range statuses {
		if strings.EqualFold(string(status), s) {
			return status, true
		}
	}
	return "", false
}

func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionApprove, ActionReject, ActionShip, ActionArrive, ActionClear, ActionDeliver:
		return a, true
	}
	return "", false
}

// Step is the 1-based position in the fulfilment timeline. Rejected has no step
// of its own; orders keep the step they were rejected at.
func (s OrderStatus) Step() int { return statuses[s].step }

func (s OrderStatus) Text() string { return statuses[s].text }

func (s OrderStatus) DetailText() string { return statuses[s].detail }

func (s OrderStatus) Class() string { return "status-" + strings.ToLower(string(s)) }

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusRejected
}

// Transition applies action to from and returns the resulting status.
func Transition(from OrderStatus, action Action) (OrderStatus, error) {
	to, ok := transitions[transitionKey{from, action}]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s an order in status %s", ErrInvalidTransition, action, from)
	}
	return to, nil
}

// NextActions lists the actions available from a status.
func NextActions(from OrderStatus) []Action {
	var out []Action
	for _, a := range []Action{ActionApprove, ActionShip, ActionArrive, ActionClear, ActionDeliver, ActionReject} {
		if _, ok := transitions[transitionKey{from, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}

// ActionAllowed reports whether role may apply action to an order in status from.
// Admins review pending orders, logistics1 moves goods to customs, and
// logistics2 runs customs and delivery. logistics1 also covers logistics2 stages.
func ActionAllowed(role Role, from OrderStatus, action Action) error {
	allowed := false
	switch role {
	case RoleAdmin:
		allowed = from == StatusPending && (action == ActionApprove || action == ActionReject)
	case RoleLogistics1:
		allowed = action == ActionShip || action == ActionArrive || logistics2Action(from, action)
	case RoleLogistics2:
		allowed = logistics2Action(from, action)
	}
	if !allowed {
		return fmt.Errorf("%w: role %q cannot %s an order in status %s", ErrForbidden, role, action, from)
	}
	return nil
}

func logistics2Action(from OrderStatus, action Action) bool {
	switch action {
	case ActionClear, ActionDeliver:
		return true
	case ActionReject:
		return from == StatusCustoms || from == StatusCleared
	}
	return false
}
